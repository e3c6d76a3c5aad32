package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/diillson/aws-macie-tagger-go/internal/adapter/driven/aws"
	"github.com/diillson/aws-macie-tagger-go/internal/adapter/driven/config"
	"github.com/diillson/aws-macie-tagger-go/internal/adapter/driven/metrics"
	"github.com/diillson/aws-macie-tagger-go/internal/adapter/driving/handler"
	"github.com/diillson/aws-macie-tagger-go/internal/application/usecase"
	"github.com/diillson/aws-macie-tagger-go/internal/shared/logger"
	"github.com/diillson/aws-macie-tagger-go/pkg/version"
)

func main() {
	// Configuração carregada uma vez por cold start
	configRepo := config.NewConfigRepository()
	cfg, err := configRepo.LoadFromEnv()
	if err == nil {
		err = configRepo.Validate(cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log, cfg.Metrics.Service).With().Str("version", version.Version).Logger()

	awsCfg, err := aws.LoadConfig(context.Background(), "", "")
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to load AWS configuration")
	}

	storage := aws.NewS3Repository(s3.NewFromConfig(awsCfg))
	tagger := usecase.NewTaggingUseCase(storage, cfg.Tagger, log)
	metricsRepo := metrics.NewEMFRepository(cfg.Metrics.Namespace, cfg.Metrics.Service, os.Stdout)

	h := handler.NewTaggingHandler(tagger, metricsRepo, log, cfg.Log.LogEvent)
	lambda.Start(h.Handle)
}
