package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/diillson/aws-macie-tagger-go/internal/adapter/driven/aws"
	"github.com/diillson/aws-macie-tagger-go/internal/adapter/driven/config"
	"github.com/diillson/aws-macie-tagger-go/internal/adapter/driving/handler"
	"github.com/diillson/aws-macie-tagger-go/internal/application/usecase"
	"github.com/diillson/aws-macie-tagger-go/internal/shared/logger"
	"github.com/diillson/aws-macie-tagger-go/pkg/version"
)

func main() {
	configRepo := config.NewConfigRepository()
	cfg, err := configRepo.LoadFromEnv()
	if err == nil {
		err = configRepo.Validate(cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log, cfg.Metrics.Service).With().
		Str("component", "notification-registrar").
		Str("version", version.Version).
		Logger()

	awsCfg, err := aws.LoadConfig(context.Background(), "", "")
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to load AWS configuration")
	}

	registrar := usecase.NewRegistrarUseCase(aws.NewS3Repository(s3.NewFromConfig(awsCfg)), log)
	h := handler.NewRegistrarHandler(registrar, log, cfg.Log.LogEvent)

	// LambdaWrap envia a resposta SUCCESS/FAILED ao CloudFormation.
	lambda.Start(cfn.LambdaWrap(h.Handle))
}
