package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/diillson/aws-macie-tagger-go/internal/adapter/driven/aws"
	"github.com/diillson/aws-macie-tagger-go/internal/adapter/driven/config"
	"github.com/diillson/aws-macie-tagger-go/internal/adapter/driven/export"
	"github.com/diillson/aws-macie-tagger-go/internal/adapter/driving/cli"
	"github.com/diillson/aws-macie-tagger-go/internal/domain/repository"
	"github.com/diillson/aws-macie-tagger-go/pkg/console"
	"github.com/diillson/aws-macie-tagger-go/pkg/version"
)

func main() {
	// Inicializa os repositórios
	exportRepo := export.NewExportRepository()
	configRepo := config.NewConfigRepository()
	consoleImpl := console.NewConsole()

	awsFactory := func(ctx context.Context, profile, region string) (repository.AWSRepository, repository.StorageRepository, error) {
		awsRepo := aws.NewAWSRepository(profile, region)
		storage, err := awsRepo.Storage(ctx)
		if err != nil {
			return nil, nil, err
		}
		return awsRepo, storage, nil
	}

	// Inicializa o aplicativo CLI
	app := cli.NewCLIApp(version.Version, configRepo, exportRepo, consoleImpl, awsFactory)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Executa o aplicativo
	if err := app.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
