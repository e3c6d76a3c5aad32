package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/diillson/aws-macie-tagger-go/internal/domain/entity"
	"github.com/diillson/aws-macie-tagger-go/internal/domain/repository"
	"github.com/diillson/aws-macie-tagger-go/internal/shared/types"
)

// ObjectCreatedEvent é o evento S3 que dispara o handler de tagging.
const ObjectCreatedEvent = "s3:ObjectCreated:*"

// PhysicalIDPrefix identifica o recurso customizado de notificações.
const PhysicalIDPrefix = "ResultsNotifications"

// RegistrarUseCase registra e remove a assinatura de eventos do bucket de
// resultados.
type RegistrarUseCase struct {
	storage repository.StorageRepository
	log     zerolog.Logger
}

// NewRegistrarUseCase creates a new registrar use case.
func NewRegistrarUseCase(storage repository.StorageRepository, log zerolog.Logger) *RegistrarUseCase {
	return &RegistrarUseCase{storage: storage, log: log}
}

// Register instala a configuração de notificação no bucket. Reaplicar a
// mesma configuração não altera o estado do bucket.
func (uc *RegistrarUseCase) Register(ctx context.Context, bucket string, cfg entity.NotificationConfig) (string, error) {
	if strings.TrimSpace(bucket) == "" {
		return "", types.ErrMissingBucketName
	}
	if cfg.IsEmpty() {
		return "", types.ErrMissingNotificationConfig
	}

	if err := uc.storage.PutBucketNotification(ctx, bucket, cfg); err != nil {
		uc.log.Error().Err(err).Msgf("Unable to put bucket notification to s3://%s", bucket)
		return "", fmt.Errorf("error registering notification on %s: %w", bucket, err)
	}
	uc.log.Info().Int("targets", len(cfg.Targets)).Msgf("Successfully put bucket notification to s3://%s", bucket)
	return PhysicalID(bucket), nil
}

// Unregister remove todas as assinaturas do bucket (configuração vazia).
func (uc *RegistrarUseCase) Unregister(ctx context.Context, bucket string) error {
	if strings.TrimSpace(bucket) == "" {
		return types.ErrMissingBucketName
	}
	if err := uc.storage.PutBucketNotification(ctx, bucket, entity.NotificationConfig{}); err != nil {
		uc.log.Error().Err(err).Msgf("Unable to remove bucket notification from s3://%s", bucket)
		return fmt.Errorf("error removing notification from %s: %w", bucket, err)
	}
	uc.log.Info().Msgf("Successfully removed bucket notification from s3://%s", bucket)
	return nil
}

// Status retorna as notificações e as regras de lifecycle gerenciadas.
func (uc *RegistrarUseCase) Status(ctx context.Context, bucket, rulePrefix string) (entity.BucketStatus, error) {
	status := entity.BucketStatus{Bucket: bucket}

	notif, err := uc.storage.GetBucketNotification(ctx, bucket)
	if err != nil {
		return status, fmt.Errorf("error reading notification of %s: %w", bucket, err)
	}
	status.Notifications = notif

	rules, total, err := uc.storage.ListLifecycleRules(ctx, bucket, rulePrefix)
	if err != nil {
		return status, fmt.Errorf("error reading lifecycle of %s: %w", bucket, err)
	}
	status.ManagedRules = rules
	status.TotalRuleCount = total
	return status, nil
}

// PhysicalID é o id físico do recurso customizado. Depende do bucket para que
// uma troca de bucket gere um Delete do id antigo.
func PhysicalID(bucket string) string {
	return PhysicalIDPrefix + "-" + bucket
}

// NewLambdaNotification monta a configuração usada pelo comando register.
func NewLambdaNotification(functionARN, prefix, suffix string) entity.NotificationConfig {
	target := entity.NotificationTarget{
		ID:     "macie-results-tagging",
		Kind:   "lambda",
		Arn:    functionARN,
		Events: []string{ObjectCreatedEvent},
	}
	if prefix != "" {
		target.Filters = append(target.Filters, entity.FilterRule{Name: "prefix", Value: prefix})
	}
	if suffix != "" {
		target.Filters = append(target.Filters, entity.FilterRule{Name: "suffix", Value: suffix})
	}
	return entity.NotificationConfig{Targets: []entity.NotificationTarget{target}}
}
