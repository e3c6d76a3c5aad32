// Package dryrun envolve um StorageRepository para que as leituras sejam
// reais e as escritas apenas registradas em log.
package dryrun

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/diillson/aws-macie-tagger-go/internal/domain/entity"
	"github.com/diillson/aws-macie-tagger-go/internal/domain/repository"
)

// StorageRepository não executa nenhuma mutação.
type StorageRepository struct {
	next repository.StorageRepository
	log  zerolog.Logger
}

// NewStorageRepository cria o decorador de dry-run.
func NewStorageRepository(next repository.StorageRepository, log zerolog.Logger) *StorageRepository {
	return &StorageRepository{next: next, log: log.With().Bool("dry_run", true).Logger()}
}

var _ repository.StorageRepository = (*StorageRepository)(nil)

func (s *StorageRepository) GetObject(ctx context.Context, ref entity.ObjectRef) ([]byte, error) {
	return s.next.GetObject(ctx, ref)
}

// SetObjectTag reporta changed=true sem gravar.
func (s *StorageRepository) SetObjectTag(ctx context.Context, ref entity.ObjectRef, tag entity.Tag) (bool, error) {
	s.log.Info().
		Str("target", ref.String()).
		Str("tag_key", tag.Key).
		Str("tag_value", tag.Value).
		Msg("Would set object tag")
	return true, nil
}

// UpsertLifecycleRule reporta changed=true sem gravar.
func (s *StorageRepository) UpsertLifecycleRule(ctx context.Context, bucket string, rule entity.LifecycleRule) (bool, error) {
	s.log.Info().
		Str("bucket", bucket).
		Str("rule_id", rule.ID).
		Str("prefix", rule.Prefix).
		Int32("transition_days", rule.TransitionDays).
		Int32("expiration_days", rule.ExpirationDays).
		Msg("Would upsert lifecycle rule")
	return true, nil
}

func (s *StorageRepository) ListLifecycleRules(ctx context.Context, bucket, idPrefix string) ([]entity.LifecycleRule, int, error) {
	return s.next.ListLifecycleRules(ctx, bucket, idPrefix)
}

func (s *StorageRepository) PutBucketNotification(ctx context.Context, bucket string, cfg entity.NotificationConfig) error {
	s.log.Info().
		Str("bucket", bucket).
		Int("targets", len(cfg.Targets)).
		Bool("eventbridge", cfg.EventBridge).
		Msg("Would put bucket notification configuration")
	return nil
}

func (s *StorageRepository) GetBucketNotification(ctx context.Context, bucket string) (entity.NotificationConfig, error) {
	return s.next.GetBucketNotification(ctx, bucket)
}
