package repository

import (
	"context"

	"github.com/diillson/aws-macie-tagger-go/internal/domain/entity"
)

// StorageRepository defines the storage operations used by the tagger and the
// registrar.
//
// Every mutation may run more than once for the same input: S3 events and
// custom-resource requests are delivered at least once. Implementations must
// make repeated calls with identical arguments converge on the same state and
// report changed=false when nothing had to be written.
type StorageRepository interface {
	// GetObject returns the raw content of an object.
	GetObject(ctx context.Context, ref entity.ObjectRef) ([]byte, error)

	// SetObjectTag merges tag into the object's tag set, replacing any tag
	// with the same key and keeping the others.
	SetObjectTag(ctx context.Context, ref entity.ObjectRef, tag entity.Tag) (changed bool, err error)

	// UpsertLifecycleRule adds rule to the bucket lifecycle configuration or
	// replaces the rule with the same ID. Other rules are preserved.
	UpsertLifecycleRule(ctx context.Context, bucket string, rule entity.LifecycleRule) (changed bool, err error)

	// ListLifecycleRules returns the rules whose ID starts with idPrefix and
	// the total number of rules on the bucket.
	ListLifecycleRules(ctx context.Context, bucket, idPrefix string) ([]entity.LifecycleRule, int, error)

	// PutBucketNotification replaces the bucket notification configuration.
	// An empty configuration removes every subscription.
	PutBucketNotification(ctx context.Context, bucket string, cfg entity.NotificationConfig) error

	// GetBucketNotification returns the current notification configuration.
	GetBucketNotification(ctx context.Context, bucket string) (entity.NotificationConfig, error)
}
