package dryrun

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/diillson/aws-macie-tagger-go/internal/domain/entity"
)

type recordingStorage struct {
	reads  int
	writes int
}

func (r *recordingStorage) GetObject(context.Context, entity.ObjectRef) ([]byte, error) {
	r.reads++
	return []byte("data"), nil
}

func (r *recordingStorage) SetObjectTag(context.Context, entity.ObjectRef, entity.Tag) (bool, error) {
	r.writes++
	return true, nil
}

func (r *recordingStorage) UpsertLifecycleRule(context.Context, string, entity.LifecycleRule) (bool, error) {
	r.writes++
	return true, nil
}

func (r *recordingStorage) ListLifecycleRules(context.Context, string, string) ([]entity.LifecycleRule, int, error) {
	r.reads++
	return nil, 0, nil
}

func (r *recordingStorage) PutBucketNotification(context.Context, string, entity.NotificationConfig) error {
	r.writes++
	return nil
}

func (r *recordingStorage) GetBucketNotification(context.Context, string) (entity.NotificationConfig, error) {
	r.reads++
	return entity.NotificationConfig{}, nil
}

func TestStorageRepository(t *testing.T) {
	var buf bytes.Buffer
	next := &recordingStorage{}
	repo := NewStorageRepository(next, zerolog.New(&buf))
	ctx := context.Background()
	ref := entity.ObjectRef{Bucket: "data", Key: "k"}

	if _, err := repo.GetObject(ctx, ref); err != nil {
		t.Fatal(err)
	}
	changed, err := repo.SetObjectTag(ctx, ref, entity.Tag{Key: "Severity", Value: "High"})
	if err != nil || !changed {
		t.Errorf("SetObjectTag() = %v, %v", changed, err)
	}
	changed, err = repo.UpsertLifecycleRule(ctx, "data", entity.LifecycleRule{ID: "r"})
	if err != nil || !changed {
		t.Errorf("UpsertLifecycleRule() = %v, %v", changed, err)
	}
	if err := repo.PutBucketNotification(ctx, "data", entity.NotificationConfig{}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := repo.ListLifecycleRules(ctx, "data", "p"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetBucketNotification(ctx, "data"); err != nil {
		t.Fatal(err)
	}

	if next.writes != 0 {
		t.Errorf("dry run performed %d writes", next.writes)
	}
	if next.reads != 3 {
		t.Errorf("reads = %d, want 3", next.reads)
	}
	if !strings.Contains(buf.String(), `"dry_run":true`) {
		t.Errorf("log lines should be marked as dry run: %s", buf.String())
	}
}
