package handler

import (
	"context"
	"sync"

	"github.com/diillson/aws-macie-tagger-go/internal/domain/entity"
	"github.com/diillson/aws-macie-tagger-go/internal/shared/types"
)

type fakeStorage struct {
	mu            sync.Mutex
	objects       map[string]string
	tags          map[string]entity.Tag
	rules         map[string]entity.LifecycleRule
	notifications map[string]entity.NotificationConfig
	tagErr        error
	notifyErr     error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects:       make(map[string]string),
		tags:          make(map[string]entity.Tag),
		rules:         make(map[string]entity.LifecycleRule),
		notifications: make(map[string]entity.NotificationConfig),
	}
}

func (f *fakeStorage) GetObject(_ context.Context, ref entity.ObjectRef) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[ref.Bucket+"/"+ref.Key]
	if !ok {
		return nil, types.ErrTargetGone
	}
	return []byte(body), nil
}

func (f *fakeStorage) SetObjectTag(_ context.Context, ref entity.ObjectRef, tag entity.Tag) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tagErr != nil {
		return false, f.tagErr
	}
	key := ref.Bucket + "/" + ref.Key
	if f.tags[key] == tag {
		return false, nil
	}
	f.tags[key] = tag
	return true, nil
}

func (f *fakeStorage) UpsertLifecycleRule(_ context.Context, bucket string, rule entity.LifecycleRule) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := bucket + "/" + rule.ID
	if existing, ok := f.rules[key]; ok && existing.Equal(rule) {
		return false, nil
	}
	f.rules[key] = rule
	return true, nil
}

func (f *fakeStorage) ListLifecycleRules(context.Context, string, string) ([]entity.LifecycleRule, int, error) {
	return nil, 0, nil
}

func (f *fakeStorage) PutBucketNotification(_ context.Context, bucket string, cfg entity.NotificationConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notifyErr != nil {
		return f.notifyErr
	}
	f.notifications[bucket] = cfg
	return nil
}

func (f *fakeStorage) GetBucketNotification(_ context.Context, bucket string) (entity.NotificationConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notifications[bucket], nil
}

type fakeMetrics struct {
	summaries  []entity.Summary
	coldStarts int
	flushes    int
}

func (m *fakeMetrics) RecordSummary(s entity.Summary) { m.summaries = append(m.summaries, s) }
func (m *fakeMetrics) RecordColdStart()               { m.coldStarts++ }
func (m *fakeMetrics) Flush() error {
	m.flushes++
	return nil
}
