package usecase

import (
	"context"
	"strings"
	"sync"

	"github.com/diillson/aws-macie-tagger-go/internal/domain/entity"
	"github.com/diillson/aws-macie-tagger-go/internal/shared/types"
)

// memoryStorage é um StorageRepository em memória com a mesma semântica de
// merge/upsert do adapter S3.
type memoryStorage struct {
	mu sync.Mutex

	objects       map[string][]byte
	tags          map[string]map[string]string
	rules         map[string][]entity.LifecycleRule
	notifications map[string]entity.NotificationConfig

	tagErrs       map[string]error // por chave do objeto alvo
	lifecycleErrs map[string]error // por bucket
	getErrs       map[string]error

	tagWrites       int
	lifecycleWrites int
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		objects:       make(map[string][]byte),
		tags:          make(map[string]map[string]string),
		rules:         make(map[string][]entity.LifecycleRule),
		notifications: make(map[string]entity.NotificationConfig),
		tagErrs:       make(map[string]error),
		lifecycleErrs: make(map[string]error),
		getErrs:       make(map[string]error),
	}
}

func objKey(ref entity.ObjectRef) string {
	return ref.Bucket + "/" + ref.Key
}

func (m *memoryStorage) put(ref entity.ObjectRef, body string) {
	m.objects[objKey(ref)] = []byte(body)
}

func (m *memoryStorage) GetObject(ctx context.Context, ref entity.ObjectRef) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.getErrs[objKey(ref)]; ok {
		return nil, err
	}
	data, ok := m.objects[objKey(ref)]
	if !ok {
		return nil, types.ErrTargetGone
	}
	return data, nil
}

func (m *memoryStorage) SetObjectTag(ctx context.Context, ref entity.ObjectRef, tag entity.Tag) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.tagErrs[ref.Key]; ok {
		return false, err
	}
	set, ok := m.tags[objKey(ref)]
	if !ok {
		set = make(map[string]string)
		m.tags[objKey(ref)] = set
	}
	if v, ok := set[tag.Key]; ok && v == tag.Value {
		return false, nil
	}
	set[tag.Key] = tag.Value
	m.tagWrites++
	return true, nil
}

func (m *memoryStorage) UpsertLifecycleRule(ctx context.Context, bucket string, rule entity.LifecycleRule) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.lifecycleErrs[bucket]; ok {
		return false, err
	}
	rules := m.rules[bucket]
	for i, r := range rules {
		if r.ID == rule.ID {
			if r.Equal(rule) {
				return false, nil
			}
			rules[i] = rule
			m.lifecycleWrites++
			return true, nil
		}
	}
	m.rules[bucket] = append(rules, rule)
	m.lifecycleWrites++
	return true, nil
}

func (m *memoryStorage) ListLifecycleRules(ctx context.Context, bucket, idPrefix string) ([]entity.LifecycleRule, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.LifecycleRule
	for _, r := range m.rules[bucket] {
		if strings.HasPrefix(r.ID, idPrefix) {
			out = append(out, r)
		}
	}
	return out, len(m.rules[bucket]), nil
}

func (m *memoryStorage) PutBucketNotification(ctx context.Context, bucket string, cfg entity.NotificationConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.lifecycleErrs[bucket]; ok {
		return err
	}
	m.notifications[bucket] = cfg
	return nil
}

func (m *memoryStorage) GetBucketNotification(ctx context.Context, bucket string) (entity.NotificationConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifications[bucket], nil
}
