package aws

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3Types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/diillson/aws-macie-tagger-go/internal/domain/entity"
	"github.com/diillson/aws-macie-tagger-go/internal/domain/repository"
	"github.com/diillson/aws-macie-tagger-go/internal/shared/types"
)

// S3API é o subconjunto do cliente S3 usado pelo repositório.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	GetObjectTagging(ctx context.Context, params *s3.GetObjectTaggingInput, optFns ...func(*s3.Options)) (*s3.GetObjectTaggingOutput, error)
	PutObjectTagging(ctx context.Context, params *s3.PutObjectTaggingInput, optFns ...func(*s3.Options)) (*s3.PutObjectTaggingOutput, error)
	GetBucketLifecycleConfiguration(ctx context.Context, params *s3.GetBucketLifecycleConfigurationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLifecycleConfigurationOutput, error)
	PutBucketLifecycleConfiguration(ctx context.Context, params *s3.PutBucketLifecycleConfigurationInput, optFns ...func(*s3.Options)) (*s3.PutBucketLifecycleConfigurationOutput, error)
	GetBucketNotificationConfiguration(ctx context.Context, params *s3.GetBucketNotificationConfigurationInput, optFns ...func(*s3.Options)) (*s3.GetBucketNotificationConfigurationOutput, error)
	PutBucketNotificationConfiguration(ctx context.Context, params *s3.PutBucketNotificationConfigurationInput, optFns ...func(*s3.Options)) (*s3.PutBucketNotificationConfigurationOutput, error)
}

// maxObjectTags é o limite de tags por objeto imposto pelo S3.
const maxObjectTags = 10

// maxObjectSize limita a leitura de objetos de resultados (o Firehose
// entrega lotes de no máximo 128 MiB).
const maxObjectSize = 128 << 20

// S3RepositoryImpl implementa o StorageRepository sobre o S3.
type S3RepositoryImpl struct {
	client S3API
}

// NewS3Repository cria uma nova implementação do StorageRepository.
func NewS3Repository(client S3API) repository.StorageRepository {
	return &S3RepositoryImpl{client: client}
}

func (r *S3RepositoryImpl) GetObject(ctx context.Context, ref entity.ObjectRef) ([]byte, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket:    aws.String(ref.Bucket),
		Key:       aws.String(ref.Key),
		VersionId: optional(ref.VersionID),
	})
	if err != nil {
		return nil, classifyError("get object", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("error reading object body of %s: %w", ref, err)
	}
	if len(data) > maxObjectSize {
		return nil, fmt.Errorf("object %s exceeds %d bytes", ref, maxObjectSize)
	}
	return data, nil
}

// SetObjectTag lê o tag set atual e só grava quando o valor muda.
// Chamadas repetidas convergem para um único tag com a chave.
func (r *S3RepositoryImpl) SetObjectTag(ctx context.Context, ref entity.ObjectRef, tag entity.Tag) (bool, error) {
	current, err := r.client.GetObjectTagging(ctx, &s3.GetObjectTaggingInput{
		Bucket:    aws.String(ref.Bucket),
		Key:       aws.String(ref.Key),
		VersionId: optional(ref.VersionID),
	})
	if err != nil {
		return false, classifyError("get object tagging", err)
	}

	merged, changed, err := mergeTagSet(current.TagSet, tag)
	if err != nil {
		return false, fmt.Errorf("%s: %w", ref, err)
	}
	if !changed {
		return false, nil
	}

	_, err = r.client.PutObjectTagging(ctx, &s3.PutObjectTaggingInput{
		Bucket:    aws.String(ref.Bucket),
		Key:       aws.String(ref.Key),
		VersionId: optional(ref.VersionID),
		Tagging:   &s3Types.Tagging{TagSet: merged},
	})
	if err != nil {
		return false, classifyError("put object tagging", err)
	}
	return true, nil
}

// mergeTagSet substitui (ou acrescenta) a tag preservando as demais. Se não
// houver espaço para a nova chave retorna types.ErrTagLimit: o S3 rejeitaria
// o Put e reentregar o evento não mudaria isso.
func mergeTagSet(set []s3Types.Tag, tag entity.Tag) ([]s3Types.Tag, bool, error) {
	merged := make([]s3Types.Tag, 0, len(set)+1)
	found, changed := false, false
	for _, t := range set {
		if aws.ToString(t.Key) != tag.Key {
			merged = append(merged, t)
			continue
		}
		if found {
			// chave duplicada: descarta
			changed = true
			continue
		}
		found = true
		if aws.ToString(t.Value) != tag.Value {
			changed = true
		}
		merged = append(merged, s3Types.Tag{Key: aws.String(tag.Key), Value: aws.String(tag.Value)})
	}
	if !found {
		merged = append(merged, s3Types.Tag{Key: aws.String(tag.Key), Value: aws.String(tag.Value)})
		changed = true
	}
	if len(merged) > maxObjectTags {
		return nil, false, fmt.Errorf("%w (%d)", types.ErrTagLimit, maxObjectTags)
	}
	return merged, changed, nil
}

func (r *S3RepositoryImpl) getLifecycle(ctx context.Context, bucket string) (*s3.GetBucketLifecycleConfigurationOutput, error) {
	out, err := r.client.GetBucketLifecycleConfiguration(ctx, &s3.GetBucketLifecycleConfigurationInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		if errorCode(err) == "NoSuchLifecycleConfiguration" {
			return &s3.GetBucketLifecycleConfigurationOutput{}, nil
		}
		return nil, classifyError("get bucket lifecycle", err)
	}
	return out, nil
}

// UpsertLifecycleRule faz read-modify-write da configuração de lifecycle,
// preservando regras de terceiros. Não grava se a regra já está igual.
// Depois do Put a configuração é relida: se outra escrita concorrente
// removeu a regra, retorna types.ErrLifecycleConflict para que o evento
// seja reentregue.
func (r *S3RepositoryImpl) UpsertLifecycleRule(ctx context.Context, bucket string, rule entity.LifecycleRule) (bool, error) {
	current, err := r.getLifecycle(ctx, bucket)
	if err != nil {
		return false, err
	}

	rules, changed := upsertRule(current.Rules, rule)
	if !changed {
		return false, nil
	}

	_, err = r.client.PutBucketLifecycleConfiguration(ctx, &s3.PutBucketLifecycleConfigurationInput{
		Bucket:                             aws.String(bucket),
		LifecycleConfiguration:             &s3Types.BucketLifecycleConfiguration{Rules: rules},
		TransitionDefaultMinimumObjectSize: current.TransitionDefaultMinimumObjectSize,
	})
	if err != nil {
		return false, classifyError("put bucket lifecycle", err)
	}

	after, err := r.getLifecycle(ctx, bucket)
	if err != nil {
		return false, err
	}
	if !hasRule(after.Rules, rule) {
		return false, fmt.Errorf("%s on %s: %w", rule.ID, bucket, types.ErrLifecycleConflict)
	}
	return true, nil
}

func hasRule(rules []s3Types.LifecycleRule, rule entity.LifecycleRule) bool {
	for _, r := range rules {
		if aws.ToString(r.ID) == rule.ID && ruleFromS3(r).Equal(rule) {
			return true
		}
	}
	return false
}

func upsertRule(rules []s3Types.LifecycleRule, rule entity.LifecycleRule) ([]s3Types.LifecycleRule, bool) {
	out := make([]s3Types.LifecycleRule, 0, len(rules)+1)
	found := false
	changed := false
	for _, existing := range rules {
		if aws.ToString(existing.ID) != rule.ID {
			out = append(out, existing)
			continue
		}
		found = true
		if !ruleFromS3(existing).Equal(rule) {
			changed = true
		}
		out = append(out, ruleToS3(rule))
	}
	if !found {
		out = append(out, ruleToS3(rule))
		changed = true
	}
	return out, changed
}

func ruleToS3(rule entity.LifecycleRule) s3Types.LifecycleRule {
	status := s3Types.ExpirationStatusDisabled
	if rule.Enabled {
		status = s3Types.ExpirationStatusEnabled
	}
	return s3Types.LifecycleRule{
		ID:     aws.String(rule.ID),
		Status: status,
		Filter: &s3Types.LifecycleRuleFilter{Prefix: aws.String(rule.Prefix)},
		NoncurrentVersionTransitions: []s3Types.NoncurrentVersionTransition{{
			NoncurrentDays: aws.Int32(rule.TransitionDays),
			StorageClass:   s3Types.TransitionStorageClass(rule.StorageClass),
		}},
		NoncurrentVersionExpiration: &s3Types.NoncurrentVersionExpiration{
			NoncurrentDays: aws.Int32(rule.ExpirationDays),
		},
	}
}

func ruleFromS3(r s3Types.LifecycleRule) entity.LifecycleRule {
	rule := entity.LifecycleRule{
		ID:      aws.ToString(r.ID),
		Enabled: r.Status == s3Types.ExpirationStatusEnabled,
	}
	if r.Filter != nil {
		rule.Prefix = aws.ToString(r.Filter.Prefix)
	}
	if len(r.NoncurrentVersionTransitions) == 1 {
		tr := r.NoncurrentVersionTransitions[0]
		rule.TransitionDays = aws.ToInt32(tr.NoncurrentDays)
		rule.StorageClass = string(tr.StorageClass)
	}
	if r.NoncurrentVersionExpiration != nil {
		rule.ExpirationDays = aws.ToInt32(r.NoncurrentVersionExpiration.NoncurrentDays)
	}
	return rule
}

func (r *S3RepositoryImpl) ListLifecycleRules(ctx context.Context, bucket, idPrefix string) ([]entity.LifecycleRule, int, error) {
	current, err := r.getLifecycle(ctx, bucket)
	if err != nil {
		return nil, 0, err
	}
	var rules []entity.LifecycleRule
	for _, rule := range current.Rules {
		if strings.HasPrefix(aws.ToString(rule.ID), idPrefix) {
			rules = append(rules, ruleFromS3(rule))
		}
	}
	return rules, len(current.Rules), nil
}

func (r *S3RepositoryImpl) PutBucketNotification(ctx context.Context, bucket string, cfg entity.NotificationConfig) error {
	_, err := r.client.PutBucketNotificationConfiguration(ctx, &s3.PutBucketNotificationConfigurationInput{
		Bucket:                    aws.String(bucket),
		NotificationConfiguration: notificationToS3(cfg),
	})
	if err != nil {
		return classifyError("put bucket notification", err)
	}
	return nil
}

func (r *S3RepositoryImpl) GetBucketNotification(ctx context.Context, bucket string) (entity.NotificationConfig, error) {
	out, err := r.client.GetBucketNotificationConfiguration(ctx, &s3.GetBucketNotificationConfigurationInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return entity.NotificationConfig{}, classifyError("get bucket notification", err)
	}
	return notificationFromS3(out), nil
}

func notificationToS3(cfg entity.NotificationConfig) *s3Types.NotificationConfiguration {
	out := &s3Types.NotificationConfiguration{}
	for _, t := range cfg.Targets {
		events := make([]s3Types.Event, 0, len(t.Events))
		for _, e := range t.Events {
			events = append(events, s3Types.Event(e))
		}
		filter := filterToS3(t.Filters)
		switch t.Kind {
		case "queue":
			out.QueueConfigurations = append(out.QueueConfigurations, s3Types.QueueConfiguration{
				Id: optional(t.ID), QueueArn: aws.String(t.Arn), Events: events, Filter: filter,
			})
		case "topic":
			out.TopicConfigurations = append(out.TopicConfigurations, s3Types.TopicConfiguration{
				Id: optional(t.ID), TopicArn: aws.String(t.Arn), Events: events, Filter: filter,
			})
		default:
			out.LambdaFunctionConfigurations = append(out.LambdaFunctionConfigurations, s3Types.LambdaFunctionConfiguration{
				Id: optional(t.ID), LambdaFunctionArn: aws.String(t.Arn), Events: events, Filter: filter,
			})
		}
	}
	if cfg.EventBridge {
		out.EventBridgeConfiguration = &s3Types.EventBridgeConfiguration{}
	}
	return out
}

func filterToS3(rules []entity.FilterRule) *s3Types.NotificationConfigurationFilter {
	if len(rules) == 0 {
		return nil
	}
	key := &s3Types.S3KeyFilter{}
	for _, fr := range rules {
		key.FilterRules = append(key.FilterRules, s3Types.FilterRule{
			Name:  s3Types.FilterRuleName(strings.ToLower(fr.Name)),
			Value: aws.String(fr.Value),
		})
	}
	return &s3Types.NotificationConfigurationFilter{Key: key}
}

func filterFromS3(f *s3Types.NotificationConfigurationFilter) []entity.FilterRule {
	if f == nil || f.Key == nil {
		return nil
	}
	var rules []entity.FilterRule
	for _, fr := range f.Key.FilterRules {
		rules = append(rules, entity.FilterRule{Name: string(fr.Name), Value: aws.ToString(fr.Value)})
	}
	return rules
}

func eventsFromS3(events []s3Types.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, string(e))
	}
	return out
}

func notificationFromS3(out *s3.GetBucketNotificationConfigurationOutput) entity.NotificationConfig {
	var cfg entity.NotificationConfig
	for _, c := range out.LambdaFunctionConfigurations {
		cfg.Targets = append(cfg.Targets, entity.NotificationTarget{
			ID: aws.ToString(c.Id), Kind: "lambda", Arn: aws.ToString(c.LambdaFunctionArn),
			Events: eventsFromS3(c.Events), Filters: filterFromS3(c.Filter),
		})
	}
	for _, c := range out.QueueConfigurations {
		cfg.Targets = append(cfg.Targets, entity.NotificationTarget{
			ID: aws.ToString(c.Id), Kind: "queue", Arn: aws.ToString(c.QueueArn),
			Events: eventsFromS3(c.Events), Filters: filterFromS3(c.Filter),
		})
	}
	for _, c := range out.TopicConfigurations {
		cfg.Targets = append(cfg.Targets, entity.NotificationTarget{
			ID: aws.ToString(c.Id), Kind: "topic", Arn: aws.ToString(c.TopicArn),
			Events: eventsFromS3(c.Events), Filters: filterFromS3(c.Filter),
		})
	}
	cfg.EventBridge = out.EventBridgeConfiguration != nil
	return cfg
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}
