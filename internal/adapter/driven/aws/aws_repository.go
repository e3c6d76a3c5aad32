package aws

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdaTypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/diillson/aws-macie-tagger-go/internal/domain/entity"
	"github.com/diillson/aws-macie-tagger-go/internal/domain/repository"
)

// maxLogEvents limita o volume de eventos retornados pelo comando logs.
const maxLogEvents = 1000

// LoadConfig carrega a configuração do SDK. Profile e região vazios usam a
// cadeia padrão (no Lambda: variáveis de ambiente da função).
func LoadConfig(ctx context.Context, profile, region string) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config for profile %q: %w", profile, err)
	}
	return cfg, nil
}

// AWSRepositoryImpl implementa o AWSRepository com cache de clientes.
type AWSRepositoryImpl struct {
	profile     string
	region      string
	cfg         *aws.Config
	clientCache map[string]interface{}
	mu          sync.Mutex
}

// NewAWSRepository cria uma nova implementação do AWSRepository.
func NewAWSRepository(profile, region string) *AWSRepositoryImpl {
	return &AWSRepositoryImpl{
		profile:     profile,
		region:      region,
		clientCache: make(map[string]interface{}),
	}
}

var _ repository.AWSRepository = (*AWSRepositoryImpl)(nil)

func (r *AWSRepositoryImpl) getAWSConfig(ctx context.Context) (aws.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfg != nil {
		return *r.cfg, nil
	}

	cfg, err := LoadConfig(ctx, r.profile, r.region)
	if err != nil {
		return aws.Config{}, err
	}
	r.cfg = &cfg
	return cfg, nil
}

func (r *AWSRepositoryImpl) getServiceClient(ctx context.Context, service string) (interface{}, error) {
	r.mu.Lock()
	if client, ok := r.clientCache[service]; ok {
		r.mu.Unlock()
		return client, nil
	}
	r.mu.Unlock()

	cfg, err := r.getAWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	var client interface{}
	switch service {
	case "sts":
		client = sts.NewFromConfig(cfg)
	case "s3":
		client = s3.NewFromConfig(cfg)
	case "lambda":
		client = lambda.NewFromConfig(cfg)
	case "cloudwatchlogs":
		client = cloudwatchlogs.NewFromConfig(cfg)
	default:
		return nil, fmt.Errorf("unsupported service: %s", service)
	}

	r.mu.Lock()
	r.clientCache[service] = client
	r.mu.Unlock()

	return client, nil
}

// Storage retorna o StorageRepository baseado no cliente S3 em cache.
func (r *AWSRepositoryImpl) Storage(ctx context.Context) (repository.StorageRepository, error) {
	client, err := r.getServiceClient(ctx, "s3")
	if err != nil {
		return nil, err
	}
	return NewS3Repository(client.(*s3.Client)), nil
}

func (r *AWSRepositoryImpl) GetAccountID(ctx context.Context) (string, error) {
	client, err := r.getServiceClient(ctx, "sts")
	if err != nil {
		return "", err
	}
	stsClient := client.(*sts.Client)

	result, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("error getting account ID for profile %s: %w", r.profile, err)
	}
	return aws.ToString(result.Account), nil
}

// GetFunctionARN resolve o nome (ou ARN) da função para o ARN completo.
func (r *AWSRepositoryImpl) GetFunctionARN(ctx context.Context, function string) (string, error) {
	client, err := r.getServiceClient(ctx, "lambda")
	if err != nil {
		return "", err
	}
	lambdaClient := client.(*lambda.Client)

	out, err := lambdaClient.GetFunction(ctx, &lambda.GetFunctionInput{FunctionName: aws.String(function)})
	if err != nil {
		return "", fmt.Errorf("error resolving function %s: %w", function, err)
	}
	if out.Configuration == nil || out.Configuration.FunctionArn == nil {
		return "", fmt.Errorf("function %s has no ARN", function)
	}
	return aws.ToString(out.Configuration.FunctionArn), nil
}

// EnsureInvokePermission adiciona a permissão para o S3 invocar a função.
// Se a statement já existe (ResourceConflictException) não há o que fazer.
func (r *AWSRepositoryImpl) EnsureInvokePermission(ctx context.Context, function, bucket, accountID string) error {
	client, err := r.getServiceClient(ctx, "lambda")
	if err != nil {
		return err
	}
	lambdaClient := client.(*lambda.Client)

	input := &lambda.AddPermissionInput{
		FunctionName: aws.String(function),
		StatementId:  aws.String(invokeStatementID(bucket)),
		Action:       aws.String("lambda:InvokeFunction"),
		Principal:    aws.String("s3.amazonaws.com"),
		SourceArn:    aws.String("arn:aws:s3:::" + bucket),
	}
	if accountID != "" {
		input.SourceAccount = aws.String(accountID)
	}

	_, err = lambdaClient.AddPermission(ctx, input)
	var conflict *lambdaTypes.ResourceConflictException
	if errors.As(err, &conflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error adding invoke permission on %s: %w", function, err)
	}
	return nil
}

func invokeStatementID(bucket string) string {
	return "s3-invoke-" + strings.NewReplacer(".", "-").Replace(bucket)
}

// GetFunctionLogs lê os eventos recentes do log group da função.
func (r *AWSRepositoryImpl) GetFunctionLogs(ctx context.Context, function string, since time.Duration, filter string) ([]entity.HandlerLogEvent, error) {
	client, err := r.getServiceClient(ctx, "cloudwatchlogs")
	if err != nil {
		return nil, err
	}
	cwlClient := client.(*cloudwatchlogs.Client)

	input := &cloudwatchlogs.FilterLogEventsInput{
		LogGroupName: aws.String(logGroupName(function)),
		StartTime:    aws.Int64(time.Now().Add(-since).UnixMilli()),
	}
	if filter != "" {
		input.FilterPattern = aws.String(filter)
	}

	var events []entity.HandlerLogEvent
	p := cloudwatchlogs.NewFilterLogEventsPaginator(cwlClient, input)
	for p.HasMorePages() && len(events) < maxLogEvents {
		page, err := p.NextPage(ctx)
		if err != nil {
			return events, fmt.Errorf("error reading logs of %s: %w", function, err)
		}
		for _, ev := range page.Events {
			events = append(events, entity.HandlerLogEvent{
				Timestamp: time.UnixMilli(aws.ToInt64(ev.Timestamp)).UTC(),
				Stream:    aws.ToString(ev.LogStreamName),
				Message:   strings.TrimRight(aws.ToString(ev.Message), "\n"),
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	if len(events) > maxLogEvents {
		events = events[len(events)-maxLogEvents:]
	}
	return events, nil
}

// logGroupName aceita o nome da função ou o ARN completo.
func logGroupName(function string) string {
	if i := strings.LastIndex(function, ":function:"); i >= 0 {
		function = function[i+len(":function:"):]
		if j := strings.Index(function, ":"); j >= 0 {
			function = function[:j]
		}
	}
	return "/aws/lambda/" + function
}
