package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/rs/zerolog"

	"github.com/diillson/aws-macie-tagger-go/internal/application/usecase"
	"github.com/diillson/aws-macie-tagger-go/internal/domain/entity"
	"github.com/diillson/aws-macie-tagger-go/internal/shared/logger"
	"github.com/diillson/aws-macie-tagger-go/internal/shared/types"
)

// RegistrarHandler atende o recurso customizado do CloudFormation que
// registra as notificações do bucket de resultados.
type RegistrarHandler struct {
	registrar *usecase.RegistrarUseCase
	log       zerolog.Logger
	logEvent  bool
}

func NewRegistrarHandler(registrar *usecase.RegistrarUseCase, log zerolog.Logger, logEvent bool) *RegistrarHandler {
	return &RegistrarHandler{registrar: registrar, log: log, logEvent: logEvent}
}

// Propriedades no mesmo formato do NotificationConfiguration do S3.
type resourceProperties struct {
	BucketName                string                     `json:"BucketName"`
	NotificationConfiguration *notificationConfiguration `json:"NotificationConfiguration"`
}

type notificationConfiguration struct {
	LambdaFunctionConfigurations []targetConfiguration `json:"LambdaFunctionConfigurations"`
	QueueConfigurations          []targetConfiguration `json:"QueueConfigurations"`
	TopicConfigurations          []targetConfiguration `json:"TopicConfigurations"`
	EventBridgeConfiguration     *struct{}             `json:"EventBridgeConfiguration"`
}

type targetConfiguration struct {
	ID                string   `json:"Id"`
	LambdaFunctionArn string   `json:"LambdaFunctionArn"`
	QueueArn          string   `json:"QueueArn"`
	TopicArn          string   `json:"TopicArn"`
	Events            []string `json:"Events"`
	Filter            *struct {
		Key struct {
			FilterRules []struct {
				Name  string `json:"Name"`
				Value string `json:"Value"`
			} `json:"FilterRules"`
		} `json:"Key"`
	} `json:"Filter"`
}

// Handle implementa cfn.CustomResourceFunction.
func (h *RegistrarHandler) Handle(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	log := logger.WithLambdaContext(ctx, h.log).With().
		Str("request_type", string(event.RequestType)).
		Str("logical_resource_id", event.LogicalResourceID).
		Logger()
	if h.logEvent {
		if raw, err := json.Marshal(event); err == nil {
			log.Info().RawJSON("event", raw).Msg("Received event")
		}
	}

	props, err := parseProperties(event.ResourceProperties)
	if err != nil {
		return event.PhysicalResourceID, nil, err
	}

	switch event.RequestType {
	case cfn.RequestCreate, cfn.RequestUpdate:
		cfg, err := props.toEntity()
		if err != nil {
			return event.PhysicalResourceID, nil, err
		}
		physicalID, err := h.registrar.Register(ctx, props.BucketName, cfg)
		if err != nil {
			return event.PhysicalResourceID, nil, err
		}
		return physicalID, map[string]interface{}{"BucketName": props.BucketName}, nil

	case cfn.RequestDelete:
		// Um Create que falhou não chegou a gravar nada.
		if !strings.HasPrefix(event.PhysicalResourceID, usecase.PhysicalIDPrefix+"-") {
			log.Info().Str("physical_resource_id", event.PhysicalResourceID).Msg("Resource was never created, nothing to delete")
			return event.PhysicalResourceID, nil, nil
		}
		err := h.registrar.Unregister(ctx, props.BucketName)
		if errors.Is(err, types.ErrTargetGone) {
			log.Warn().Err(err).Msg("Bucket no longer exists, nothing to delete")
			return event.PhysicalResourceID, nil, nil
		}
		return event.PhysicalResourceID, nil, err

	default:
		return event.PhysicalResourceID, nil, fmt.Errorf("unsupported request type %q", event.RequestType)
	}
}

func parseProperties(raw map[string]interface{}) (resourceProperties, error) {
	var props resourceProperties
	data, err := json.Marshal(raw)
	if err != nil {
		return props, fmt.Errorf("error encoding resource properties: %w", err)
	}
	if err := json.Unmarshal(data, &props); err != nil {
		return props, fmt.Errorf("invalid resource properties: %w", err)
	}
	return props, nil
}

func (p resourceProperties) toEntity() (entity.NotificationConfig, error) {
	var cfg entity.NotificationConfig
	if p.NotificationConfiguration == nil {
		return cfg, types.ErrMissingNotificationConfig
	}
	n := p.NotificationConfiguration

	add := func(kind string, c targetConfiguration, arn string) error {
		if arn == "" {
			return fmt.Errorf("%s notification %q has no target ARN", kind, c.ID)
		}
		target := entity.NotificationTarget{ID: c.ID, Kind: kind, Arn: arn, Events: c.Events}
		if c.Filter != nil {
			for _, fr := range c.Filter.Key.FilterRules {
				target.Filters = append(target.Filters, entity.FilterRule{Name: fr.Name, Value: fr.Value})
			}
		}
		cfg.Targets = append(cfg.Targets, target)
		return nil
	}

	for _, c := range n.LambdaFunctionConfigurations {
		if err := add("lambda", c, c.LambdaFunctionArn); err != nil {
			return cfg, err
		}
	}
	for _, c := range n.QueueConfigurations {
		if err := add("queue", c, c.QueueArn); err != nil {
			return cfg, err
		}
	}
	for _, c := range n.TopicConfigurations {
		if err := add("topic", c, c.TopicArn); err != nil {
			return cfg, err
		}
	}
	cfg.EventBridge = n.EventBridgeConfiguration != nil
	return cfg, nil
}
