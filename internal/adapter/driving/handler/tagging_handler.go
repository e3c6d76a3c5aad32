// Package handler adapta os eventos do Lambda aos casos de uso.
package handler

import (
	"context"
	"encoding/json"
	"net/url"
	"sync/atomic"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"github.com/diillson/aws-macie-tagger-go/internal/application/usecase"
	"github.com/diillson/aws-macie-tagger-go/internal/domain/entity"
	"github.com/diillson/aws-macie-tagger-go/internal/domain/repository"
	"github.com/diillson/aws-macie-tagger-go/internal/shared/logger"
)

// TaggingHandler recebe as notificações de objetos criados no bucket de
// resultados.
type TaggingHandler struct {
	tagger    *usecase.TaggingUseCase
	metrics   repository.MetricsRepository
	log       zerolog.Logger
	logEvent  bool
	coldStart atomic.Bool
}

// NewTaggingHandler cria o handler. A primeira invocação é marcada como cold start.
func NewTaggingHandler(tagger *usecase.TaggingUseCase, metrics repository.MetricsRepository, log zerolog.Logger, logEvent bool) *TaggingHandler {
	h := &TaggingHandler{
		tagger:   tagger,
		metrics:  metrics,
		log:      log,
		logEvent: logEvent,
	}
	h.coldStart.Store(true)
	return h
}

// Handle processa todos os registros do evento. Um erro retornado faz o
// Lambda reentregar o evento inteiro; as mutações são idempotentes.
func (h *TaggingHandler) Handle(ctx context.Context, event events.S3Event) (entity.Summary, error) {
	log := logger.WithLambdaContext(ctx, h.log)

	if h.coldStart.Swap(false) {
		h.metrics.RecordColdStart()
	}
	if h.logEvent {
		if raw, err := json.Marshal(event); err == nil {
			log.Info().RawJSON("event", raw).Msg("Received event")
		}
	}

	refs := ObjectRefs(event, log)
	log.Info().Msgf("Found %d records in event", len(refs))

	report, err := h.tagger.ProcessObjects(ctx, refs)
	h.metrics.RecordSummary(report.Summary)
	if ferr := h.metrics.Flush(); ferr != nil {
		log.Warn().Err(ferr).Msg("Unable to publish metrics")
	}

	if err != nil {
		log.Error().Err(err).Msg("Invocation finished with errors")
		return report.Summary, err
	}
	return report.Summary, nil
}

// ObjectRefs extrai os objetos do evento. As chaves chegam codificadas como
// em formulários (espaço vira '+').
func ObjectRefs(event events.S3Event, log zerolog.Logger) []entity.ObjectRef {
	refs := make([]entity.ObjectRef, 0, len(event.Records))
	for _, record := range event.Records {
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			log.Warn().Err(err).Str("key", record.S3.Object.Key).Msg("Unable to decode object key, using raw key")
			key = record.S3.Object.Key
		}
		refs = append(refs, entity.ObjectRef{
			Bucket:    record.S3.Bucket.Name,
			Key:       key,
			VersionID: record.S3.Object.VersionID,
		})
	}
	return refs
}
