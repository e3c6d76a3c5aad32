package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/diillson/aws-macie-tagger-go/internal/domain/entity"
	"github.com/diillson/aws-macie-tagger-go/internal/domain/repository"
	"github.com/diillson/aws-macie-tagger-go/internal/shared/types"
)

// GlacierStorageClass é a classe de destino da transição de versões antigas.
const GlacierStorageClass = "GLACIER"

// TaggingUseCase aplica a tag de severidade e a regra de lifecycle aos
// objetos apontados pelos findings do Macie.
type TaggingUseCase struct {
	storage repository.StorageRepository
	cfg     types.TaggerConfig
	log     zerolog.Logger

	// bucketLocks serializa o read-modify-write de lifecycle por bucket
	// entre os objetos processados em paralelo.
	bucketLocks sync.Map
}

// NewTaggingUseCase creates a new tagging use case.
func NewTaggingUseCase(
	storage repository.StorageRepository,
	cfg types.TaggerConfig,
	log zerolog.Logger,
) *TaggingUseCase {
	if cfg.RecordConcurrency < 1 {
		cfg.RecordConcurrency = 1
	}
	return &TaggingUseCase{
		storage: storage,
		cfg:     cfg,
		log:     log,
	}
}

// Config retorna a configuração em uso.
func (uc *TaggingUseCase) Config() types.TaggerConfig {
	return uc.cfg
}

// ProcessObjects processa cada objeto de resultados de forma independente.
// Uma falha em um objeto (ou finding) não impede os demais. O erro retornado
// agrega as falhas que devem causar reentrega da invocação.
func (uc *TaggingUseCase) ProcessObjects(ctx context.Context, refs []entity.ObjectRef) (entity.ProcessReport, error) {
	type result struct {
		outcomes []entity.FindingOutcome
		summary  entity.Summary
		err      error
	}
	results := make([]result, len(refs))

	var g errgroup.Group
	g.SetLimit(uc.cfg.RecordConcurrency)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			outcomes, summary, err := uc.ProcessObject(ctx, ref)
			results[i] = result{outcomes: outcomes, summary: summary, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var (
		report entity.ProcessReport
		errs   []error
	)
	for _, r := range results {
		report.Outcomes = append(report.Outcomes, r.outcomes...)
		report.Summary.Add(r.summary)
		if r.err != nil {
			errs = append(errs, r.err)
		}
	}
	return report, errors.Join(errs...)
}

// ProcessObject lê um objeto de resultados e processa todos os seus findings.
func (uc *TaggingUseCase) ProcessObject(ctx context.Context, src entity.ObjectRef) ([]entity.FindingOutcome, entity.Summary, error) {
	summary := entity.Summary{Records: 1}
	log := uc.log.With().
		Str("bucket", src.Bucket).
		Str("key", src.Key).
		Str("version", src.VersionID).
		Logger()

	log.Debug().Msg("Retrieving object")
	data, err := uc.storage.GetObject(ctx, src)
	if err != nil {
		if errors.Is(err, types.ErrTargetGone) {
			log.Warn().Err(err).Msg("Results object no longer exists, skipping")
			summary.TargetGone++
			return nil, summary, nil
		}
		log.Error().Err(err).Msg("Unable to get object")
		summary.ObjectFailed++
		return nil, summary, fmt.Errorf("error reading %s: %w", src, err)
	}

	records, err := ParseFindings(data)
	if err != nil {
		// Conteúdo ilegível não melhora com reentrega.
		log.Error().Err(err).Msg("Unable to decode results object")
		summary.MalformedRecord++
		return []entity.FindingOutcome{{Source: src, Action: entity.ActionMalformed, Error: err.Error()}}, summary, nil
	}
	if len(records) == 0 {
		log.Warn().Msg("No data found in S3 object")
		summary.EmptyObject++
		return nil, summary, nil
	}

	var (
		outcomes = make([]entity.FindingOutcome, 0, len(records))
		errs     []error
	)
	for _, rec := range records {
		if rec.Err != nil {
			log.Warn().Err(rec.Err).Int("line", rec.Line).Msg("Skipping malformed finding record")
			summary.MalformedRecord++
			outcomes = append(outcomes, entity.FindingOutcome{
				Source: src,
				Line:   rec.Line,
				Action: entity.ActionMalformed,
				Error:  rec.Err.Error(),
			})
			continue
		}

		summary.Findings++
		outcome, err := uc.ProcessFinding(ctx, rec.Finding, &summary)
		outcome.Source = src
		outcome.Line = rec.Line
		outcomes = append(outcomes, outcome)
		if err != nil {
			errs = append(errs, err)
		}
	}

	log.Info().
		Int("findings", summary.Findings).
		Int("tagged", summary.TaggingSuccess).
		Int("skipped", summary.TaggingSkipped).
		Int("failed", summary.TaggingFailed+summary.LifecycleFailed).
		Msg("Processed results object")

	return outcomes, summary, errors.Join(errs...)
}

// ProcessFinding decide e aplica as mutações para um único finding.
// Reaplicar o mesmo finding é seguro: tag e regra convergem para o mesmo estado.
func (uc *TaggingUseCase) ProcessFinding(ctx context.Context, f entity.Finding, summary *entity.Summary) (entity.FindingOutcome, error) {
	outcome := entity.FindingOutcome{Finding: f}

	if !f.HasTarget() {
		uc.log.Warn().Str("finding_id", f.ID).Msg("No resourcesAffected found in Macie event")
		summary.MissingResources++
		outcome.Action = entity.ActionMissing
		outcome.Error = types.ErrMissingResources.Error()
		return outcome, nil
	}

	log := uc.log.With().
		Str("bucket", f.Target.Bucket).
		Str("key", f.Target.Key).
		Str("version", f.Target.VersionID).
		Str("finding_type", f.Type).
		Logger()

	if !f.Severity.IsKnown() {
		log.Warn().Str("severity", f.RawSeverity).Msg("Unknown severity, treating as below threshold")
		summary.UnknownSeverity++
		summary.TaggingSkipped++
		outcome.Action = entity.ActionSkipped
		return outcome, nil
	}

	if !f.Severity.AtLeast(uc.cfg.ScoreThreshold) {
		log.Debug().Msgf("%d (%s) < %d, skipping", f.Severity.Score(), f.Severity, uc.cfg.ScoreThreshold)
		summary.TaggingSkipped++
		outcome.Action = entity.ActionSkipped
		return outcome, nil
	}

	log.Info().Msgf("%d (%s) >= %d, adding tag and lifecycle policy", f.Severity.Score(), f.Severity, uc.cfg.ScoreThreshold)

	var errs []error
	gone, skipLifecycle := false, false

	tag := entity.Tag{Key: uc.cfg.TagKeyName, Value: uc.TagValue(f.Severity)}
	changed, err := uc.storage.SetObjectTag(ctx, f.Target, tag)
	switch {
	case errors.Is(err, types.ErrTargetGone):
		log.Warn().Err(err).Msg("Flagged object no longer exists, skipping")
		summary.TargetGone++
		outcome.Action = entity.ActionGone
		outcome.Error = err.Error()
		gone = true
	case errors.Is(err, types.ErrTagLimit):
		// não há como gravar a tag sem remover as do dono do objeto
		log.Warn().Err(err).Msgf("Unable to add %s tag, object tag limit reached", uc.cfg.TagKeyName)
		summary.TagLimit++
		outcome.Action = entity.ActionTagLimit
		outcome.Error = err.Error()
		skipLifecycle = true
	case err != nil:
		log.Error().Err(err).Msgf("Unable to add %s tag", uc.cfg.TagKeyName)
		summary.TaggingFailed++
		errs = append(errs, fmt.Errorf("error tagging %s: %w", f.Target, err))
	default:
		log.Debug().Bool("changed", changed).Msgf("Successfully added %s tag", uc.cfg.TagKeyName)
		summary.TaggingSuccess++
		outcome.TagChanged = changed
	}

	if !gone && !skipLifecycle {
		rule := uc.LifecycleRuleFor(f.Target.Key)
		changed, err = uc.upsertLifecycleRule(ctx, f.Target.Bucket, rule)
		switch {
		case errors.Is(err, types.ErrTargetGone):
			log.Warn().Err(err).Msg("Flagged bucket no longer exists, skipping")
			summary.TargetGone++
			outcome.Action = entity.ActionGone
			outcome.Error = err.Error()
			gone = true
		case err != nil:
			log.Error().Err(err).Msg("Unable to add lifecycle configuration")
			summary.LifecycleFailed++
			errs = append(errs, fmt.Errorf("error updating lifecycle of %s: %w", f.Target.Bucket, err))
		default:
			log.Debug().Bool("changed", changed).Str("rule_id", rule.ID).Msg("Successfully added lifecycle configuration")
			summary.LifecycleUpdated++
			outcome.LifecycleChanged = changed
		}
	}

	err = errors.Join(errs...)
	switch {
	case err != nil:
		outcome.Action = entity.ActionFailed
		outcome.Error = err.Error()
	case gone, skipLifecycle:
		// ActionGone ou ActionTagLimit já definidos acima
	case outcome.TagChanged || outcome.LifecycleChanged:
		outcome.Action = entity.ActionTagged
	default:
		outcome.Action = entity.ActionUnchanged
	}
	return outcome, err
}

func (uc *TaggingUseCase) upsertLifecycleRule(ctx context.Context, bucket string, rule entity.LifecycleRule) (bool, error) {
	mu, _ := uc.bucketLocks.LoadOrStore(bucket, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()
	return uc.storage.UpsertLifecycleRule(ctx, bucket, rule)
}

// TagValue formata o valor da tag conforme o esquema configurado.
func (uc *TaggingUseCase) TagValue(sev entity.Severity) string {
	if uc.cfg.TagValueScheme == types.TagValueScore {
		return strconv.Itoa(sev.Score())
	}
	return sev.String()
}

// LifecycleRuleFor monta a regra gerenciada para a chave sinalizada. A regra é
// igual para todas as severidades.
func (uc *TaggingUseCase) LifecycleRuleFor(key string) entity.LifecycleRule {
	return entity.LifecycleRule{
		ID:             RuleID(uc.cfg.LifecycleRulePrefix, key),
		Prefix:         key,
		Enabled:        true,
		TransitionDays: uc.cfg.GlacierTransitionDays,
		StorageClass:   GlacierStorageClass,
		ExpirationDays: uc.cfg.ExpireObjectsDays,
	}
}

// RuleID deriva um ID estável (<= 255 caracteres) a partir da chave.
func RuleID(prefix, key string) string {
	sum := sha256.Sum256([]byte(key))
	return prefix + hex.EncodeToString(sum[:12])
}
