package entity

// Action é o resultado do processamento de um finding.
type Action string

const (
	ActionTagged    Action = "tagged"
	ActionUnchanged Action = "unchanged" // tag e regra já estavam aplicadas
	ActionSkipped   Action = "skipped"   // abaixo do threshold
	ActionFailed    Action = "failed"
	ActionMalformed Action = "malformed"
	ActionMissing   Action = "missing_resources"
	ActionGone      Action = "target_gone"
	ActionTagLimit  Action = "tag_limit" // objeto já tem 10 tags de outras chaves
)

// FindingOutcome registra o que aconteceu com um finding.
type FindingOutcome struct {
	Source           ObjectRef `json:"source"`
	Line             int       `json:"line"`
	Finding          Finding   `json:"finding"`
	Action           Action    `json:"action"`
	TagChanged       bool      `json:"tag_changed"`
	LifecycleChanged bool      `json:"lifecycle_changed"`
	Error            string    `json:"error,omitempty"`
}

// Summary conta os resultados de uma invocação. Os nomes dos campos
// correspondem às métricas publicadas.
type Summary struct {
	Records          int `json:"records"`
	Findings         int `json:"findings"`
	TaggingSuccess   int `json:"tagging_success"`
	TaggingSkipped   int `json:"tagging_skipped"`
	TaggingFailed    int `json:"tagging_failed"`
	LifecycleUpdated int `json:"lifecycle_updated"`
	LifecycleFailed  int `json:"lifecycle_failed"`
	EmptyObject      int `json:"empty_object"`
	MissingResources int `json:"missing_resources"`
	MalformedRecord  int `json:"malformed_record"`
	UnknownSeverity  int `json:"unknown_severity"`
	TargetGone       int `json:"target_gone"`
	ObjectFailed     int `json:"object_failed"`
	TagLimit         int `json:"tag_limit"`
}

// Add soma outro resumo a este.
func (s *Summary) Add(o Summary) {
	s.Records += o.Records
	s.Findings += o.Findings
	s.TaggingSuccess += o.TaggingSuccess
	s.TaggingSkipped += o.TaggingSkipped
	s.TaggingFailed += o.TaggingFailed
	s.LifecycleUpdated += o.LifecycleUpdated
	s.LifecycleFailed += o.LifecycleFailed
	s.EmptyObject += o.EmptyObject
	s.MissingResources += o.MissingResources
	s.MalformedRecord += o.MalformedRecord
	s.UnknownSeverity += o.UnknownSeverity
	s.TargetGone += o.TargetGone
	s.ObjectFailed += o.ObjectFailed
	s.TagLimit += o.TagLimit
}

// Counters retorna os contadores no formato nome->valor usado pelas métricas.
func (s Summary) Counters() map[string]int {
	return map[string]int{
		"TaggingSuccess":   s.TaggingSuccess,
		"TaggingSkipped":   s.TaggingSkipped,
		"TaggingFailed":    s.TaggingFailed,
		"LifecycleUpdated": s.LifecycleUpdated,
		"LifecycleFailed":  s.LifecycleFailed,
		"EmptyObject":      s.EmptyObject,
		"MissingResources": s.MissingResources,
		"MalformedRecord":  s.MalformedRecord,
		"UnknownSeverity":  s.UnknownSeverity,
		"TargetGone":       s.TargetGone,
		"ObjectFailed":     s.ObjectFailed,
		"TagLimitExceeded": s.TagLimit,
	}
}

// ProcessReport é o resultado completo de um processamento (usado pelo CLI e
// pelos exports).
type ProcessReport struct {
	AccountID string           `json:"account_id,omitempty"`
	DryRun    bool             `json:"dry_run"`
	Summary   Summary          `json:"summary"`
	Outcomes  []FindingOutcome `json:"outcomes"`
}

// Merge acrescenta outro relatório a este.
func (r *ProcessReport) Merge(o ProcessReport) {
	r.Outcomes = append(r.Outcomes, o.Outcomes...)
	r.Summary.Add(o.Summary)
}
