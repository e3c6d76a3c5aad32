package types

// TaggerConfig é a configuração do handler de tagging. É carregada uma única
// vez (cold start) e passada explicitamente ao caso de uso.
type TaggerConfig struct {
	TagKeyName            string `json:"tag_key_name" yaml:"tag_key_name" toml:"tag_key_name" validate:"required,max=128"`
	ScoreThreshold        int    `json:"score_threshold" yaml:"score_threshold" toml:"score_threshold" validate:"min=1,max=3"`
	TagValueScheme        string `json:"tag_value_scheme" yaml:"tag_value_scheme" toml:"tag_value_scheme" validate:"oneof=description score"`
	GlacierTransitionDays int32  `json:"glacier_transition_days" yaml:"glacier_transition_days" toml:"glacier_transition_days" validate:"min=1"`
	ExpireObjectsDays     int32  `json:"expire_objects_days" yaml:"expire_objects_days" toml:"expire_objects_days" validate:"gtfield=GlacierTransitionDays"`
	LifecycleRulePrefix   string `json:"lifecycle_rule_prefix" yaml:"lifecycle_rule_prefix" toml:"lifecycle_rule_prefix" validate:"required,max=200"`
	RecordConcurrency     int    `json:"record_concurrency" yaml:"record_concurrency" toml:"record_concurrency" validate:"min=1,max=64"`
}

// LogConfig controla o logger estruturado.
type LogConfig struct {
	Level    string `json:"level" yaml:"level" toml:"level" validate:"oneof=debug info warn error"`
	Format   string `json:"format" yaml:"format" toml:"format" validate:"oneof=json console"`
	LogEvent bool   `json:"log_event" yaml:"log_event" toml:"log_event"`
}

// MetricsConfig define o namespace do CloudWatch (EMF).
type MetricsConfig struct {
	Namespace string `json:"namespace" yaml:"namespace" toml:"namespace" validate:"required"`
	Service   string `json:"service" yaml:"service" toml:"service" validate:"required"`
}

// Config agrega toda a configuração da aplicação, seja no Lambda (env) ou no
// CLI (env + arquivo + flags).
type Config struct {
	Tagger  TaggerConfig  `json:"tagger" yaml:"tagger" toml:"tagger"`
	Log     LogConfig     `json:"log" yaml:"log" toml:"log"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics" toml:"metrics"`
}

// DefaultConfig retorna os valores padrão.
func DefaultConfig() Config {
	return Config{
		Tagger: TaggerConfig{
			TagKeyName:            "Severity",
			ScoreThreshold:        3,
			TagValueScheme:        TagValueDescription,
			GlacierTransitionDays: 365,
			ExpireObjectsDays:     1825,
			LifecycleRulePrefix:   "macie-severity-",
			RecordConcurrency:     4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Namespace: "MacieTagger",
			Service:   "macie-tagger",
		},
	}
}

const (
	// TagValueDescription grava a descrição da severidade (ex.: "Medium").
	TagValueDescription = "description"
	// TagValueScore grava a pontuação (ex.: "2").
	TagValueScore = "score"
)
