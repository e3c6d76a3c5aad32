package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/diillson/aws-macie-tagger-go/internal/domain/entity"
	"github.com/diillson/aws-macie-tagger-go/internal/domain/repository"
	"github.com/diillson/aws-macie-tagger-go/internal/shared/types"
)

// ConfigRepositoryImpl implementa o ConfigRepository.
type ConfigRepositoryImpl struct {
	validate *validator.Validate
}

// NewConfigRepository cria uma nova implementação do ConfigRepository.
func NewConfigRepository() repository.ConfigRepository {
	return &ConfigRepositoryImpl{validate: validator.New()}
}

// LoadFromEnv monta a configuração a partir das variáveis de ambiente,
// partindo dos valores padrão. Um arquivo .env é lido quando existir.
func (r *ConfigRepositoryImpl) LoadFromEnv() (*types.Config, error) {
	_ = godotenv.Load()

	cfg := types.DefaultConfig()
	var errs []error

	cfg.Tagger.TagKeyName = getEnv("TAG_KEY_NAME", cfg.Tagger.TagKeyName)
	if v, ok := os.LookupEnv("SCORE_THRESHOLD"); ok && strings.TrimSpace(v) != "" {
		threshold, err := entity.ParseThreshold(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SCORE_THRESHOLD: %w", err))
		}
		cfg.Tagger.ScoreThreshold = threshold
	}
	cfg.Tagger.TagValueScheme = strings.ToLower(getEnv("TAG_VALUE_SCHEME", cfg.Tagger.TagValueScheme))
	cfg.Tagger.GlacierTransitionDays = getEnvAsInt32("GLACIER_TRANSITION_DAYS", cfg.Tagger.GlacierTransitionDays, &errs)
	cfg.Tagger.ExpireObjectsDays = getEnvAsInt32("EXPIRE_OBJECTS_DAYS", cfg.Tagger.ExpireObjectsDays, &errs)
	cfg.Tagger.LifecycleRulePrefix = getEnv("LIFECYCLE_RULE_PREFIX", cfg.Tagger.LifecycleRulePrefix)
	cfg.Tagger.RecordConcurrency = int(getEnvAsInt32("RECORD_CONCURRENCY", int32(cfg.Tagger.RecordConcurrency), &errs))

	cfg.Log.Level = strings.ToLower(getEnv("LOG_LEVEL", cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(getEnv("LOG_FORMAT", cfg.Log.Format))
	cfg.Log.LogEvent = getEnvAsBool("LOG_EVENT", cfg.Log.LogEvent, &errs)

	cfg.Metrics.Namespace = getEnv("METRICS_NAMESPACE", cfg.Metrics.Namespace)
	cfg.Metrics.Service = getEnv("SERVICE_NAME", cfg.Metrics.Service)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfigFile carrega um arquivo de configuração TOML, YAML ou JSON e
// aplica os valores definidos sobre base.
func (r *ConfigRepositoryImpl) LoadConfigFile(filePath string, base *types.Config) (*types.Config, error) {
	fileExtension := filepath.Ext(filePath)
	fileExtension = strings.ToLower(fileExtension)

	// Verifica se o arquivo existe
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error accessing config file: %w", err)
	}

	if fileInfo.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", filePath)
	}

	// Lê o arquivo
	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var fileConfig types.Config

	switch fileExtension {
	case ".toml":
		if err := toml.Unmarshal(fileData, &fileConfig); err != nil {
			return nil, fmt.Errorf("error parsing TOML file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(fileData, &fileConfig); err != nil {
			return nil, fmt.Errorf("error parsing YAML file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(fileData, &fileConfig); err != nil {
			return nil, fmt.Errorf("error parsing JSON file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", fileExtension)
	}

	merged := types.DefaultConfig()
	if base != nil {
		merged = *base
	}
	overlay(&merged, fileConfig)
	return &merged, nil
}

// Validate verifica os limites de cada campo.
func (r *ConfigRepositoryImpl) Validate(cfg *types.Config) error {
	if cfg == nil {
		return errors.New("configuration is nil")
	}
	if err := r.validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// overlay copia para dst apenas os campos preenchidos em src.
func overlay(dst *types.Config, src types.Config) {
	setString(&dst.Tagger.TagKeyName, src.Tagger.TagKeyName)
	setInt(&dst.Tagger.ScoreThreshold, src.Tagger.ScoreThreshold)
	setString(&dst.Tagger.TagValueScheme, src.Tagger.TagValueScheme)
	setInt32(&dst.Tagger.GlacierTransitionDays, src.Tagger.GlacierTransitionDays)
	setInt32(&dst.Tagger.ExpireObjectsDays, src.Tagger.ExpireObjectsDays)
	setString(&dst.Tagger.LifecycleRulePrefix, src.Tagger.LifecycleRulePrefix)
	setInt(&dst.Tagger.RecordConcurrency, src.Tagger.RecordConcurrency)

	setString(&dst.Log.Level, src.Log.Level)
	setString(&dst.Log.Format, src.Log.Format)
	if src.Log.LogEvent {
		dst.Log.LogEvent = true
	}

	setString(&dst.Metrics.Namespace, src.Metrics.Namespace)
	setString(&dst.Metrics.Service, src.Metrics.Service)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setInt32(dst *int32, v int32) {
	if v != 0 {
		*dst = v
	}
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32, errs *[]error) int32 {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 32)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, value))
		return defaultValue
	}
	return int32(n)
}

func getEnvAsBool(key string, defaultValue bool, errs *[]error) bool {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid boolean %q", key, value))
		return defaultValue
	}
	return b
}
