package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diillson/aws-macie-tagger-go/internal/shared/types"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"TAG_KEY_NAME", "SCORE_THRESHOLD", "GLACIER_TRANSITION_DAYS", "EXPIRE_OBJECTS_DAYS"} {
		t.Setenv(key, "")
	}

	cfg, err := NewConfigRepository().LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	want := types.DefaultConfig()
	if cfg.Tagger != want.Tagger {
		t.Errorf("Tagger = %+v, want %+v", cfg.Tagger, want.Tagger)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("TAG_KEY_NAME", "Classification")
	t.Setenv("SCORE_THRESHOLD", "Medium")
	t.Setenv("TAG_VALUE_SCHEME", "SCORE")
	t.Setenv("GLACIER_TRANSITION_DAYS", "30")
	t.Setenv("EXPIRE_OBJECTS_DAYS", "90")
	t.Setenv("RECORD_CONCURRENCY", "8")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_EVENT", "true")
	t.Setenv("SERVICE_NAME", "tagger-test")

	cfg, err := NewConfigRepository().LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Tagger.TagKeyName != "Classification" {
		t.Errorf("TagKeyName = %q", cfg.Tagger.TagKeyName)
	}
	if cfg.Tagger.ScoreThreshold != 2 {
		t.Errorf("ScoreThreshold = %d, want 2", cfg.Tagger.ScoreThreshold)
	}
	if cfg.Tagger.TagValueScheme != types.TagValueScore {
		t.Errorf("TagValueScheme = %q", cfg.Tagger.TagValueScheme)
	}
	if cfg.Tagger.GlacierTransitionDays != 30 || cfg.Tagger.ExpireObjectsDays != 90 {
		t.Errorf("days = %d/%d, want 30/90", cfg.Tagger.GlacierTransitionDays, cfg.Tagger.ExpireObjectsDays)
	}
	if cfg.Tagger.RecordConcurrency != 8 {
		t.Errorf("RecordConcurrency = %d", cfg.Tagger.RecordConcurrency)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.LogEvent {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Metrics.Service != "tagger-test" {
		t.Errorf("Service = %q", cfg.Metrics.Service)
	}
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non numeric days", "GLACIER_TRANSITION_DAYS", "a year"},
		{"threshold out of range", "SCORE_THRESHOLD", "5"},
		{"unknown threshold name", "SCORE_THRESHOLD", "Critical"},
		{"bad boolean", "LOG_EVENT", "sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := NewConfigRepository().LoadFromEnv()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q should name %s", err, tt.key)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"tagger.toml": "[tagger]\nscore_threshold = 1\ntag_key_name = \"Risk\"\n",
		"tagger.yaml": "tagger:\n  score_threshold: 1\n  tag_key_name: Risk\n",
		"tagger.json": `{"tagger": {"score_threshold": 1, "tag_key_name": "Risk"}}`,
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}
			base := types.DefaultConfig()
			base.Tagger.GlacierTransitionDays = 60

			cfg, err := NewConfigRepository().LoadConfigFile(path, &base)
			if err != nil {
				t.Fatalf("LoadConfigFile() error = %v", err)
			}
			if cfg.Tagger.ScoreThreshold != 1 || cfg.Tagger.TagKeyName != "Risk" {
				t.Errorf("file values not applied: %+v", cfg.Tagger)
			}
			if cfg.Tagger.GlacierTransitionDays != 60 || cfg.Tagger.ExpireObjectsDays != 1825 {
				t.Errorf("base values lost: %+v", cfg.Tagger)
			}
		})
	}
}

func TestLoadConfigFile_Errors(t *testing.T) {
	dir := t.TempDir()
	repo := NewConfigRepository()

	if _, err := repo.LoadConfigFile(filepath.Join(dir, "missing.toml"), nil); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := repo.LoadConfigFile(dir, nil); err == nil {
		t.Error("expected error for directory")
	}

	ini := filepath.Join(dir, "tagger.ini")
	if err := os.WriteFile(ini, []byte("x=1"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.LoadConfigFile(ini, nil); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected unsupported format error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*types.Config)
		wantErr string
	}{
		{"defaults", func(*types.Config) {}, ""},
		{"empty tag key", func(c *types.Config) { c.Tagger.TagKeyName = "" }, "TagKeyName"},
		{"long tag key", func(c *types.Config) { c.Tagger.TagKeyName = strings.Repeat("k", 129) }, "TagKeyName"},
		{"threshold zero", func(c *types.Config) { c.Tagger.ScoreThreshold = 0 }, "ScoreThreshold"},
		{"expire before transition", func(c *types.Config) { c.Tagger.ExpireObjectsDays = 100 }, "ExpireObjectsDays"},
		{"unknown scheme", func(c *types.Config) { c.Tagger.TagValueScheme = "emoji" }, "TagValueScheme"},
		{"bad log level", func(c *types.Config) { c.Log.Level = "trace" }, "Level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := types.DefaultConfig()
			tt.mutate(&cfg)
			err := NewConfigRepository().Validate(&cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}
