package repository

import (
	"github.com/diillson/aws-macie-tagger-go/internal/shared/types"
)

// ConfigRepository defines the interface for loading configuration.
type ConfigRepository interface {
	LoadFromEnv() (*types.Config, error)
	LoadConfigFile(filePath string, base *types.Config) (*types.Config, error)
	Validate(cfg *types.Config) error
}
