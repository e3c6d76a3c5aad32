package repository

import (
	"context"
	"time"

	"github.com/diillson/aws-macie-tagger-go/internal/domain/entity"
)

// AWSRepository defines the account-level AWS lookups used by the CLI.
type AWSRepository interface {
	GetAccountID(ctx context.Context) (string, error)
	GetFunctionARN(ctx context.Context, function string) (string, error)
	// EnsureInvokePermission allows S3 to invoke the function for bucket.
	// Repeated calls are no-ops.
	EnsureInvokePermission(ctx context.Context, function, bucket, accountID string) error
	GetFunctionLogs(ctx context.Context, function string, since time.Duration, filter string) ([]entity.HandlerLogEvent, error)
}
