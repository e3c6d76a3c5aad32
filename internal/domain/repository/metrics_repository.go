package repository

import "github.com/diillson/aws-macie-tagger-go/internal/domain/entity"

// MetricsRepository publishes invocation counters.
type MetricsRepository interface {
	RecordSummary(summary entity.Summary)
	RecordColdStart()
	Flush() error
}
