// Package logger configura o zerolog usado pelos handlers e pelo CLI.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog"

	"github.com/diillson/aws-macie-tagger-go/internal/shared/types"
)

// New cria um logger a partir da configuração. A saída padrão é stdout, que
// no Lambda vai direto para o CloudWatch Logs.
func New(cfg types.LogConfig, service string) zerolog.Logger {
	return NewWithWriter(cfg, service, os.Stdout)
}

// NewWithWriter é como New, mas escreve em w.
func NewWithWriter(cfg types.LogConfig, service string, w io.Writer) zerolog.Logger {
	out := w
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}

// parseLevel converts string to zerolog level
func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithLambdaContext anexa o request id e o nome da função, quando presentes.
func WithLambdaContext(ctx context.Context, log zerolog.Logger) zerolog.Logger {
	lc, ok := lambdacontext.FromContext(ctx)
	if !ok {
		return log
	}
	return log.With().
		Str("aws_request_id", lc.AwsRequestID).
		Str("function_name", lambdacontext.FunctionName).
		Logger()
}
