package middleware

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/httplog/v3"
)

// NewLogger returns the process logger: JSON in ECS field names.
func NewLogger(service, env string) *slog.Logger {
	format := httplog.SchemaECS.Concise(env != "production")
	level := slog.LevelDebug
	if env == "production" {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: format.ReplaceAttr,
	})).With(
		slog.String("app", service),
		slog.String("env", env),
	)
}

func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	})
}
