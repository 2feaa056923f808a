package config

import (
	"context"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type logFieldsKey struct{}

var logger = logrus.New()

// SetupLogger applies level and format ("text" or "json") to the shared logger.
func SetupLogger(level, format string) {
	logger.SetOutput(os.Stderr)
	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
}

// Logger returns the shared logger.
func Logger() *logrus.Logger {
	return logger
}

// ContextWithFields attaches log fields that WithContext will pick up.
func ContextWithFields(ctx context.Context, fields logrus.Fields) context.Context {
	merged := logrus.Fields{}
	if existing, ok := ctx.Value(logFieldsKey{}).(logrus.Fields); ok {
		for k, v := range existing {
			merged[k] = v
		}
	}
	for k, v := range fields {
		merged[k] = v
	}
	return context.WithValue(ctx, logFieldsKey{}, merged)
}

// WithContext returns a log entry carrying the fields stored in ctx.
func WithContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(logger)
	if ctx == nil {
		return entry
	}
	if fields, ok := ctx.Value(logFieldsKey{}).(logrus.Fields); ok {
		return entry.WithFields(fields)
	}
	return entry
}
