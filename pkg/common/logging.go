package common

import (
	"context"
	"github.com/sirupsen/logrus"
)

type contextKey string

const LogEntryContextKey contextKey = "LogEntryContextKey"

func WithLogEntry(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, LogEntryContextKey, entry)
}

// LogEntry returns the request scoped entry, or a bare one when none was attached.
func LogEntry(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(LogEntryContextKey).(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
