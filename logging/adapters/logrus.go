// Package adapters wraps popular logging libraries so they satisfy
// logging.Logger, letting callers plug their existing logger into the
// buffer pool without writing boilerplate.
package adapters

import (
	"github.com/sirupsen/logrus"

	"github.com/coredb/bufferpool/logging"
)

// Logrus wraps a *logrus.Logger to implement logging.Logger.
type Logrus struct {
	logger *logrus.Logger
}

// NewLogrus creates a logging.Logger from a *logrus.Logger.
func NewLogrus(logger *logrus.Logger) logging.Logger {
	return &Logrus{logger: logger}
}

func (l *Logrus) Info(msg string, args ...any) {
	l.logger.WithFields(argsToFields(args)).Info(msg)
}

func (l *Logrus) Warn(msg string, args ...any) {
	l.logger.WithFields(argsToFields(args)).Warn(msg)
}

func (l *Logrus) Error(msg string, args ...any) {
	l.logger.WithFields(argsToFields(args)).Error(msg)
}

func argsToFields(args []any) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i < len(args)-1; i += 2 {
		if key, ok := args[i].(string); ok {
			fields[key] = args[i+1]
		}
	}
	return fields
}
