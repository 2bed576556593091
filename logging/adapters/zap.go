package adapters

import (
	"go.uber.org/zap"

	"github.com/coredb/bufferpool/logging"
)

// Zap wraps a *zap.Logger to implement logging.Logger.
type Zap struct {
	logger *zap.Logger
}

// NewZap creates a logging.Logger from a *zap.Logger.
func NewZap(logger *zap.Logger) logging.Logger {
	return &Zap{logger: logger}
}

func (z *Zap) Info(msg string, args ...any) {
	z.logger.Sugar().Infow(msg, args...)
}

func (z *Zap) Warn(msg string, args ...any) {
	z.logger.Sugar().Warnw(msg, args...)
}

func (z *Zap) Error(msg string, args ...any) {
	z.logger.Sugar().Errorw(msg, args...)
}
