package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/zap"
)

// ZapLoggerAdapter routes watermill logs into a zap logger
type ZapLoggerAdapter struct {
	log *zap.Logger
}

// NewZapLoggerAdapter wraps log for use by watermill publishers
func NewZapLoggerAdapter(log *zap.Logger) watermill.LoggerAdapter {
	return &ZapLoggerAdapter{log: log.Named("watermill")}
}

func (z *ZapLoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	z.log.Error(msg, append(zapFields(fields), zap.Error(err))...)
}

func (z *ZapLoggerAdapter) Info(msg string, fields watermill.LogFields) {
	z.log.Info(msg, zapFields(fields)...)
}

func (z *ZapLoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	z.log.Debug(msg, zapFields(fields)...)
}

// Trace is mapped to debug; zap has no lower level.
func (z *ZapLoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	z.log.Debug(msg, zapFields(fields)...)
}

func (z *ZapLoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &ZapLoggerAdapter{log: z.log.With(zapFields(fields)...)}
}

func zapFields(fields watermill.LogFields) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}
