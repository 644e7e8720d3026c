package oplog

import (
	"context"

	"github.com/MarkoPoloResearchLab/hospedagem/pkg/booking"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const messageOperation = "booking operation"

// ZapLogger writes booking operation logs through zap. The level follows the
// error kind: rejected input and busy locks stay at info, internal failures
// go to error.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger wraps logger. A nil logger discards entries.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{logger: logger}
}

// LogOperation implements booking.OperationLogger.
func (zapLogger *ZapLogger) LogOperation(_ context.Context, entry booking.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
		zap.Time("occurred_at", entry.OccurredAt),
	}
	if entry.ReservationID != "" {
		fields = append(fields, zap.String("reservation_id", entry.ReservationID))
	}
	if entry.Room != "" {
		fields = append(fields, zap.String("room", entry.Room))
	}
	if entry.Operator != "" {
		fields = append(fields, zap.String("operator", entry.Operator))
	}
	if entry.ReservationStatus != "" {
		fields = append(fields, zap.String("reservation_status", entry.ReservationStatus.String()))
	}
	if entry.StayStatus != "" {
		fields = append(fields, zap.String("stay_status", entry.StayStatus.String()))
	}
	if entry.PointsCredited != 0 {
		fields = append(fields, zap.Int64("points", entry.PointsCredited))
	}
	if entry.Replayed {
		fields = append(fields, zap.Bool("replayed", true))
	}
	if entry.Error != nil {
		fields = append(fields, zap.Error(entry.Error), zap.String("error_kind", string(booking.KindOf(entry.Error))))
	}
	zapLogger.logger.Log(levelFor(entry), messageOperation, fields...)
}

func levelFor(entry booking.OperationLog) zapcore.Level {
	if entry.Error == nil {
		return zapcore.InfoLevel
	}
	switch booking.KindOf(entry.Error) {
	case booking.KindBusy, booking.KindValidation:
		return zapcore.InfoLevel
	case booking.KindInternal, booking.KindConsistency:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// Multi fans one operation log out to several loggers.
type Multi []booking.OperationLogger

// LogOperation implements booking.OperationLogger.
func (loggers Multi) LogOperation(ctx context.Context, entry booking.OperationLog) {
	for _, logger := range loggers {
		if logger != nil {
			logger.LogOperation(ctx, entry)
		}
	}
}
