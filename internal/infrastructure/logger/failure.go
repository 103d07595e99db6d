package logger

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FailureKind names the entity whose remote creation failed
type FailureKind string

const (
	FailureCategory      FailureKind = "category"
	FailureProductType   FailureKind = "product type"
	FailureCreateProduct FailureKind = "create product"
	FailureProduct       FailureKind = "product"
)

// FailureLog records one plain line per terminal remote failure:
//
//	category '12: Lamps' failed, code: UNIQUE
type FailureLog struct {
	logger *zap.Logger
	file   io.Closer
}

// NewFailureLog opens (or appends to) the failure log file at path
func NewFailureLog(path string) (*FailureLog, error) {
	file, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	fl := NewFailureLogWithCore(zapcore.NewCore(messageOnlyEncoder(), zapcore.AddSync(file), zapcore.InfoLevel))
	fl.file = file
	return fl, nil
}

// NewFailureLogWithCore builds a failure log over an existing zap core
func NewFailureLogWithCore(core zapcore.Core) *FailureLog {
	return &FailureLog{logger: zap.New(core)}
}

// NopFailureLog returns a failure log that discards every line
func NopFailureLog() *FailureLog {
	return &FailureLog{logger: zap.NewNop()}
}

func messageOnlyEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey: "msg",
		LineEnding: zapcore.DefaultLineEnding,
	})
}

// Subject formats an entity as "<id>: <name>"
func Subject(id uint32, name string) string {
	return fmt.Sprintf("%d: %s", id, name)
}

// Record writes one failure line
func (f *FailureLog) Record(kind FailureKind, subject, code string) {
	f.logger.Info(FormatFailure(kind, subject, code))
}

// FormatFailure renders a failure line without the trailing newline
func FormatFailure(kind FailureKind, subject, code string) string {
	return fmt.Sprintf("%s '%s' failed, code: %s", kind, subject, code)
}

// Close flushes buffered lines and closes the underlying file
func (f *FailureLog) Close() error {
	_ = f.logger.Sync()
	if f.file == nil {
		return nil
	}
	return f.file.Close()
}
