package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFormatFailure(t *testing.T) {
	tests := []struct {
		kind     FailureKind
		subject  string
		code     string
		expected string
	}{
		{FailureCategory, Subject(12, "Lamps"), "UNIQUE", "category '12: Lamps' failed, code: UNIQUE"},
		{FailureProductType, "Bulb", "GRAPHQL_ERROR", "product type 'Bulb' failed, code: GRAPHQL_ERROR"},
		{FailureCreateProduct, Subject(7, "Red lamp"), "REQUIRED", "create product '7: Red lamp' failed, code: REQUIRED"},
		{FailureProduct, Subject(7, "Red lamp"), "INVALID", "product '7: Red lamp' failed, code: INVALID"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatFailure(tt.kind, tt.subject, tt.code))
		})
	}
}

func TestFailureLog_Record(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	fl := NewFailureLogWithCore(core)

	fl.Record(FailureCategory, Subject(3, "Svietidlá"), "UNIQUE")

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "category '3: Svietidlá' failed, code: UNIQUE", logs[0].Message)
}

func TestNewFailureLog_WritesPlainLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0o644))

	fl, err := NewFailureLog(path)
	require.NoError(t, err)

	fl.Record(FailureCategory, Subject(1, "A"), "UNIQUE")
	fl.Record(FailureProduct, Subject(2, "B"), "GRAPHQL_ERROR")
	require.NoError(t, fl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous run\n"+
		"category '1: A' failed, code: UNIQUE\n"+
		"product '2: B' failed, code: GRAPHQL_ERROR\n", string(data))
}

func TestNopFailureLog(t *testing.T) {
	fl := NopFailureLog()
	fl.Record(FailureCategory, "x", "y")
	assert.NoError(t, fl.Close())
}
