package logging

import (
	"bytes"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type errorCloser struct {
	err error
}

func (e *errorCloser) Close() error {
	return e.err
}

type mockTransaction struct {
	rollbackErr error
}

func (m *mockTransaction) Rollback() error {
	return m.rollbackErr
}

func TestSafeCloseWithLogging(t *testing.T) {
	t.Run("logs close failures", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		SafeCloseWithLogging(&errorCloser{err: assert.AnError}, logger, "database_rows")

		output := buf.String()
		assert.Contains(t, output, `"level":"ERROR"`)
		assert.Contains(t, output, `"msg":"failed to close resource"`)
		assert.Contains(t, output, `"operation":"database_rows"`)
	})

	t.Run("silent on success", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		SafeCloseWithLogging(&errorCloser{}, logger, "database_rows")
		SafeCloseWithLogging(nil, logger, "database_rows")

		assert.Empty(t, buf.String())
	})
}

func TestSafeRollbackWithLogging(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		expectLog bool
	}{
		{"rollback failure is logged", assert.AnError, true},
		{"already committed is ignored", sql.ErrTxDone, false},
		{"successful rollback is silent", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewStructuredLogger(&buf, slog.LevelInfo)

			SafeRollbackWithLogging(&mockTransaction{rollbackErr: tt.err}, logger, "bulk_insert_stops")

			if tt.expectLog {
				assert.Contains(t, buf.String(), `"msg":"failed to rollback transaction"`)
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestHandleDeferredError(t *testing.T) {
	t.Run("reports deferred failure when the function succeeded", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		run := func() (err error) {
			defer HandleDeferredError(&err, func() error { return assert.AnError }, logger, "close_rows")
			return nil
		}

		err := run()
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "close_rows")
		assert.Contains(t, buf.String(), `"msg":"deferred operation failed"`)
	})

	t.Run("keeps the original error", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)
		original := sql.ErrNoRows

		run := func() (err error) {
			defer HandleDeferredError(&err, func() error { return assert.AnError }, logger, "close_rows")
			return original
		}

		assert.Equal(t, original, run())
	})
}
