package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)
	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	New(&buf, true).Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := WithOperation(New(&buf, false), "calendar.list")

	logger.Info("done", Status(StatusError), Err(errors.New("upstream 502")))
	line := buf.String()
	assert.Contains(t, line, "operation=calendar.list")
	assert.Contains(t, line, "status=error")
	assert.Contains(t, line, `error="upstream 502"`)
}

func TestErr_Nil(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Info("done", Err(nil))

	assert.Equal(t, "", Err(nil).Key)
	assert.NotContains(t, buf.String(), "error")
}

func TestAnonymizeEmail(t *testing.T) {
	assert.Empty(t, AnonymizeEmail(""))

	jane := AnonymizeEmail("jane@example.com")
	assert.Regexp(t, `^user:[0-9a-f]{16}$`, jane)
	assert.Equal(t, jane, AnonymizeEmail("jane@example.com"))
	assert.NotEqual(t, jane, AnonymizeEmail("joe@example.com"))

	attr := UserHash("jane@example.com")
	assert.Equal(t, KeyUserHash, attr.Key)
	assert.Equal(t, jane, attr.Value.String())
}

func TestSanitizeToken(t *testing.T) {
	tests := map[string]string{
		"":                         "<empty>",
		"abc123":                   "[token:6 chars]",
		"ya29.a0AfH6SMBx-long-one": "[token:24 chars]",
	}
	for token, want := range tests {
		assert.Equal(t, want, SanitizeToken(token))
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))

	ctx = ContextWithRequestID(ctx, "req-123")
	require.Equal(t, "req-123", RequestIDFromContext(ctx))

	var buf bytes.Buffer
	FromContext(ctx, New(&buf, false)).Info("hello")
	assert.Contains(t, buf.String(), "request_id=req-123")
}

func TestFromContext_NilLogger(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background(), nil))
}
