package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestLogger_FieldsAreScoped(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, DebugLevel)

	scoped := base.WithSessionID("ps_1").WithOrderID("order_1")
	scoped.Info("scoped")
	base.Info("base")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "ps_1", lines[0]["session_id"])
	assert.Equal(t, "order_1", lines[0]["order_id"])
	assert.Equal(t, "scoped", lines[0]["message"])
	assert.NotContains(t, lines[1], "session_id")
}

func TestLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, SubjectKey, "host-app")

	New(&buf, InfoLevel).WithContext(ctx).Warn("hello")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "req-1", lines[0]["request_id"])
	assert.Equal(t, "host-app", lines[0]["subject"])
	assert.Equal(t, "warning", lines[0]["level"])
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, WarnLevel)
	l.Debug("dropped")
	l.Info("dropped")
	l.WithError(errors.New("boom")).Error("kept")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "boom", lines[0]["error"])
}

func TestLogger_LogPaymentEvent(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, InfoLevel).LogPaymentEvent("order_1", "payment.captured", decimal.RequireFromString("12.50"), "INR")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "12.5", lines[0]["amount"])
	assert.Equal(t, "payment_event", lines[0]["type"])
}

func TestLogger_WithNilError(t *testing.T) {
	l := Discard()
	assert.Same(t, l, l.WithError(nil))
}
