package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestLogger_FieldsAndErrors(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf)).With("feed", "BTC-USD")

	l.Info("round finalized",
		"round", 3,
		"answer", big.NewInt(10_100_000_000),
		"age", 90*time.Second,
		"error", errors.New("boom"),
		42, "ignored",
		"dangling")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "round finalized", entry["message"])
	assert.Equal(t, "BTC-USD", entry["feed"])
	assert.Equal(t, float64(3), entry["round"])
	assert.Equal(t, "10100000000", entry["answer"])
	assert.Equal(t, "1m30s", entry["age"])
	assert.Equal(t, "boom", entry["error"])
	assert.NotContains(t, entry, "dangling")
}

func TestNewWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "warn", "json")

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("shown", "k", "v")
	entry := decodeEntry(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "v", entry["k"])
	assert.Contains(t, entry, "time")
}

func TestNewWriter_Defaults(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "nonsense", "text")

	l.Debug("hidden")
	assert.Zero(t, buf.Len())

	l.Info("round opened", "round", 7)
	assert.Contains(t, buf.String(), "round opened")
	assert.Contains(t, buf.String(), "round=7")
}

func TestNewNoopLogger(t *testing.T) {
	l := NewNoopLogger()
	assert.NotPanics(t, func() {
		l.Debug("debug")
		l.Warn("warn", "k", "v")
		l.With("a", 1).Error("error")
	})
}
