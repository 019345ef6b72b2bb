package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(level string, warnStack bool) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return New(Options{ServiceName: "test", Level: ParseLevel(level), Output: buf, WarnStack: warnStack, Format: FormatJSON}), buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		out = append(out, entry)
	}
	return out
}

func TestErrorCarriesContextFieldsAndStack(t *testing.T) {
	log, buf := newTestLogger("debug", false)
	ctx := log.WithRequestID(context.Background(), "req-123")

	log.Error(ctx, "boom", errors.New("db down"))

	entries := lines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "req-123", entries[0]["request_id"])
	assert.Equal(t, "db down", entries[0]["error"])
	assert.Equal(t, "test", entries[0]["service"])
	assert.NotEmpty(t, entries[0]["stack"])
}

func TestFieldsAccumulateWithoutLeaking(t *testing.T) {
	log, buf := newTestLogger("info", false)

	parent := log.WithActor(context.Background(), "user-1", "admin")
	child := log.WithListingID(parent, "listing-9")
	log.Info(child, "listing hidden")
	log.Info(parent, "admin request")

	entries := lines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "user-1", entries[0]["user_id"])
	assert.Equal(t, "admin", entries[0]["actor_role"])
	assert.Equal(t, "listing-9", entries[0]["listing_id"])
	assert.NotContains(t, entries[1], "listing_id")
}

func TestContextWithoutFieldsUsesBase(t *testing.T) {
	log, buf := newTestLogger("info", false)
	ctx := log.WithFields(context.Background(), map[string]any{"b": 2, "a": 1})
	log.Info(context.Background(), "plain")
	log.Info(ctx, "fielded")

	entries := lines(t, buf)
	require.Len(t, entries, 2)
	assert.NotContains(t, entries[0], "a")
	assert.Less(t, strings.Index(buf.String(), `"a":1`), strings.Index(buf.String(), `"b":2`), "fields are sorted")
}

func TestLevelFiltering(t *testing.T) {
	log, buf := newTestLogger("warn", false)
	log.Debug(context.Background(), "noise")
	log.Info(context.Background(), "noise")
	assert.Zero(t, buf.Len())

	log.Warn(context.Background(), "careful")
	entries := lines(t, buf)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0], "stack")
}

func TestWarnStackToggle(t *testing.T) {
	log, buf := newTestLogger("debug", true)
	log.Warn(context.Background(), "warny")
	assert.NotEmpty(t, lines(t, buf)[0]["stack"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
}
