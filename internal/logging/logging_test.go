package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "debug", Out: &buf})
	require.NoError(t, err)

	l.WithField("node", "build step").WithField("depth", 2).Debug("started")
	line := buf.String()
	assert.Contains(t, line, "[DEBUG] started depth=2 node=\"build step\"")
	assert.NotContains(t, line, "\033[")
}

func TestNew_Color(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Color: true, Out: &buf})
	require.NoError(t, err)
	l.Warn("careful")
	assert.Contains(t, buf.String(), "\033[33m[WARNING] careful\033[0m")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Format: "json", Out: &buf})
	require.NoError(t, err)
	l.WithField("id", "lint").Info("done")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "done", entry["msg"])
	assert.Equal(t, "lint", entry["id"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "warn", Out: &buf})
	require.NoError(t, err)
	l.Info("hidden")
	assert.Empty(t, buf.String())
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
	_, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestFromContext(t *testing.T) {
	l := logrus.New()
	ctx := WithLogger(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))

	fallback := FromContext(context.Background())
	require.NotNil(t, fallback)
	fallback.Info("dropped")
}
