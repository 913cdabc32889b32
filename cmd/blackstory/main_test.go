package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, true, false)
	logger.Info("serving", "port", 8172)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "serving", record["msg"])
	assert.Equal(t, float64(8172), record["port"])
}

func TestNewLoggerTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, false, false)
	logger.Info("starting game")

	out := buf.String()
	assert.False(t, strings.HasPrefix(out, "{"))
	assert.Contains(t, out, "starting game")
}

func TestNewLoggerDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, false, false).Debug("hidden")
	assert.Empty(t, buf.String())

	newLogger(&buf, false, true).Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}
