package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf, ServiceName: "test"})

	log.WithFields(Fields{FieldJobID: "j1", FieldProgress: 40}).Info("status changed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "status changed", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "test", entry["service"])
	assert.Equal(t, "j1", entry[FieldJobID])
	assert.EqualValues(t, 40, entry[FieldProgress])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "text", Output: &buf})

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "loud", Output: &buf})

	log.Debug("hidden")
	log.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faceswap.log")
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf, File: path, MaxSize: 1})

	log.Info("to both")
	require.NoError(t, Sync())

	assert.FileExists(t, path)
	assert.Contains(t, buf.String(), "to both")
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	ctx := log.WithContext(context.Background())
	ctx = WithFields(ctx, Fields{FieldTaskID: "t1"})
	FromContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), `"task_id":"t1"`)
	assert.Same(t, GetDefault(), FromContext(context.Background()))
}
