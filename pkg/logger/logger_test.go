package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug")

	log.WithField("user_id", "abc").Info("followed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "followed", entry["msg"])
	assert.Equal(t, "abc", entry["user_id"])
	assert.Equal(t, "info", entry["level"])
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	log := New(&bytes.Buffer{}, "loud")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestDiscardDropsOutput(t *testing.T) {
	log := Discard()
	log.Error("ignored")
	assert.Equal(t, logrus.PanicLevel, log.GetLevel())
}
