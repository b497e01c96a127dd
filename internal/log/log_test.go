package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/olusolaa/smartvault/internal/errors"
)

func TestNewLogger_RejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(Config{Level: "verbose"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfigValidation, apperrors.GetCode(err))
}

func TestNewLogger_RejectsUnknownFormat(t *testing.T) {
	_, err := NewLogger(Config{Level: LevelInfo, Format: "xml"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfigValidation, apperrors.GetCode(err))
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: LevelWarn, Format: FormatText, Output: &buf})
	require.NoError(t, err)

	logger.Infof(context.Background(), "hidden %d", 1)
	logger.Warnf(context.Background(), "shown %d", 2)

	assert.NotContains(t, buf.String(), "hidden 1")
	assert.Contains(t, buf.String(), "shown 2")
}

func TestLogger_JSONCarriesFieldsAndErrorCode(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: LevelDebug, Format: FormatJSON, Output: &buf})
	require.NoError(t, err)

	child := logger.WithFields(map[string]any{"snapshot_id": "snap-1"})
	appErr := apperrors.Wrap(fmt.Errorf("throttled"), apperrors.CodeSnapshotError, "delete failed")
	child.Errorf(context.Background(), appErr, "could not delete %s", "snap-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "could not delete snap-1", entry["msg"])
	assert.Equal(t, "snap-1", entry["snapshot_id"])
	assert.Equal(t, "SNAPSHOT_ERROR", entry["error_code"])
	assert.Equal(t, "throttled", entry["error_wrapped"])
}

func TestNop_DoesNotPanic(t *testing.T) {
	l := NewNop()
	l.Infof(nil, "nothing")
	l.WithFields(map[string]any{"a": 1}).Errorf(context.Background(), nil, "still nothing")
}
