package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/fitlens-dev/fitlens/pkg/utils/logging"
	"github.com/m-mizutani/gt"
)

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelInfo, logging.FormatJSON)

	logger.Info("hello", "session_id", "abc123")

	var record map[string]any
	gt.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	gt.Equal(t, record["msg"], "hello")
	gt.Equal(t, record["session_id"], "abc123")
}

func TestSecretMasking(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelInfo, logging.FormatJSON)

	type cfg struct {
		APIKey string
	}
	logger.Info("config", "cfg", cfg{APIKey: "super-secret-token"})

	gt.False(t, strings.Contains(buf.String(), "super-secret-token"))
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelDebug, logging.FormatJSON)

	ctx := logging.With(context.Background(), logger)
	logging.From(ctx).Debug("via context")

	gt.True(t, strings.Contains(buf.String(), "via context"))
}

func TestFromFallsBackToDefault(t *testing.T) {
	gt.NotNil(t, logging.From(context.Background()))
}
