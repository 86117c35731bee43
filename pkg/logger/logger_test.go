package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLevel(t *testing.T) {
	prevLevel := zerolog.GlobalLevel()
	prevLog := Log
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(prevLevel)
		Log = prevLog
	})

	cases := []struct {
		name  string
		input string
		want  zerolog.Level
	}{
		{"debug", "debug", zerolog.DebugLevel},
		{"warn", "warn", zerolog.WarnLevel},
		{"unknown falls back to info", "loud", zerolog.InfoLevel},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SetLevel(tc.input)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want, zerolog.GlobalLevel())
			assert.Equal(t, tc.want, Log.GetLevel())
		})
	}
}

func TestNewLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf)

	l.Info().Str("sku", "SKU-001").Msg("forecast complete")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "forecast complete", entry["message"])
	assert.Equal(t, "SKU-001", entry["sku"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "caller")
}
