package logging

import (
	"bytes"
	"encoding/json"
	"log"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONWithComponent(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := New(&buf, "ladder", zerolog.DebugLevel)
	l.Debug().Int("rounds", 2).Msg("converged")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ladder", entry["component"])
	assert.Equal(t, "converged", entry["message"])
	assert.Equal(t, "debug", entry["level"])
	assert.EqualValues(t, 2, entry["rounds"])
	assert.Contains(t, entry, "time")
}

func TestNewHonoursLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := New(&buf, "scan", zerolog.WarnLevel)
	l.Info().Msg("hidden")
	assert.Zero(t, buf.Len())
	l.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewNilWriter(t *testing.T) {
	t.Parallel()
	l := New(nil, "x", zerolog.InfoLevel)
	assert.NotPanics(t, func() { l.Info().Msg("discarded") })
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{" WARN ", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"loud", zerolog.NoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdapters(t *testing.T) {
	t.Parallel()
	var zbuf bytes.Buffer
	var z Logger = NewLogger(&zbuf, "server")
	z.Printf("listening on %s\n", ":8080")
	z.Println("ready")
	lines := strings.Split(strings.TrimSpace(zbuf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"message":"listening on :8080"`)
	assert.Contains(t, lines[1], `"message":"ready"`)

	var sbuf bytes.Buffer
	var s Logger = NewStdLoggerAdapter(log.New(&sbuf, "", 0))
	s.Printf("a=%d", 1)
	s.Println("b")
	assert.Equal(t, "a=1\nb\n", sbuf.String())
}
