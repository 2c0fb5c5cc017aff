package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := Component(newWithWriter(&buf, "fixitnow", "production"), "jobs")
	l.Info().Str("job_id", "abc").Msg("job booked")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "fixitnow", line["service"])
	assert.Equal(t, "jobs", line["component"])
	assert.Equal(t, "abc", line["job_id"])
	assert.Equal(t, "job booked", line["message"])
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(&buf, "fixitnow", "development")
	l.Info().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
