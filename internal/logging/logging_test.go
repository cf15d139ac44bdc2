package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"Error", LevelError},
		{"verbose", LevelInfo},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ParseLevel(tc.in), tc.in)
	}
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "UNKNOWN", Level(9).String())
}

func TestLogfmtFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithFormat(LevelInfo, FormatLogfmt, &buf)

	l.Debug("hidden %d", 1)
	l.Info("catalog loaded: %d bodies", 10)
	l.With("body", "earth").Warn("coverage")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `level=info`)
	assert.Contains(t, out, `msg="catalog loaded: 10 bodies"`)
	assert.Contains(t, out, `level=warn`)
	assert.Contains(t, out, `body=earth`)
	assert.Equal(t, 2, strings.Count(out, "\n"))

	l.SetLevel(LevelDebug)
	l.Debug("shown")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithFormat(LevelDebug, FormatJSON, &buf)
	l.Error("boom: %s", "bad")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "boom: bad", line["msg"])
	assert.Contains(t, line, "ts")
}

func TestSetOutputAndDiscard(t *testing.T) {
	var a, b bytes.Buffer
	l := NewWithFormat(LevelInfo, FormatLogfmt, &a)
	child := l.With("component", "server")
	l.SetOutput(&b)
	child.Info("moved")
	assert.Empty(t, a.String())
	assert.Contains(t, b.String(), "component=server")

	d := Discard()
	d.Error("nothing")
}
