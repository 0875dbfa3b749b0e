package logconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accesslogd/internal/accesslog"
	"accesslogd/internal/accesslog/accesslogtest"
)

const captureConfig = `
appenders:
  - name: capture
    type: ref
filters:
  - type: header
    header: X-Filter-Reply
  - type: path
    prefixes: [/health]
  - type: status
    min: 500
    on_match: accept
`

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestResolve_Explicit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(captureConfig), 0644))

	name, data, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, path, name)
	assert.Equal(t, captureConfig, string(data))

	_, _, err = Resolve(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestResolve_AutoDetection(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	name, data, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, FallbackName, name)
	assert.Equal(t, fallback, data)

	require.NoError(t, os.WriteFile("accesslog.yaml", []byte("appenders: []\n"), 0644))
	name, _, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "accesslog.yaml", name)

	require.NoError(t, os.WriteFile("accesslog-test.yaml", []byte("appenders: []\n"), 0644))
	name, _, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "accesslog-test.yaml", name)
}

func TestParse_Fallback(t *testing.T) {
	doc, err := Parse(fallback)
	require.NoError(t, err)
	require.Len(t, doc.Appenders, 1)
	assert.Equal(t, "console", doc.Appenders[0].Type)
	assert.Equal(t, "pattern", doc.Appenders[0].Encoder)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":        "appenders: [",
		"missing name":    "appenders:\n  - type: console\n",
		"duplicate name":  "appenders:\n  - name: a\n  - name: a\n",
		"unknown type":    "appenders:\n  - name: a\n    type: kafka\n",
		"file no path":    "appenders:\n  - name: a\n    type: file\n",
		"unknown encoder": "appenders:\n  - name: a\n    encoder: xml\n",
		"unknown filter":  "filters:\n  - type: geo\n",
		"bad range":       "filters:\n  - type: status\n    min: 500\n    max: 400\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestBuild_RefAppenderAndFilters(t *testing.T) {
	q := accesslogtest.NewQueue("capture")
	doc, err := Parse([]byte(captureConfig))
	require.NoError(t, err)

	ctx, err := Build("capture.yaml", doc, Options{
		Logger: zerolog.Nop(),
		Refs:   map[string]accesslog.Appender{"capture": q},
	})
	require.NoError(t, err)
	assert.Equal(t, "capture.yaml", ctx.Name())

	deny := &accesslog.Event{RequestURI: "/x", StatusCode: 200, RequestHeaders: map[string][]string{"X-Filter-Reply": {"deny"}}}
	health := &accesslog.Event{RequestURI: "/health", StatusCode: 200}
	failing := &accesslog.Event{RequestURI: "/x", StatusCode: 502}

	assert.Equal(t, accesslog.Deny, ctx.Decide(deny))
	assert.Equal(t, accesslog.Deny, ctx.Decide(health))
	assert.Equal(t, accesslog.Accept, ctx.Decide(failing))

	require.NoError(t, ctx.Emit(failing))
	assert.Equal(t, 1, q.Len())

	require.NoError(t, ctx.Close())
	q.Push(&accesslog.Event{})
	assert.Equal(t, 2, q.Len(), "closing the context leaves ref appenders open")
}

func TestBuild_MissingRef(t *testing.T) {
	doc, err := Parse([]byte(captureConfig))
	require.NoError(t, err)
	_, err = Build("capture.yaml", doc, Options{Logger: zerolog.Nop()})
	assert.Error(t, err)
}

func TestLoad_FileAppender(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "access.log")
	cfgPath := filepath.Join(dir, "accesslog.yaml")
	cfg := "appenders:\n  - name: file\n    type: file\n    encoder: json\n    path: " + logPath + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	ctx, err := Load(cfgPath, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	require.Len(t, ctx.Appenders(), 1)

	require.NoError(t, ctx.Emit(&accesslog.Event{Method: "GET", RequestURI: "/x", StatusCode: 200}))
	require.NoError(t, ctx.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"uri":"/x"`)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("filters:\n  - type: geo\n"), 0644))
	_, err := Load(path, Options{Logger: zerolog.Nop()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
