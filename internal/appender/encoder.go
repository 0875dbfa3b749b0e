// Package appender provides the console, file and writer appenders and the
// encoders they format access events with.
package appender

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	apachelog "github.com/lestrrat-go/apache-logformat/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"accesslogd/internal/accesslog"
)

// CommonPattern is the Apache common log format.
const CommonPattern = `%h %l %u %t "%r" %>s %b`

// Encoder formats one event as one record on w.
type Encoder interface {
	Encode(w io.Writer, e *accesslog.Event) error
}

// JSONEncoder writes one zerolog JSON line per event.
type JSONEncoder struct {
	// Headers includes request and response headers when set.
	Headers bool
}

// Encode implements Encoder.
func (enc JSONEncoder) Encode(w io.Writer, e *accesslog.Event) error {
	var buf bytes.Buffer
	logEvent(zerolog.New(&buf), e, enc.Headers)
	return writeRecord(w, buf.Bytes())
}

// ConsoleEncoder writes human-readable lines through zerolog's ConsoleWriter.
type ConsoleEncoder struct {
	NoColor bool
}

// Encode implements Encoder.
func (enc ConsoleEncoder) Encode(w io.Writer, e *accesslog.Event) error {
	var buf bytes.Buffer
	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        &buf,
		NoColor:    enc.NoColor,
		TimeFormat: time.RFC3339,
	})
	logEvent(logger, e, false)
	return writeRecord(w, buf.Bytes())
}

// writeRecord writes a fully formatted record in one call. zerolog hands
// write errors to its ErrorHandler, so records are built in memory first.
func writeRecord(w io.Writer, record []byte) error {
	_, err := w.Write(record)
	return errors.Wrap(err, "writing access record")
}

func logEvent(logger zerolog.Logger, e *accesslog.Event, headers bool) {
	var ev *zerolog.Event
	switch {
	case e.StatusCode >= 500:
		ev = logger.Error()
	case e.StatusCode >= 400:
		ev = logger.Warn()
	default:
		ev = logger.Info()
	}
	ev = ev.Time(zerolog.TimestampFieldName, e.Timestamp).
		Str("id", e.ID).
		Str("method", e.Method).
		Str("uri", e.RequestURI).
		Str("query", e.QueryString).
		Str("proto", e.Protocol).
		Str("remote_addr", e.RemoteAddr).
		Str("remote_user", e.RemoteUser).
		Str("server_name", e.ServerName).
		Int("local_port", e.LocalPort).
		Int("code", e.StatusCode).
		Int64("sent_bytes", e.ContentLength).
		Dur("duration_ms", e.Elapsed).
		Str("decision", e.Decision.String())
	if len(e.Attributes) > 0 {
		ev = ev.Fields(stringMap(e.Attributes))
	}
	if headers {
		ev = ev.Dict("request_headers", headerDict(e.RequestHeaders)).
			Dict("response_headers", headerDict(e.ResponseHeaders))
	}
	if e.RequestContent != "" {
		ev = ev.Str("request_content", e.RequestContent)
	}
	if e.ResponseContent != "" {
		ev = ev.Str("response_content", e.ResponseContent)
	}
	ev.Msg("access")
}

func stringMap(m map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out["attr_"+k] = v
	}
	return out
}

func headerDict(h http.Header) *zerolog.Event {
	d := zerolog.Dict()
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d = d.Strs(k, h[k])
	}
	return d
}

// PatternEncoder writes Apache-style lines.
type PatternEncoder struct {
	log *apachelog.ApacheLog
}

// NewPatternEncoder compiles pattern. An empty pattern means CommonPattern.
func NewPatternEncoder(pattern string) (*PatternEncoder, error) {
	if pattern == "" {
		pattern = CommonPattern
	}
	al, err := apachelog.New(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "compiling log pattern %q", pattern)
	}
	return &PatternEncoder{log: al}, nil
}

// Encode implements Encoder.
func (enc *PatternEncoder) Encode(w io.Writer, e *accesslog.Event) error {
	return enc.log.WriteLog(w, logCtx{e: e, req: syntheticRequest(e)})
}

// logCtx exposes a finished event through apachelog.LogCtx.
type logCtx struct {
	e   *accesslog.Event
	req *http.Request
}

func (c logCtx) ElapsedTime() time.Duration { return c.e.Elapsed }
func (c logCtx) Request() *http.Request { return c.req }
func (c logCtx) RequestTime() time.Time { return c.e.Timestamp }
func (c logCtx) ResponseContentLength() int64 { return c.e.ContentLength }
func (c logCtx) ResponseHeader() http.Header { return c.e.ResponseHeaders }
func (c logCtx) ResponseStatus() int { return c.e.StatusCode }
func (c logCtx) ResponseTime() time.Time { return c.e.Timestamp.Add(c.e.Elapsed) }

// syntheticRequest rebuilds the request fields the pattern verbs read.
func syntheticRequest(e *accesslog.Event) *http.Request {
	u := &url.URL{Path: e.RequestURI}
	if len(e.QueryString) > 1 {
		u.RawQuery = e.QueryString[1:]
	}
	if e.RemoteUser != "" && e.RemoteUser != accesslog.NA {
		u.User = url.User(e.RemoteUser)
	}
	return &http.Request{
		Method:     e.Method,
		URL:        u,
		RequestURI: u.RequestURI(),
		Proto:      e.Protocol,
		Header:     e.RequestHeaders,
		Host:       e.ServerName,
		RemoteAddr: e.RemoteAddr,
	}
}
