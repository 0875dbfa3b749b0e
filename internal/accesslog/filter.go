package accesslog

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Filter is the access-logging middleware.
type Filter struct {
	backend Backend
	cfg     *config
	tee     bool
}

// NewFilter creates a Filter that emits to backend.
func NewFilter(backend Backend, opts ...Option) *Filter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Filter{
		backend: backend,
		cfg:     cfg,
		tee:     cfg.tee.ActiveOn(cfg.hostname),
	}
}

// Wrap installs the filter around next. It should be the outermost handler
// so that it observes the whole chain.
func (f *Filter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := f.cfg.clock.Now()

		ctx, x := withExchange(r.Context())
		r = r.WithContext(ctx)

		var reqBody *bodyTee
		if f.tee {
			reqBody = teeRequestBody(r)
		}

		rec := &recorder{}
		ww := rec.wrap(w, f.tee)

		completed := false
		defer func() {
			if !completed {
				// Panicking chain: log what the client will see, then let the
				// panic continue up to the server.
				rec.failed()
			}
			f.finish(r, w, x, rec, reqBody, start)
		}()

		next.ServeHTTP(ww, r)
		completed = true
	})
}

// finish is the post-phase: decide, build, emit. It never panics on a
// backend failure.
func (f *Filter) finish(r *http.Request, w http.ResponseWriter, x *exchange, rec *recorder, reqBody *bodyTee, start time.Time) {
	decision := x.snapshotDecision()
	if decision == Deny {
		f.cfg.metrics.incSuppressed()
		f.cfg.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Access event suppressed")
		return
	}

	e := f.buildEvent(r, w, x, rec, reqBody, start, decision)
	if err := f.emit(e); err != nil {
		f.cfg.metrics.incFailures()
		f.cfg.logger.Error().Err(err).
			Str("event_id", e.ID).
			Str("method", e.Method).
			Str("path", e.RequestURI).
			Int("code", e.StatusCode).
			Msg("Access event emission failed")
	}
}

func (f *Filter) emit(e *Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("backend panic: %v", p)
		}
	}()
	return f.backend.Emit(e)
}

func (f *Filter) buildEvent(r *http.Request, w http.ResponseWriter, x *exchange, rec *recorder, reqBody *bodyTee, start time.Time, decision Decision) *Event {
	o := resolveOrigin(r, f.cfg.portMode, f.cfg.forwarded)

	remoteUser := NA
	if u, _, ok := r.BasicAuth(); ok && u != "" {
		remoteUser = u
	}

	query := ""
	if r.URL.RawQuery != "" {
		query = "?" + r.URL.RawQuery
	}

	params := r.URL.Query()
	for k, vs := range r.PostForm {
		params[k] = append(params[k], vs...)
	}

	cookies := make(map[string]string)
	for _, c := range r.Cookies() {
		if _, seen := cookies[c.Name]; !seen {
			cookies[c.Name] = c.Value
		}
	}

	respHeaders := w.Header().Clone()
	if respHeaders == nil {
		respHeaders = http.Header{}
	}

	e := &Event{
		ID:                uuid.NewString(),
		Timestamp:         start,
		Elapsed:           f.cfg.clock.Since(start),
		ServerName:        o.serverName,
		LocalPort:         o.localPort,
		RemoteAddr:        o.remoteAddr,
		RemoteHost:        o.remoteAddr,
		RemoteUser:        remoteUser,
		Protocol:          r.Proto,
		Method:            r.Method,
		RequestURI:        r.URL.Path,
		QueryString:       query,
		RequestHeaders:    r.Header.Clone(),
		Cookies:           cookies,
		RequestParameters: params,
		Attributes:        x.snapshotAttributes(),
		StatusCode:        rec.status(),
		ResponseHeaders:   respHeaders,
		ContentLength:     rec.size(),
		Decision:          decision,
	}
	if e.RequestHeaders == nil {
		e.RequestHeaders = http.Header{}
	}
	if f.tee {
		e.RequestContent = requestContent(r, reqBody.bytes())
		e.ResponseContent = responseContent(respHeaders, rec.content())
	} else {
		e.RequestContent = requestContent(r, nil)
	}
	return e
}
