package accesslog

import (
	"bytes"
	"io"
	"net/http"
	"sync"

	"github.com/felixge/httpsnoop"
)

// recorder observes a response without altering what the client receives.
type recorder struct {
	mu      sync.Mutex
	code    int
	written int64
	body    *bytes.Buffer
}

// wrap returns a ResponseWriter that records into rec. When tee is true the
// body bytes are copied as well.
func (rec *recorder) wrap(w http.ResponseWriter, tee bool) http.ResponseWriter {
	if tee {
		rec.body = &bytes.Buffer{}
	}
	return httpsnoop.Wrap(w, httpsnoop.Hooks{
		WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(code int) {
				next(code)
				rec.setCode(code)
			}
		},
		Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return func(b []byte) (int, error) {
				n, err := next(b)
				rec.setCode(http.StatusOK)
				rec.add(b[:n])
				return n, err
			}
		},
		ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
			return func(src io.Reader) (int64, error) {
				if rec.body != nil {
					src = io.TeeReader(src, lockedWriter{rec})
				}
				n, err := next(src)
				rec.setCode(http.StatusOK)
				rec.mu.Lock()
				rec.written += n
				rec.mu.Unlock()
				return n, err
			}
		},
	})
}

// setCode keeps the first final status. Informational codes other than
// 101 Switching Protocols are not final.
func (rec *recorder) setCode(code int) {
	if code < 200 && code != http.StatusSwitchingProtocols {
		return
	}
	rec.mu.Lock()
	if rec.code == 0 {
		rec.code = code
	}
	rec.mu.Unlock()
}

func (rec *recorder) add(b []byte) {
	rec.mu.Lock()
	rec.written += int64(len(b))
	if rec.body != nil {
		rec.body.Write(b)
	}
	rec.mu.Unlock()
}

// failed marks the response as a server error when the handler died before
// writing a status.
func (rec *recorder) failed() {
	rec.setCode(http.StatusInternalServerError)
}

func (rec *recorder) status() int {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.code == 0 {
		return http.StatusOK
	}
	return rec.code
}

func (rec *recorder) size() int64 {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.written
}

func (rec *recorder) content() []byte {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.body == nil {
		return nil
	}
	return bytes.Clone(rec.body.Bytes())
}

// lockedWriter appends tee'd ReadFrom bytes to the body buffer only; the
// byte count is taken from ReadFrom's return value.
type lockedWriter struct{ rec *recorder }

func (w lockedWriter) Write(b []byte) (int, error) {
	w.rec.mu.Lock()
	w.rec.body.Write(b)
	w.rec.mu.Unlock()
	return len(b), nil
}
