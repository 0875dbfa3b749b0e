package accesslog

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
)

const (
	formContentType  = "application/x-www-form-urlencoded"
	imageContentType = "image/"

	// SuppressedImageContent replaces response bodies of image types.
	SuppressedImageContent = "[IMAGE CONTENTS SUPPRESSED]"
)

// TeeConfig controls copying of request and response bodies into events.
type TeeConfig struct {
	Enabled bool
	// Includes is a comma-separated list of host names to activate on.
	// Empty means every host.
	Includes string
	// Excludes is a comma-separated list of host names to stay inactive on.
	Excludes string
}

// ActiveOn reports whether the tee runs on the given host name.
func (c TeeConfig) ActiveOn(host string) bool {
	if !c.Enabled {
		return false
	}
	if hostListed(c.Excludes, host) {
		return false
	}
	if strings.TrimSpace(c.Includes) == "" {
		return true
	}
	return hostListed(c.Includes, host)
}

func hostListed(list, host string) bool {
	for _, h := range strings.Split(list, ",") {
		if h = strings.TrimSpace(h); h != "" && strings.EqualFold(h, host) {
			return true
		}
	}
	return false
}

func localHostname() string {
	h, err := os.Hostname()
	if err != nil {
		return ""
	}
	return h
}

// bodyTee copies what the handler reads from the request body.
type bodyTee struct {
	io.ReadCloser
	mu  sync.Mutex
	buf bytes.Buffer
}

func teeRequestBody(r *http.Request) *bodyTee {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	t := &bodyTee{ReadCloser: r.Body}
	r.Body = t
	return t
}

func (t *bodyTee) Read(p []byte) (int, error) {
	n, err := t.ReadCloser.Read(p)
	if n > 0 {
		t.mu.Lock()
		t.buf.Write(p[:n])
		t.mu.Unlock()
	}
	return n, err
}

func (t *bodyTee) bytes() []byte {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return bytes.Clone(t.buf.Bytes())
}

// requestContent prefers the captured body and falls back to the parsed
// form of a url-encoded POST.
func requestContent(r *http.Request, body []byte) string {
	if len(body) > 0 {
		return string(body)
	}
	if r.Method == http.MethodPost && strings.HasPrefix(r.Header.Get("Content-Type"), formContentType) {
		return encodeForm(r.PostForm)
	}
	return ""
}

// encodeForm joins parameters in key order as key=value pairs.
func encodeForm(form url.Values) string {
	if len(form) == 0 {
		return ""
	}
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		for _, v := range form[k] {
			if sb.Len() > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(k)
			sb.WriteByte('=')
			sb.WriteString(v)
		}
	}
	return sb.String()
}

func responseContent(h http.Header, body []byte) string {
	if strings.HasPrefix(h.Get("Content-Type"), imageContentType) {
		return SuppressedImageContent
	}
	return string(body)
}
