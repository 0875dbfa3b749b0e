// Package accesslog records one access event per HTTP exchange and hands it to a backend.
package accesslog

import (
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// NA is returned by accessors for values that are not available.
const NA = "-"

// Event describes one completed HTTP exchange. It is never mutated after
// the filter hands it to a backend.
type Event struct {
	ID        string
	Timestamp time.Time
	Elapsed   time.Duration

	ServerName string
	LocalPort  int
	RemoteAddr string
	RemoteHost string
	RemoteUser string
	Protocol   string

	Method            string
	RequestURI        string
	QueryString       string
	RequestHeaders    http.Header
	Cookies           map[string]string
	RequestParameters url.Values
	Attributes        map[string]string
	RequestContent    string

	StatusCode      int
	ResponseHeaders http.Header
	ContentLength   int64
	ResponseContent string

	Decision Decision
}

// RequestURL returns the request line, e.g. "GET /path?q HTTP/1.1".
func (e *Event) RequestURL() string {
	return e.Method + " " + e.RequestURI + e.QueryString + " " + e.Protocol
}

// RequestHeader returns the first value of the named request header.
func (e *Event) RequestHeader(name string) string {
	return headerValue(e.RequestHeaders, name)
}

// ResponseHeader returns the first value of the named response header.
func (e *Event) ResponseHeader(name string) string {
	return headerValue(e.ResponseHeaders, name)
}

// Cookie returns the value of the named request cookie.
func (e *Event) Cookie(name string) string {
	if v, ok := e.Cookies[name]; ok {
		return v
	}
	return NA
}

// RequestParameter returns all values of the named parameter, or a single NA.
func (e *Event) RequestParameter(name string) []string {
	if vs, ok := e.RequestParameters[name]; ok && len(vs) > 0 {
		return vs
	}
	return []string{NA}
}

// Attribute returns the named request attribute.
func (e *Event) Attribute(name string) string {
	if v, ok := e.Attributes[name]; ok {
		return v
	}
	return NA
}

// ElapsedSeconds returns the elapsed time in whole seconds.
func (e *Event) ElapsedSeconds() int64 {
	return int64(e.Elapsed / time.Second)
}

func (e *Event) String() string {
	return "Event(" + e.RequestURL() + " " + strconv.Itoa(e.StatusCode) + ")"
}

func headerValue(h http.Header, name string) string {
	vs := h.Values(name)
	if len(vs) == 0 {
		return NA
	}
	return vs[0]
}
