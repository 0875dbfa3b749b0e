// Package mock provides the demo endpoints served behind the access log
// filter. They cover the response shapes the filter has to observe.
package mock

import (
	"fmt"
	"io"
	"net/http"
)

// Text is the body returned by the text endpoints.
const Text = "mock-text"

// HandleText handles GET /test/text and GET|POST /mock-controller/text.
func HandleText(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		// Read the posted body so it reaches the tee.
		_, _ = io.Copy(io.Discard, r.Body)
	}
	w.Header().Set("Content-Type", "text/plain;charset=UTF-8")
	_, _ = io.WriteString(w, Text)
}

// HandleEmptyText handles GET /mock-controller/empty-text.
func HandleEmptyText(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// HandleTextWithResponseHeaders handles GET /mock-controller/text-with-response-headers.
func HandleTextWithResponseHeaders(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("mock-response-header", "mock-response-header-value")
	h.Set("mock-empty-response-header", "")
	h.Add("mock-multi-response-header", "mock-multi-response-header-value1")
	h.Add("mock-multi-response-header", "mock-multi-response-header-value2")
	HandleText(w, r)
}

// HandleTextAsynchronously handles GET /mock-controller/text-asynchronously.
// The body is produced on another goroutine.
func HandleTextAsynchronously(w http.ResponseWriter, r *http.Request) {
	body := make(chan string, 1)
	go func() {
		body <- Text
	}()
	select {
	case s := <-body:
		w.Header().Set("Content-Type", "text/plain;charset=UTF-8")
		_, _ = io.WriteString(w, s)
	case <-r.Context().Done():
	}
}

// HandleTextChunked handles GET /mock-controller/text-with-chunked-transfer-encoding.
// Flushing before the body forces chunked transfer encoding on HTTP/1.1.
func HandleTextChunked(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain;charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	_, _ = io.WriteString(w, Text[:4])
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	_, _ = io.WriteString(w, Text[4:])
}

// HandleFormData handles POST /mock-controller/form-data.
func HandleFormData(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain;charset=UTF-8")
	_, _ = io.WriteString(w, Text)
}

// HandleError handles GET /mock-controller/error.
func HandleError(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "mock-error", http.StatusInternalServerError)
}

// HandlePanic handles GET /mock-controller/panic.
func HandlePanic(w http.ResponseWriter, r *http.Request) {
	panic(fmt.Sprintf("mock panic for %s", r.URL.Path))
}
