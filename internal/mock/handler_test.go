package mock

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlers(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		method   string
		body     string
		wantCode int
		wantBody string
	}{
		{"text", HandleText, http.MethodGet, "", http.StatusOK, Text},
		{"text post", HandleText, http.MethodPost, "posted", http.StatusOK, Text},
		{"empty", HandleEmptyText, http.MethodGet, "", http.StatusOK, ""},
		{"response headers", HandleTextWithResponseHeaders, http.MethodGet, "", http.StatusOK, Text},
		{"async", HandleTextAsynchronously, http.MethodGet, "", http.StatusOK, Text},
		{"chunked", HandleTextChunked, http.MethodGet, "", http.StatusOK, Text},
		{"error", HandleError, http.MethodGet, "", http.StatusInternalServerError, "mock-error\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			tt.handler(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestHandleTextWithResponseHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleTextWithResponseHeaders(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	h := rec.Header()
	assert.Equal(t, "mock-response-header-value", h.Get("Mock-Response-Header"))
	assert.Equal(t, []string{""}, h.Values("Mock-Empty-Response-Header"))
	assert.Equal(t, []string{"mock-multi-response-header-value1", "mock-multi-response-header-value2"},
		h.Values("Mock-Multi-Response-Header"))
}

func TestHandleFormData(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("a=1&b=2&b=3"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	HandleFormData(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"2", "3"}, req.PostForm["b"])
}

func TestHandlePanic(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/mock-controller/panic", nil)
	assert.PanicsWithValue(t, "mock panic for /mock-controller/panic", func() {
		HandlePanic(httptest.NewRecorder(), req)
	})
}
