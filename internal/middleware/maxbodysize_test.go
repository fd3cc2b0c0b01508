package middleware_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avirmani/fleet-manager/internal/middleware"
)

func TestMaxBodySize_RejectsDeclaredOversize(t *testing.T) {
	h := middleware.NewMaxBodySizeHandler(10)(trivialHandler)

	req := httptest.NewRequest(http.MethodPost, "/routes/generate", strings.NewReader(strings.Repeat("x", 50)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMaxBodySize_CapsUndeclaredBody(t *testing.T) {
	var readErr error
	h := middleware.NewMaxBodySizeHandler(10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	// A chunked body has ContentLength -1, so the up-front check cannot
	// catch it; the reader cap must.
	req := httptest.NewRequest(http.MethodPost, "/routes/generate", io.NopCloser(bytes.NewReader(bytes.Repeat([]byte("x"), 50))))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Error(t, readErr)
}

func TestMaxBodySize_PassesSmallBody(t *testing.T) {
	h := middleware.NewMaxBodySizeHandler(1024)(trivialHandler)

	req := httptest.NewRequest(http.MethodPost, "/routes/generate", strings.NewReader("tiny"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
