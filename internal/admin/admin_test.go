package admin

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/qrforge/qrforge/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_Health(t *testing.T) {
	srv := NewServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok\n", w.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	srv := NewServer()
	metrics.ContrastRejections.WithLabelValues("fill_not_darker")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "qrforge_")
}

func TestServer_StartStop(t *testing.T) {
	srv := NewServer()
	require.NoError(t, srv.Start("127.0.0.1:0"))
	defer func() { assert.NoError(t, srv.Stop()) }()

	resp, err := http.Get("http://" + srv.Addr().String() + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(body))
}

func TestServer_StopWithoutStart(t *testing.T) {
	assert.NoError(t, NewServer().Stop())
}
