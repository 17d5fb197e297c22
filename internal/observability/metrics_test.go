package observability_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostprompt/internal/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	observability.ObserveHTTP("/api/generate-content", "POST", 200, 12*time.Millisecond)
	observability.ObserveExternal("openai", "chat", 200, time.Second)
	observability.ObserveCache("descriptions", "miss")
	observability.ObserveStage("social_caption", "model_call")

	rr := httptest.NewRecorder()
	observability.MetricsHandler(reg).ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body, _ := io.ReadAll(rr.Body)
	for _, name := range []string{
		"hostprompt_http_requests_total",
		"hostprompt_external_requests_total",
		"hostprompt_cache_events_total",
		"hostprompt_generation_stages_total",
	} {
		assert.True(t, bytes.Contains(body, []byte(name)), name)
	}
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusOK, observability.StatusOf(nil))
	assert.Equal(t, 0, observability.StatusOf(io.EOF))
}
