package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stoneyard/shipment-bot/internal/metrics"
)

func newTestServer(t *testing.T) (*Server, *metrics.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	m := metrics.New()
	s := New(Config{Port: "0", WebhookSecret: "s3cret", QueueSize: 1}, m.Registry, zap.NewNop())
	return s, m
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = do(s, http.MethodHead, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookRejectsWrongSecret(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(s, http.MethodPost, "/webhook/nope", `{"update_id":1}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, s.updates)
}

func TestWebhookQueuesUpdate(t *testing.T) {
	s, _ := newTestServer(t)

	body := `{"update_id":42,"message":{"message_id":1,"date":0,"chat":{"id":100,"type":"private"},"from":{"id":7,"is_bot":false,"first_name":"Aziz"},"text":"Granit"}}`
	w := do(s, http.MethodPost, "/webhook/s3cret", body)
	require.Equal(t, http.StatusOK, w.Code)

	select {
	case u := <-s.Updates():
		assert.Equal(t, 42, u.UpdateID)
		require.NotNil(t, u.Message)
		assert.Equal(t, "Granit", u.Message.Text)
		assert.Equal(t, int64(100), u.Message.Chat.ID)
	default:
		t.Fatal("update was not queued")
	}
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(s, http.MethodPost, "/webhook/s3cret", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookDisabledWithoutSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := New(Config{Port: "0"}, nil, zap.NewNop())

	w := do(s, http.MethodPost, "/webhook/", `{"update_id":1}`)
	assert.NotEqual(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, m := newTestServer(t)
	m.ShipmentCommitted()

	w := do(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "shipment_bot_shipments_committed_total 1")
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	_, open := <-s.Updates()
	assert.False(t, open)
}

func TestWebhookDuringShutdown(t *testing.T) {
	s, _ := newTestServer(t)
	body := `{"update_id":1}`
	require.Equal(t, http.StatusOK, do(s, http.MethodPost, "/webhook/s3cret", body).Code)

	// The queue is full, so this request waits until the server stops.
	blocked := make(chan int, 1)
	go func() { blocked <- do(s, http.MethodPost, "/webhook/s3cret", body).Code }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case code := <-blocked:
		assert.Equal(t, http.StatusServiceUnavailable, code)
	case <-time.After(5 * time.Second):
		t.Fatal("webhook handler did not return")
	}
	require.NoError(t, <-done)

	u, ok := <-s.Updates()
	require.True(t, ok)
	assert.Equal(t, 1, u.UpdateID)
	_, ok = <-s.Updates()
	assert.False(t, ok)

	assert.Equal(t, http.StatusServiceUnavailable, do(s, http.MethodPost, "/webhook/s3cret", body).Code)
}
