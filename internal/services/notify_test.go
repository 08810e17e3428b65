package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"snatch/internal/config"
)

type capturedRequest struct {
	body      []byte
	timestamp string
	signature string
}

func newCollector(t *testing.T, status int) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []capturedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, capturedRequest{
			body:      body,
			timestamp: r.Header.Get("X-Snatch-Timestamp"),
			signature: r.Header.Get("X-Snatch-Signature"),
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), reqs...)
	}
}

func TestNotifyService_WebhookDelivery(t *testing.T) {
	srv, requests := newCollector(t, http.StatusNoContent)
	cfg := &config.AnalyticsConfig{Webhook: config.WebhookConfig{Enabled: true, URL: srv.URL, Secret: "shh"}}
	notify := NewNotifyService(cfg, srv.Client(), zap.NewNop())

	notify.Track(context.Background(), searchEvent("a1", "Coffee", 12))
	notify.Wait()

	reqs := requests()
	require.Len(t, reqs, 1)

	var got Event
	require.NoError(t, json.Unmarshal(reqs[0].body, &got))
	assert.Equal(t, EventSearch, got.Name)
	assert.Equal(t, "a1", got.AccountID)
	assert.Equal(t, "Coffee", got.Params["search_term"])
	assert.Equal(t, float64(12), got.Params["results_count"])
	assert.False(t, got.At.IsZero())

	require.NotEmpty(t, reqs[0].timestamp)
	assert.Equal(t, signPayload("shh", reqs[0].timestamp, reqs[0].body), reqs[0].signature)
}

func TestNotifyService_FailuresAreLoggedNotReturned(t *testing.T) {
	srv, requests := newCollector(t, http.StatusInternalServerError)
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := &config.AnalyticsConfig{Webhook: config.WebhookConfig{Enabled: true, URL: srv.URL}}
	notify := NewNotifyService(cfg, srv.Client(), zap.New(core))

	notify.Track(context.Background(), claimEvent("a1", "CoffeeHub"))
	notify.Wait()

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Empty(t, reqs[0].signature, "unsigned without a secret")
	assert.Equal(t, 1, logs.FilterMessage("analytics delivery failed").Len())
}

func TestNotifyService_CancelledCallerStillDelivers(t *testing.T) {
	srv, requests := newCollector(t, http.StatusOK)
	notify := NewNotifyServiceWithSinks(nil, NewWebhookSink(&config.WebhookConfig{URL: srv.URL}, srv.Client()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	notify.Track(ctx, loginEvent("a1"))
	notify.Wait()

	assert.Len(t, requests(), 1)
}

func TestNotifyService_LogSink(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	notify := NewNotifyService(&config.AnalyticsConfig{Log: config.LogSinkConfig{Enabled: true}}, nil, zap.New(core))

	notify.Track(context.Background(), purchaseEvent("a1", "enterprise", 49))
	notify.Wait()

	entries := logs.FilterMessage("analytics event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, EventPurchase, entries[0].ContextMap()["event"])
}

func TestNotifyService_NilAndEmptyAreNoops(t *testing.T) {
	var nilService *NotifyService
	assert.NotPanics(t, func() {
		nilService.Track(context.Background(), signupEvent("a1"))
		nilService.Wait()
	})

	empty := NewNotifyService(nil, nil, nil)
	empty.Track(context.Background(), signupEvent("a1"))
	empty.Wait()
}
