package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"snatch/internal/config"
)

// Analytics event names
const (
	EventSignup    = "sign_up"
	EventLogin     = "login"
	EventSearch    = "search"
	EventPurchase  = "purchase"
	EventClaimName = "claim_name"
)

const sinkTimeout = 5 * time.Second

// Event is a fire-and-forget analytics event
type Event struct {
	Name      string         `json:"event"`
	AccountID string         `json:"account_id,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
	At        time.Time      `json:"at"`
}

// EventSink delivers events to one destination
type EventSink interface {
	Emit(ctx context.Context, event Event) error
}

// Tracker is what the services use to report events. Track never fails.
type Tracker interface {
	Track(ctx context.Context, event Event)
}

// NotifyService fans events out to every enabled sink. Delivery happens in
// the background; sink failures are logged and dropped.
type NotifyService struct {
	sinks  []EventSink
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewNotifyService creates a notify service from the analytics configuration
func NewNotifyService(cfg *config.AnalyticsConfig, client *http.Client, logger *zap.Logger) *NotifyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	service := &NotifyService{logger: logger}

	if cfg == nil {
		return service
	}
	if cfg.Log.Enabled {
		service.sinks = append(service.sinks, NewLogSink(logger))
	}
	if cfg.Webhook.Enabled {
		service.sinks = append(service.sinks, NewWebhookSink(&cfg.Webhook, client))
	}

	return service
}

// NewNotifyServiceWithSinks creates a notify service over explicit sinks
func NewNotifyServiceWithSinks(logger *zap.Logger, sinks ...EventSink) *NotifyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotifyService{sinks: sinks, logger: logger}
}

// Track hands the event to every sink without waiting for delivery
func (s *NotifyService) Track(ctx context.Context, event Event) {
	if s == nil || len(s.sinks) == 0 {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	ctx = context.WithoutCancel(ctx)
	for _, sink := range s.sinks {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			sctx, cancel := context.WithTimeout(ctx, sinkTimeout)
			defer cancel()
			if err := sink.Emit(sctx, event); err != nil {
				s.logger.Warn("analytics delivery failed",
					zap.String("event", event.Name),
					zap.String("sink", fmt.Sprintf("%T", sink)),
					zap.Error(err))
			}
		}()
	}
}

// Wait blocks until in-flight deliveries finish
func (s *NotifyService) Wait() {
	if s == nil {
		return
	}
	s.wg.Wait()
}

// LogSink writes events to the structured log
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a log sink
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Emit logs the event
func (l *LogSink) Emit(_ context.Context, event Event) error {
	l.logger.Info("analytics event",
		zap.String("event", event.Name),
		zap.String("account_id", event.AccountID),
		zap.Any("params", event.Params))
	return nil
}

// WebhookSink posts events as JSON to a collector endpoint
type WebhookSink struct {
	config *config.WebhookConfig
	client *http.Client
}

// NewWebhookSink creates a webhook sink
func NewWebhookSink(cfg *config.WebhookConfig, client *http.Client) *WebhookSink {
	if client == nil {
		client = &http.Client{Timeout: sinkTimeout}
	}
	return &WebhookSink{config: cfg, client: client}
}

// Emit sends the event. When a secret is configured the body is signed with
// HMAC-SHA256 over "timestamp.body".
func (w *WebhookSink) Emit(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if w.config.Secret != "" {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		req.Header.Set("X-Snatch-Timestamp", timestamp)
		req.Header.Set("X-Snatch-Signature", signPayload(w.config.Secret, timestamp, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func signPayload(secret, timestamp string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(timestamp))
	h.Write([]byte("."))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func signupEvent(accountID string) Event {
	return Event{Name: EventSignup, AccountID: accountID, Params: map[string]any{"method": "email"}}
}

func loginEvent(accountID string) Event {
	return Event{Name: EventLogin, AccountID: accountID, Params: map[string]any{"method": "email"}}
}

func searchEvent(accountID, term string, results int) Event {
	return Event{Name: EventSearch, AccountID: accountID, Params: map[string]any{
		"search_term":   term,
		"results_count": results,
	}}
}

func purchaseEvent(accountID, plan string, value float64) Event {
	return Event{Name: EventPurchase, AccountID: accountID, Params: map[string]any{
		"currency": "USD",
		"value":    value,
		"item_id":  plan,
		"category": "subscription",
	}}
}

func claimEvent(accountID, name string) Event {
	return Event{Name: EventClaimName, AccountID: accountID, Params: map[string]any{"business_name": name}}
}
