package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xela07ax/polis-console/internal/domain"
	"go.uber.org/zap"
)

func testEvent() domain.DecisionEvent {
	return domain.DecisionEvent{
		PolicyID:   "p-1",
		FromStatus: domain.StatusPendingManager,
		ToStatus:   domain.StatusApproved,
		Action:     domain.ActionApprove,
		ActorID:    "mgr-1",
		Role:       domain.RoleManager,
	}
}

func testConfig(url string) Config {
	return Config{
		URL:           url,
		CallTimeout:   2 * time.Second,
		CBMaxRequests: 3,
		CBInterval:    5 * time.Second,
		CBTimeout:     30 * time.Second,
	}
}

func TestWebhookDelivers(t *testing.T) {
	var got domain.DecisionEvent
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode webhook body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(testConfig(srv.URL), nil, zap.NewNop())
	n.DecisionFinalized(context.Background(), testEvent())

	if contentType != "application/json" {
		t.Fatalf("expected application/json, got %q", contentType)
	}
	if got.PolicyID != "p-1" || got.ToStatus != domain.StatusApproved {
		t.Fatalf("unexpected delivered event: %+v", got)
	}
}

func TestWebhookRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(testConfig(srv.URL), nil, zap.NewNop())
	n.DecisionFinalized(context.Background(), testEvent())

	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestWebhookHonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			// нулевая пауза, чтобы тест не спал
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(testConfig(srv.URL), nil, zap.NewNop())
	n.DecisionFinalized(context.Background(), testEvent())

	if got := calls.Load(); got != 2 {
		t.Fatalf("expected retry after 429, got %d attempts", got)
	}
}

func TestWebhookGivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(testConfig(srv.URL), nil, zap.NewNop())
	// Доставка best-effort: отказ приемника не должен всплывать наружу
	n.DecisionFinalized(context.Background(), testEvent())

	if got := calls.Load(); got != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", got)
	}
}

func TestEmptyURLMeansNoop(t *testing.T) {
	n := NewWebhookNotifier(Config{}, nil, zap.NewNop())
	if _, ok := n.(*NoopNotifier); !ok {
		t.Fatalf("expected NoopNotifier, got %T", n)
	}
	// Не паникует и никуда не ходит
	n.DecisionFinalized(context.Background(), testEvent())
}

func TestThrottleErrorMessage(t *testing.T) {
	e := &ThrottleError{RetryAfter: 2 * time.Second}
	if e.Error() == "" {
		t.Fatal("expected non-empty error message")
	}
}
