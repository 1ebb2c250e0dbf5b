package notify

/*
Пакет notify доставляет финальные решения по полисам (approved/rejected)
во внешнюю систему через вебхук. Доставка best-effort: сбой вебхука
не откатывает решение, уже зафиксированное в БД.
*/

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"github.com/xela07ax/polis-console/internal/domain"
	"go.uber.org/zap"
)

// ThrottleError сигнализирует, что приемник попросил подождать (Retry-After)
type ThrottleError struct {
	RetryAfter time.Duration
	Cause      error
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("throttled: retry after %v (cause: %v)", e.RetryAfter, e.Cause)
}

type Notifier interface {
	DecisionFinalized(ctx context.Context, event domain.DecisionEvent)
}

// WebhookNotifier шлет POST с JSON-событием. Обернут в Retry и
// Circuit Breaker, чтобы деградация приемника не копила горутины.
type WebhookNotifier struct {
	url         string
	client      *http.Client
	cb          *gobreaker.CircuitBreaker
	callTimeout time.Duration
	logger      *zap.Logger
}

type Config struct {
	URL           string
	CallTimeout   time.Duration
	CBMaxRequests uint32
	CBInterval    time.Duration
	CBTimeout     time.Duration
}

// NewWebhookNotifier возвращает nil-безопасный нотификатор.
// Пустой URL означает NoopNotifier — консоль работает без внешней доставки.
func NewWebhookNotifier(cfg Config, breakerGauge prometheus.Gauge, logger *zap.Logger) Notifier {
	if cfg.URL == "" {
		return &NoopNotifier{}
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "decision-webhook",
		MaxRequests: cfg.CBMaxRequests,
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if breakerGauge != nil {
				if to == gobreaker.StateOpen {
					breakerGauge.Set(1)
				} else {
					breakerGauge.Set(0)
				}
			}
			logger.Warn("webhook breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &WebhookNotifier{
		url:         cfg.URL,
		client:      &http.Client{},
		cb:          cb,
		callTimeout: cfg.CallTimeout,
		logger:      logger.Named("webhook"),
	}
}

// DecisionFinalized доставляет событие. Вызывается после коммита транзакции,
// поэтому любые ошибки здесь только логируются.
func (n *WebhookNotifier) DecisionFinalized(ctx context.Context, event domain.DecisionEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("failed to marshal decision event", zap.Error(err))
		return
	}

	_, err = n.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(3),
			// Если приемник вернул Retry-After — уважаем его,
			// иначе стандартный экспоненциальный бэкофф
			retry.DelayType(func(attempt uint, err error, config retry.DelayContext) time.Duration {
				var tErr *ThrottleError
				if errors.As(err, &tErr) {
					return tErr.RetryAfter
				}
				return retry.BackOffDelay(attempt, err, config)
			}),
		)

		return nil, r.Do(func() error {
			tCtx, cancel := context.WithTimeout(ctx, n.callTimeout)
			defer cancel()
			return n.post(tCtx, body)
		})
	})

	if err != nil {
		n.logger.Error("decision webhook delivery failed",
			zap.String("policy_id", event.PolicyID),
			zap.String("to_status", string(event.ToStatus)),
			zap.Error(err))
		return
	}

	n.logger.Info("decision webhook delivered",
		zap.String("policy_id", event.PolicyID),
		zap.String("to_status", string(event.ToStatus)))
}

func (n *WebhookNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := 2 * time.Second
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, perr := strconv.Atoi(v); perr == nil {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return &ThrottleError{RetryAfter: retryAfter, Cause: fmt.Errorf("http 429")}
	case resp.StatusCode >= 300:
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// NoopNotifier используется, когда вебхук не сконфигурирован
type NoopNotifier struct{}

func (n *NoopNotifier) DecisionFinalized(context.Context, domain.DecisionEvent) {}
