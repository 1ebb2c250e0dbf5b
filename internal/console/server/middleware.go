package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/xela07ax/polis-console/internal/audit"
	"github.com/xela07ax/polis-console/internal/console"
	"github.com/xela07ax/polis-console/internal/infra/auth"
)

// Тип для ключа в контексте (избегаем коллизий)
type ctxKey string

const traceIDKey ctxKey = "trace_id"

// TracingMiddleware инициализирует Trace-ID для каждого запроса
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Пытаемся достать ID из заголовка (если пришел от прокси)
		traceID := r.Header.Get("X-Trace-ID")

		// 2. Если его нет — генерируем новый
		if traceID == "" {
			traceID = uuid.New().String()
		}

		// 3. Кладем в контекст
		ctx := context.WithValue(r.Context(), traceIDKey, traceID)

		// 4. Добавляем в ответ, чтобы клиент тоже знал ID своего запроса
		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TraceID помогает безопасно достать ID в любом месте кода
func TraceID(ctx context.Context) string {
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		return id
	}
	return "00000000-0000-0000-0000-000000000000" // Fallback
}

// ObserveMiddleware снимает метрики и пишет событие в операционный аудит.
// Событие уходит в неблокирующий Trail — задержки БД не влияют на ответ.
func ObserveMiddleware(metrics *console.Metrics, trail audit.Auditor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)

			// Паттерн роута доступен только после прохождения chi
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}

			metrics.TotalRequests.WithLabelValues(route, r.Method).Inc()
			metrics.RequestDuration.
				WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).
				Observe(duration.Seconds())

			trail.Log(audit.Event{
				ID:         uuid.New().String(),
				TraceID:    TraceID(r.Context()),
				ActorID:    auth.UserID(r.Context()),
				Role:       auth.UserRole(r.Context()),
				Method:     r.Method,
				Route:      route,
				PolicyID:   chi.URLParam(r, "id"),
				Status:     ww.Status(),
				DurationMs: duration.Milliseconds(),
			})
		})
	}
}
