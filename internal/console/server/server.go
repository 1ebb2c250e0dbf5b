package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xela07ax/polis-console/internal/audit"
	"github.com/xela07ax/polis-console/internal/console"
	"github.com/xela07ax/polis-console/internal/console/handler"
	"github.com/xela07ax/polis-console/internal/infra"
	"github.com/xela07ax/polis-console/internal/infra/auth"
	"go.uber.org/zap"
)

type ConsoleServer struct {
	router  *chi.Mux
	logger  *zap.Logger
	cfg     *infra.Config
	metrics *console.Metrics
	trail   audit.Auditor

	// Интерфейс для проверки токенов (RS256)
	authValidator auth.TokenValidator

	// Реестр prometheus для эндпоинта /metrics
	promRegistry *prometheus.Registry

	// Обработчики бизнес-доменов
	authHandler   *handler.AuthHandler      // /auth/*
	policyHandler *handler.PolicyHandler    // /v1/policies
	dashHandler   *handler.DashboardHandler // /api/v1/dashboard
	auditHandler  *handler.AuditHandler     // /v1/audit
}

// NewConsoleServer инициализирует сервер консоли со всеми зависимостями
func NewConsoleServer(
	cfg *infra.Config,
	logger *zap.Logger,
	validator auth.TokenValidator,
	metrics *console.Metrics,
	promRegistry *prometheus.Registry,
	trail audit.Auditor,
	authH *handler.AuthHandler,
	policyH *handler.PolicyHandler,
	dashH *handler.DashboardHandler,
	auditH *handler.AuditHandler,
) *ConsoleServer {
	s := &ConsoleServer{
		router:        chi.NewRouter(),
		logger:        logger.Named("console-api"),
		cfg:           cfg,
		metrics:       metrics,
		promRegistry:  promRegistry,
		trail:         trail,
		authValidator: validator,
		authHandler:   authH,
		policyHandler: policyH,
		dashHandler:   dashH,
		auditHandler:  auditH,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(TracingMiddleware)

	observe := ObserveMiddleware(s.metrics, s.trail)

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ (открыты для всех) ---
	r.Group(func(r chi.Router) {
		r.Use(observe)

		// Регистрация и логин доступны без токена;
		// логин прикрыт лимитером от перебора паролей
		r.Post("/auth/signup", s.authHandler.Signup)
		r.With(auth.LoginLimiter(s.cfg.Auth.LoginRatePerSec, s.cfg.Auth.LoginBurst)).
			Post("/auth/token", s.authHandler.Login)

		// Healthcheck для мониторинга
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	// Метрики без аудита, чтобы скрейпер не засорял журнал
	if s.promRegistry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}))
	}

	// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР (требуют RS256 токен) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.authValidator, s.logger))
		// Observe после Auth: в событии аудита будет актор
		r.Use(observe)

		// Профиль текущего пользователя
		r.Get("/auth/me", s.authHandler.Me)

		// Dashboard & Stats
		r.Get("/api/v1/dashboard/stats", s.dashHandler.GetStats)

		// Полисы и контур согласования
		r.Route("/v1/policies", func(r chi.Router) {
			r.Get("/", s.policyHandler.List)
			r.Post("/", s.policyHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.policyHandler.Get)
				r.Put("/", s.policyHandler.Update)
				r.Delete("/", s.policyHandler.Delete)
				r.Post("/submit", s.policyHandler.Submit) // draft -> pending_underwriter
				r.Post("/decide", s.policyHandler.Decide) // approve/reject текущей ступени
				r.Get("/log", s.policyHandler.Log)        // Журнал согласования
			})
		})

		// Операционный аудит (Observability)
		r.Get("/v1/audit", s.auditHandler.GetEvents)
	})
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
