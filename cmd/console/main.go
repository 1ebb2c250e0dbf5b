package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/polis-console/internal/audit"
	"github.com/xela07ax/polis-console/internal/console"
	"github.com/xela07ax/polis-console/internal/console/handler"
	"github.com/xela07ax/polis-console/internal/console/server"
	"github.com/xela07ax/polis-console/internal/console/service"
	"github.com/xela07ax/polis-console/internal/infra"
	infraauth "github.com/xela07ax/polis-console/internal/infra/auth"
	"github.com/xela07ax/polis-console/internal/notify"
	"github.com/xela07ax/polis-console/internal/repository/postgres"
	"github.com/xela07ax/polis-console/internal/risk"
	"go.uber.org/zap"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 2. Ключи RS256: приватный для выпуска токенов, публичный для проверки
	privateKey, err := infraauth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		logger.Fatal("failed to parse private key", zap.Error(err))
	}
	publicKey, err := infraauth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		logger.Fatal("failed to parse public key", zap.Error(err))
	}
	validator := infraauth.NewBaseValidator(publicKey)

	// 3. Инфраструктура и ресурсы
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	store, err := postgres.NewStore(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		logger.Fatal("failed to create store", zap.Error(err))
	}
	if err := store.Ping(ctx); err != nil {
		logger.Fatal("database unreachable", zap.Error(err))
	}
	cancel()
	defer store.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 4. Метрики и операционный аудит
	reg := prometheus.NewRegistry()
	metrics := console.NewMetrics(reg)

	trail := audit.NewTrail(store, logger)
	trail.Start()

	// Периодически публикуем заполненность буфера аудита
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-appCtx.Done():
				return
			case <-ticker.C:
				metrics.AuditBufferFill.Set(float64(trail.Pending()))
			}
		}
	}()

	// 5. Инициализация слоев (Dependency Injection)
	screener := risk.NewScreener(risk.Config{
		PremiumThreshold: cfg.Fraud.PremiumThreshold,
		Cutoff:           cfg.Fraud.Cutoff,
	}, logger)

	notifier := notify.NewWebhookNotifier(notify.Config{
		URL:           cfg.Webhook.URL,
		CallTimeout:   cfg.Webhook.CallTimeout,
		CBMaxRequests: cfg.Webhook.CBMaxRequests,
		CBInterval:    cfg.Webhook.CBInterval,
		CBTimeout:     cfg.Webhook.CBTimeout,
	}, metrics.WebhookBreakerState, logger)

	policyService := service.NewPolicyService(store, screener, rdb, notifier, metrics, logger)
	authService := service.NewAuthService(store, privateKey, cfg.Auth.TokenTTL, cfg.Auth.BcryptCost)
	auditService := service.NewAuditService(store)
	dashService := service.NewDashboardService(store, rdb)

	srvHandler := server.NewConsoleServer(
		cfg,
		logger,
		validator,
		metrics,
		reg,
		trail,
		handler.NewAuthHandler(authService),
		handler.NewPolicyHandler(policyService),
		handler.NewDashboardHandler(dashService),
		handler.NewAuditHandler(auditService),
	)

	// 6. HTTP Server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srvHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("console API started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("console API stopping...")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	// Останавливаем аудит последним: Final Flush вычитает буфер в БД
	trail.Stop()
	logger.Info("console API exited properly")
}
