package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/polis-console/internal/domain"
	"github.com/xela07ax/polis-console/internal/infra"
)

// DashboardProvider описывает требования к источнику агрегатов
type DashboardProvider interface {
	GetDashboardStats(ctx context.Context) (*domain.DashboardStats, error)
}

type DashboardService struct {
	repo DashboardProvider
	rdb  *redis.Client

	// Агрегаты кэшируются, чтобы аналитические запросы не били по
	// Postgres при каждом обновлении экрана
	cacheTTL time.Duration
}

func NewDashboardService(repo DashboardProvider, rdb *redis.Client) *DashboardService {
	return &DashboardService{
		repo:     repo,
		rdb:      rdb,
		cacheTTL: time.Minute,
	}
}

func (s *DashboardService) GetStats(ctx context.Context) (*domain.DashboardStats, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, infra.RedisKeyPendingCounts).Bytes(); err == nil {
			var d domain.DashboardStats
			if json.Unmarshal(cached, &d) == nil {
				return &d, nil
			}
		}
	}

	d, err := s.repo.GetDashboardStats(ctx)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(d); err == nil {
			// Промах кэша не критичен, ошибку записи глотаем
			s.rdb.Set(ctx, infra.RedisKeyPendingCounts, payload, s.cacheTTL)
		}
	}
	return d, nil
}
