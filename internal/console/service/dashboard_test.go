package service

import (
	"context"
	"testing"

	"github.com/xela07ax/polis-console/internal/domain"
)

type fakeDashProvider struct {
	calls int
	stats *domain.DashboardStats
}

func (f *fakeDashProvider) GetDashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	f.calls++
	return f.stats, nil
}

func TestDashboardStatsWithoutCache(t *testing.T) {
	provider := &fakeDashProvider{stats: &domain.DashboardStats{
		StatusCounts:  map[string]int64{"draft": 3, "approved": 1},
		TotalPolicies: 4,
	}}
	svc := NewDashboardService(provider, nil)

	got, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if got.TotalPolicies != 4 || got.StatusCounts["draft"] != 3 {
		t.Fatalf("unexpected stats: %+v", got)
	}

	// Без redis каждый вызов идет в хранилище
	if _, err := svc.GetStats(context.Background()); err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if provider.calls != 2 {
		t.Fatalf("expected 2 provider calls, got %d", provider.calls)
	}
}
