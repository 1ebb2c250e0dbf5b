package domain

// DashboardStats — агрегаты для главного экрана консоли
type DashboardStats struct {
	StatusCounts   map[string]int64 `json:"status_counts"` // Полисы по статусам
	TotalPolicies  int64            `json:"total_policies"`
	FlaggedRatio   float64          `json:"flagged_ratio"` // Доля помеченных fraud-проверкой
	HourlyActivity []ActivityPoint  `json:"hourly_activity"`
	P95LatencyMs   float64          `json:"p95_latency_ms"` // По операционному аудиту за час
}

type ActivityPoint struct {
	Hour  string `json:"hour"`
	Count int64  `json:"count"`
}
