package auth

import (
	"net/http"

	"golang.org/x/time/rate"
)

// LoginLimiter — грубая защита /auth/token от перебора паролей.
// Общий лимитер на инстанс: при превышении отдаем 429 без похода в БД.
func LoginLimiter(perSec float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(perSec), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
