package risk

import (
	"math/rand"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// Assessment — результат fraud-проверки полиса.
// Проверка никогда не блокирует создание, только аннотирует запись.
type Assessment struct {
	Score   int    `json:"score"`
	Flagged bool   `json:"flagged"`
	Reason  string `json:"reason,omitempty"`
}

// Config — пороги скоринга. Значения по умолчанию см. infra.setDefaults.
type Config struct {
	PremiumThreshold float64 // Премия выше порога добавляет очки риска
	Cutoff           int     // Скор >= Cutoff => полис помечается
}

// Screener считает риск-скор из трех компонент:
// равномерно-случайной (демонстрационной, без реальной модели),
// порога по премии и эвристики формата имени клиента.
type Screener struct {
	cfg    Config
	rnd    func(n int) int // Инъекция источника случайности для тестов
	logger *zap.Logger
}

func NewScreener(cfg Config, logger *zap.Logger) *Screener {
	return &Screener{
		cfg:    cfg,
		rnd:    rand.Intn,
		logger: logger.Named("screener"),
	}
}

// NewScreenerWithRand позволяет подменить источник случайности (тесты)
func NewScreenerWithRand(cfg Config, rnd func(n int) int, logger *zap.Logger) *Screener {
	s := NewScreener(cfg, logger)
	s.rnd = rnd
	return s
}

const (
	randomCeiling  = 41 // Случайная компонента: 0..40 включительно
	premiumPenalty = 30
	namePenalty    = 30
)

// Screen выполняет проверку. Детеминированные компоненты считаются всегда,
// случайная добавляется сверху — итог сравнивается с фиксированным порогом.
func (s *Screener) Screen(customerName string, premium float64) Assessment {
	score := s.rnd(randomCeiling)
	var reasons []string

	if premium > s.cfg.PremiumThreshold {
		score += premiumPenalty
		reasons = append(reasons, "premium above threshold")
	}

	if !plausibleName(customerName) {
		score += namePenalty
		reasons = append(reasons, "customer name failed format check")
	}

	a := Assessment{
		Score:   score,
		Flagged: score >= s.cfg.Cutoff,
		Reason:  strings.Join(reasons, "; "),
	}

	if a.Flagged {
		s.logger.Warn("policy flagged by fraud screening",
			zap.Int("score", a.Score),
			zap.String("reason", a.Reason))
	}
	return a
}

// plausibleName — грубая эвристика формата ФИО: минимум два слова,
// без цифр, допускаются дефисы, апострофы и точки.
func plausibleName(name string) bool {
	name = strings.TrimSpace(name)
	if len(name) < 3 {
		return false
	}

	words := 0
	for _, w := range strings.Fields(name) {
		words++
		for _, r := range w {
			if unicode.IsDigit(r) {
				return false
			}
			if !unicode.IsLetter(r) && r != '-' && r != '\'' && r != '.' {
				return false
			}
		}
	}
	return words >= 2
}
