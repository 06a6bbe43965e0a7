package physics

import (
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Diagnostic categories. Each one is rate limited on its own so a flood in
// one doesn't hide the others.
const (
	DiagDuplicatePair = "duplicate-pair"
	DiagRecoveryCap   = "recovery-cap"
	DiagContract      = "contract"
)

// Diagnostics logs invariant violations without flooding the log when a
// broken content setup triggers them every sub-step.
type Diagnostics struct {
	logger   *zap.Logger
	limit    Limiter
	limiters map[string]*rate.Limiter
	dropped  map[string]int
}

func newDiagnostics(logger *zap.Logger, limit Limiter) *Diagnostics {
	return &Diagnostics{
		logger:   logger,
		limit:    limit,
		limiters: make(map[string]*rate.Limiter),
		dropped:  make(map[string]int),
	}
}

// Warn logs msg under category unless the category is over its budget.
func (d *Diagnostics) Warn(category, msg string, fields ...zap.Field) {
	l, ok := d.limiters[category]
	if !ok {
		l = d.limit.Limiter()
		d.limiters[category] = l
	}
	if !l.Allow() {
		d.dropped[category]++
		return
	}
	if n := d.dropped[category]; n > 0 {
		fields = append(fields, zap.Int("suppressed", n))
		d.dropped[category] = 0
	}
	d.logger.Warn(msg, append(fields, zap.String("category", category))...)
}

// Dropped returns how many messages of category were suppressed since the
// last one that got through.
func (d *Diagnostics) Dropped(category string) int {
	return d.dropped[category]
}
