package bench

import (
	"time"

	"go.uber.org/zap"
)

// Timer measures one phase at a time and logs its elapsed time.
type Timer struct {
	logger  *zap.Logger
	now     func() time.Time
	started time.Time
}

// NewTimer returns a started timer. A nil logger disables logging.
func NewTimer(logger *zap.Logger) *Timer {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Timer{logger: logger, now: time.Now}
	t.Start()
	return t
}

// Start restarts the timer.
func (t *Timer) Start() { t.started = t.now() }

// Elapsed returns the time since the last Start.
func (t *Timer) Elapsed() time.Duration { return t.now().Sub(t.started) }

// Stop logs the elapsed time under phase and returns it.
func (t *Timer) Stop(phase string) time.Duration {
	elapsed := t.Elapsed()
	t.logger.Info(phase, zap.Duration("elapsed", elapsed))
	return elapsed
}
