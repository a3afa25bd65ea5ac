package diffmerge

import "time"

// diffContext holds the state shared by every recursive step of one diff.
type diffContext struct {
	deadline  time.Time // zero means no deadline
	halfMatch bool      // half-match is skipped when time is unlimited
	fallbacks int       // bisections that gave up at the deadline
}

// newDiffContext creates the state for a diff started now.
func (e *Engine) newDiffContext() *diffContext {
	return &diffContext{
		deadline:  e.deadline(),
		halfMatch: e.opts.timeout > 0,
	}
}

// expired reports whether the deadline has passed.
func (dc *diffContext) expired() bool {
	return !dc.deadline.IsZero() && time.Now().After(dc.deadline)
}

// finish reports the context's counters to the engine.
func (e *Engine) finish(dc *diffContext) {
	if dc.fallbacks == 0 {
		return
	}
	for i := 0; i < dc.fallbacks; i++ {
		e.metrics.bisectFallback()
	}
	e.log.Debug("diff deadline reached", "fallbacks", dc.fallbacks, "timeout", e.opts.timeout)
}
