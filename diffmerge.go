// Package diffmerge computes character-level differences between texts,
// turns them into relocatable patches, and merges two edited copies of a
// common ancestor.
//
// The diff engine follows Myers' O(ND) bisection with the speedups described
// in Neil Fraser's "Diff Strategies":
//   - Common prefix/suffix stripping and containment shortcuts
//   - Half-match splitting when the texts share a long substring
//   - A line-level pass before rediffing changed blocks character by character
//   - Cleanup passes that move edits onto word and line boundaries
//
// All offsets and lengths reported by this package count runes, not bytes.
package diffmerge

import (
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
)

// Operation identifies the type of a diff entry.
type Operation int8

const (
	// Delete means the text is present in the source but not in the target.
	Delete Operation = -1
	// Equal means the text is unchanged.
	Equal Operation = 0
	// Insert means the text is present in the target but not in the source.
	Insert Operation = 1
)

// String returns a string representation of the Operation.
func (op Operation) String() string {
	switch op {
	case Delete:
		return "Delete"
	case Equal:
		return "Equal"
	case Insert:
		return "Insert"
	default:
		return "Unknown"
	}
}

// Diff is one entry of a diff script.
type Diff struct {
	Type Operation
	Text string
}

// MatchMaxBits is the longest pattern the bitap matcher accepts.
const MatchMaxBits = 32

// MaxPatchMargin is the widest patch context that still leaves room for
// changed text inside a pattern of MatchMaxBits.
const MaxPatchMargin = MatchMaxBits/2 - 1

// lineModeThreshold is the length both texts must exceed before a line-level
// pass is attempted.
const lineModeThreshold = 100

// options holds the engine tunables.
type options struct {
	timeout              time.Duration
	editCost             int
	matchThreshold       float64
	matchDistance        int
	patchDeleteThreshold float64
	patchMargin          int
	logger               *slog.Logger
	meter                metric.Meter
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() *options {
	return &options{
		timeout:              time.Second,
		editCost:             4,
		matchThreshold:       0.5,
		matchDistance:        1000,
		patchDeleteThreshold: 0.5,
		patchMargin:          4,
		logger:               slog.New(slog.NewTextHandler(io.Discard, nil)),
		meter:                noopmetric.NewMeterProvider().Meter("diffmerge"),
	}
}

// Option configures an Engine.
type Option func(*options)

// WithTimeout bounds how long a single diff may run before the engine falls
// back to a coarser result. 0 means no limit.
// Default: 1s.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d < 0 {
			d = 0
		}
		o.timeout = d
	}
}

// WithEditCost sets the cost of an empty edit in characters, used by
// CleanupEfficiency.
// Default: 4.
func WithEditCost(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.editCost = n
		}
	}
}

// WithMatchThreshold sets the score above which no match is declared
// (0.0 = perfection, 1.0 = very loose).
// Default: 0.5.
func WithMatchThreshold(t float64) Option {
	return func(o *options) {
		o.matchThreshold = clamp01(t)
	}
}

// WithMatchDistance sets how far from the expected location a match may be.
// A match this many characters away adds 1.0 to its score. 0 demands the
// exact location.
// Default: 1000.
func WithMatchDistance(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.matchDistance = n
		}
	}
}

// WithPatchDeleteThreshold sets how closely the contents of a large deletion
// must match the expected contents when a patch is applied
// (0.0 = perfection, 1.0 = very loose).
// Default: 0.5.
func WithPatchDeleteThreshold(t float64) Option {
	return func(o *options) {
		o.patchDeleteThreshold = clamp01(t)
	}
}

// WithPatchMargin sets the context size kept around each patch. Values
// outside [0, MaxPatchMargin] are ignored.
// Default: 4.
func WithPatchMargin(n int) Option {
	return func(o *options) {
		if n >= 0 && n <= MaxPatchMargin {
			o.patchMargin = n
		}
	}
}

// WithLogger routes debug events (bisect fallbacks, rejected patches, merge
// conflicts) to l.
// Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMeter records engine counters on m.
// Default: a noop meter.
func WithMeter(m metric.Meter) Option {
	return func(o *options) {
		if m != nil {
			o.meter = m
		}
	}
}

// Engine runs diff, match, patch and merge operations with a fixed set of
// tunables. An Engine is immutable after New and safe for concurrent use.
type Engine struct {
	opts    options
	log     *slog.Logger
	metrics *engineMetrics
}

// New returns an Engine configured by opts.
func New(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Engine{
		opts:    *o,
		log:     o.logger,
		metrics: newEngineMetrics(o.meter, o.logger),
	}
}

// deadline returns the wall-clock cutoff for a diff started now, or the zero
// time when diffs are unbounded.
func (e *Engine) deadline() time.Time {
	if e.opts.timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(e.opts.timeout)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
