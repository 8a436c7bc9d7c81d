// Package session hosts one advisor estimator behind a lock and paces it
// with an external tick: samples queue up between ticks, each tick applies
// them in order and decays exactly once, and views are rebuilt lazily.
package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/dish-aligner/advisor"
	"github.com/signalsfoundry/dish-aligner/internal/logging"
	"github.com/signalsfoundry/dish-aligner/internal/observability"
	"github.com/signalsfoundry/dish-aligner/timectrl"
)

var (
	// ErrClosed is returned by every call after Close.
	ErrClosed = errors.New("session closed")
	// ErrWrongAddressing is returned when a sample uses an addressing mode
	// the underlying estimator does not support.
	ErrWrongAddressing = errors.New("sample addressing does not match estimator")
)

// Estimator is the advisor surface a session drives. Both
// *advisor.AbsoluteEstimator and *advisor.ManualEstimator satisfy it.
type Estimator interface {
	RecordInPlace(dbm float64) (advisor.Cell, bool)
	Decay() int
	Reset()
	Origin() advisor.Cell
	Cells() []advisor.CellState
	Snapshot() advisor.Snapshot
	Reconstruct(k advisor.Kernel) advisor.Field
	RecommendMove() advisor.Recommendation
}

type absoluteSampler interface {
	AddAbsoluteSample(azDeg, elDeg, dbm float64) (advisor.Cell, bool)
}

type relativeSampler interface {
	AddRelativeSample(d advisor.Direction, dbm float64) (advisor.Cell, bool)
}

// MetricsRecorder receives session activity. The observability collector
// implements it.
type MetricsRecorder interface {
	RecordSample(mode string, applied bool)
	RecordTick(d time.Duration, cleared int)
	SetGridState(known int, totalConfidence, peakDBm float64, hasPeak bool)
	RecordRecommendation(direction, source string)
}

// Sample addressing modes, also used as metric labels.
const (
	ModeAbsolute = "absolute"
	ModeRelative = "relative"
	ModeInPlace  = "in_place"
)

type sample struct {
	mode      string
	az, el    float64
	direction advisor.Direction
	dbm       float64
}

// TickResult summarises one tick.
type TickResult struct {
	Tick    int `json:"tick"`
	Applied int `json:"applied"`
	Dropped int `json:"dropped"`
	Cleared int `json:"cleared"`
}

// View is what rendering and guidance layers consume. Every call to
// Session.View hands out its own Known slice; Field has no mutators.
type View struct {
	SessionID      string                 `json:"session_id"`
	Tick           int                    `json:"tick"`
	Time           time.Time              `json:"time"`
	Origin         advisor.Cell           `json:"origin"`
	Snapshot       advisor.Snapshot       `json:"snapshot"`
	Field          advisor.Field          `json:"field"`
	Recommendation advisor.Recommendation `json:"recommendation"`

	// Known lists the raw cells holding an estimate, row-major.
	Known []advisor.CellState `json:"known"`
}

// Session owns an estimator. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id      string
	est     Estimator
	kernel  advisor.Kernel
	clock   timectrl.Clock
	log     logging.Logger
	metrics MetricsRecorder
	tracer  trace.Tracer

	pending []sample
	ticks   int
	view    *View
	closed  bool
}

// Option customises Session construction.
type Option func(*Session)

// WithLogger attaches a structured logger; it is annotated with the
// session id.
func WithLogger(l logging.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics attaches an optional metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithTracer overrides the tracer spans are started on.
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithKernel sets the reconstruction kernel used by View.
func WithKernel(k advisor.Kernel) Option {
	return func(s *Session) {
		s.kernel = k
	}
}

// WithClock sets the clock stamped on views.
func WithClock(c timectrl.Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now().UTC() }

// New wraps est in a session.
func New(ctx context.Context, est Estimator, opts ...Option) *Session {
	s := &Session{
		est:    est,
		kernel: advisor.DefaultKernel(),
		clock:  wallClock{},
		log:    logging.Noop(),
		tracer: observability.Tracer(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	ctx, s.id = logging.EnsureSessionID(ctx)
	_, s.log = logging.WithSessionLogger(ctx, s.log)
	s.log.Debug(ctx, "session created",
		logging.Int("kernel_radius", s.kernel.Radius),
		logging.Float64("kernel_sigma", s.kernel.Sigma),
	)
	return s
}

// ID returns the session id carried on logs and views.
func (s *Session) ID() string { return s.id }

// SubmitAbsolute queues a reading taken at an absolute direction.
func (s *Session) SubmitAbsolute(azDeg, elDeg, dbm float64) error {
	if _, ok := s.est.(absoluteSampler); !ok {
		return ErrWrongAddressing
	}
	return s.enqueue(sample{mode: ModeAbsolute, az: azDeg, el: elDeg, dbm: dbm})
}

// SubmitRelative queues a reading taken after a one-cell move.
func (s *Session) SubmitRelative(d advisor.Direction, dbm float64) error {
	if _, ok := s.est.(relativeSampler); !ok {
		return ErrWrongAddressing
	}
	return s.enqueue(sample{mode: ModeRelative, direction: d, dbm: dbm})
}

// SubmitInPlace queues a reading at the current origin.
func (s *Session) SubmitInPlace(dbm float64) error {
	return s.enqueue(sample{mode: ModeInPlace, dbm: dbm})
}

func (s *Session) enqueue(smp sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.pending = append(s.pending, smp)
	return nil
}

// Pending returns how many samples await the next tick.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Tick applies every queued sample in submission order, then decays once.
func (s *Session) Tick(ctx context.Context) (TickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return TickResult{}, ErrClosed
	}

	ctx, span := s.tracer.Start(ctx, "session.tick",
		trace.WithAttributes(attribute.String("session_id", s.id)))
	defer span.End()

	start := time.Now()
	res := TickResult{}
	for _, smp := range s.pending {
		applied := s.apply(smp)
		if applied {
			res.Applied++
		} else {
			res.Dropped++
		}
		if s.metrics != nil {
			s.metrics.RecordSample(smp.mode, applied)
		}
	}
	s.pending = s.pending[:0]

	res.Cleared = s.est.Decay()
	s.ticks++
	res.Tick = s.ticks
	s.view = nil

	if s.metrics != nil {
		s.metrics.RecordTick(time.Since(start), res.Cleared)
	}
	span.SetAttributes(
		attribute.Int("tick", res.Tick),
		attribute.Int("samples.applied", res.Applied),
		attribute.Int("samples.dropped", res.Dropped),
		attribute.Int("cells.cleared", res.Cleared),
	)
	if res.Dropped > 0 {
		s.log.Warn(ctx, "samples dropped",
			logging.Int("tick", res.Tick),
			logging.Int("dropped", res.Dropped),
		)
	}
	s.log.Debug(ctx, "tick applied",
		logging.Int("tick", res.Tick),
		logging.Int("applied", res.Applied),
		logging.Int("cleared", res.Cleared),
	)
	return res, nil
}

func (s *Session) apply(smp sample) bool {
	switch smp.mode {
	case ModeAbsolute:
		_, ok := s.est.(absoluteSampler).AddAbsoluteSample(smp.az, smp.el, smp.dbm)
		return ok
	case ModeRelative:
		_, ok := s.est.(relativeSampler).AddRelativeSample(smp.direction, smp.dbm)
		return ok
	default:
		_, ok := s.est.RecordInPlace(smp.dbm)
		return ok
	}
}

// View returns the current snapshot, reconstruction and recommendation.
// It is rebuilt only after a tick or reset invalidated the previous one.
func (s *Session) View(ctx context.Context) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return View{}, ErrClosed
	}
	if s.view != nil {
		return s.view.detached(), nil
	}

	_, span := s.tracer.Start(ctx, "session.view",
		trace.WithAttributes(attribute.String("session_id", s.id), attribute.Int("tick", s.ticks)))
	defer span.End()

	snap := s.est.Snapshot()
	rec := s.est.RecommendMove()
	v := View{
		SessionID:      s.id,
		Tick:           s.ticks,
		Time:           s.clock.Now(),
		Origin:         s.est.Origin(),
		Snapshot:       snap,
		Field:          s.est.Reconstruct(s.kernel),
		Recommendation: rec,
		Known:          knownCells(s.est.Cells()),
	}
	s.view = &v

	span.SetAttributes(
		attribute.Int("cells.known", snap.KnownCells),
		attribute.String("recommendation", rec.Direction.String()),
	)
	if s.metrics != nil {
		s.metrics.SetGridState(snap.KnownCells, snap.TotalConfidence, snap.PeakDBm, snap.HasData)
		s.metrics.RecordRecommendation(rec.Direction.String(), rec.Source.String())
	}
	return v.detached(), nil
}

// detached copies the slices a caller could write through to the cache.
func (v View) detached() View {
	v.Known = slices.Clone(v.Known)
	return v
}

func knownCells(cells []advisor.CellState) []advisor.CellState {
	out := cells[:0]
	for _, c := range cells {
		if c.Estimate.IsKnown() {
			out = append(out, c)
		}
	}
	return out
}

// Reset drops queued samples and forgets the grid.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	dropped := len(s.pending)
	s.pending = s.pending[:0]
	s.est.Reset()
	s.view = nil
	s.log.Info(ctx, "session reset", logging.Int("pending_dropped", dropped))
	return nil
}

// OnTick adapts the session to a timectrl listener. Tick errors are
// logged and otherwise ignored.
func (s *Session) OnTick(ctx context.Context) timectrl.Listener {
	return func(tick int, now time.Time) {
		if _, err := s.Tick(ctx); err != nil && !errors.Is(err, ErrClosed) {
			s.log.Error(ctx, "tick failed", logging.Int("tick", tick), logging.Err(err))
		}
	}
}

// Close releases the session. Later calls return ErrClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	s.pending = nil
	s.view = nil
	return nil
}
