package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AdvisorCollector bundles Prometheus metrics for alignment sessions and
// the HTTP surfaces that expose them.
type AdvisorCollector struct {
	gatherer prometheus.Gatherer

	Samples         *prometheus.CounterVec
	Recommendations *prometheus.CounterVec
	DecayCleared    prometheus.Counter
	TickDuration    prometheus.Histogram

	KnownCells      prometheus.Gauge
	TotalConfidence prometheus.Gauge
	PeakPower       prometheus.Gauge
	LinkSNR         *prometheus.GaugeVec

	HTTPRequests *prometheus.CounterVec
}

// NewAdvisorCollector registers advisor metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewAdvisorCollector(reg prometheus.Registerer) (*AdvisorCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	samples, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "alignment_samples_total",
		Help: "Power samples submitted to the advisor, labeled by addressing mode and outcome.",
	}, []string{"mode", "outcome"}), "alignment_samples_total")
	if err != nil {
		return nil, err
	}

	recs, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "alignment_recommendations_total",
		Help: "Move recommendations served, labeled by direction and heuristic.",
	}, []string{"direction", "source"}), "alignment_recommendations_total")
	if err != nil {
		return nil, err
	}

	cleared, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "alignment_decay_cleared_cells_total",
		Help: "Cells forgotten because their confidence decayed to zero.",
	}), "alignment_decay_cleared_cells_total")
	if err != nil {
		return nil, err
	}

	tick, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "alignment_tick_duration_seconds",
		Help:    "Time spent applying pending samples and decaying per tick.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}), "alignment_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	known, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "alignment_known_cells",
		Help: "Grid cells currently holding an estimate.",
	}), "alignment_known_cells")
	if err != nil {
		return nil, err
	}
	confidence, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "alignment_total_confidence",
		Help: "Sum of confidence over the grid.",
	}), "alignment_total_confidence")
	if err != nil {
		return nil, err
	}
	peak, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "alignment_peak_power_dbm",
		Help: "Highest estimated received power on the grid.",
	}), "alignment_peak_power_dbm")
	if err != nil {
		return nil, err
	}
	snr, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "link_snr_db",
		Help: "Modelled SNR per link direction.",
	}, []string{"direction"}), "link_snr_db")
	if err != nil {
		return nil, err
	}

	httpRequests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "alignment_http_requests_total",
		Help: "HTTP requests served by the stream and metrics endpoints, labeled by path and status code.",
	}, []string{"path", "code"}), "alignment_http_requests_total")
	if err != nil {
		return nil, err
	}

	return &AdvisorCollector{
		gatherer:        gatherer,
		Samples:         samples,
		Recommendations: recs,
		DecayCleared:    cleared,
		TickDuration:    tick,
		KnownCells:      known,
		TotalConfidence: confidence,
		PeakPower:       peak,
		LinkSNR:         snr,
		HTTPRequests:    httpRequests,
	}, nil
}

// RecordSample counts one submitted sample.
func (c *AdvisorCollector) RecordSample(mode string, applied bool) {
	if c == nil || c.Samples == nil {
		return
	}
	outcome := "applied"
	if !applied {
		outcome = "dropped"
	}
	c.Samples.WithLabelValues(mode, outcome).Inc()
}

// RecordTick observes one session tick.
func (c *AdvisorCollector) RecordTick(d time.Duration, cleared int) {
	if c == nil {
		return
	}
	if c.TickDuration != nil {
		c.TickDuration.Observe(d.Seconds())
	}
	if c.DecayCleared != nil && cleared > 0 {
		c.DecayCleared.Add(float64(cleared))
	}
}

// SetGridState publishes the grid summary gauges. The peak gauge is left
// untouched when hasPeak is false.
func (c *AdvisorCollector) SetGridState(known int, totalConfidence float64, peakDBm float64, hasPeak bool) {
	if c == nil {
		return
	}
	if c.KnownCells != nil {
		c.KnownCells.Set(float64(known))
	}
	if c.TotalConfidence != nil {
		c.TotalConfidence.Set(totalConfidence)
	}
	if c.PeakPower != nil && hasPeak {
		c.PeakPower.Set(peakDBm)
	}
}

// RecordRecommendation counts one served recommendation.
func (c *AdvisorCollector) RecordRecommendation(direction, source string) {
	if c == nil || c.Recommendations == nil {
		return
	}
	c.Recommendations.WithLabelValues(direction, source).Inc()
}

// SetLinkSNR publishes the modelled SNR for one link direction.
func (c *AdvisorCollector) SetLinkSNR(direction string, snrDB float64) {
	if c == nil || c.LinkSNR == nil {
		return
	}
	c.LinkSNR.WithLabelValues(direction).Set(snrDB)
}

// Handler exposes a ready-to-use /metrics handler.
func (c *AdvisorCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return c.InstrumentHandler("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

// InstrumentHandler counts requests to next under the given path label.
func (c *AdvisorCollector) InstrumentHandler(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		if c == nil || c.HTTPRequests == nil {
			return
		}
		c.HTTPRequests.WithLabelValues(path, strconv.Itoa(rec.code)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer, which
// the websocket upgrader needs for hijacking.
func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
