package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/dish-aligner/advisor"
	"github.com/signalsfoundry/dish-aligner/core"
	"github.com/signalsfoundry/dish-aligner/internal/config"
	"github.com/signalsfoundry/dish-aligner/internal/logging"
	"github.com/signalsfoundry/dish-aligner/internal/observability"
	"github.com/signalsfoundry/dish-aligner/internal/pointing"
	"github.com/signalsfoundry/dish-aligner/internal/session"
	"github.com/signalsfoundry/dish-aligner/internal/sim"
	"github.com/signalsfoundry/dish-aligner/internal/stream"
	"github.com/signalsfoundry/dish-aligner/timectrl"
)

// overrides holds flags that, when set, replace scenario values.
type overrides struct {
	steps       *int
	tick        *time.Duration
	accelerated *bool
	metricsAddr *string
	streamAddr  *string
}

func main() {
	configPath := flag.String("config", "", "path to a YAML scenario file; built-in defaults when empty")
	ov := overrides{
		steps:       flag.Int("steps", 0, "maximum controller steps"),
		tick:        flag.Duration("tick", 0, "tick interval"),
		accelerated: flag.Bool("accelerated", true, "run in accelerated mode (vs real-time)"),
		metricsAddr: flag.String("metrics-addr", "", "HTTP address for Prometheus /metrics"),
		streamAddr:  flag.String("stream-addr", "", "HTTP address for the /ws live view"),
	}
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sc := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		sc = loaded
	}
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	sc = applyOverrides(sc, ov, set)
	if err := sc.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	log := logging.NewFromEnv(sc.Logging)
	if err := run(ctx, sc, log, os.Stdout); err != nil {
		log.Error(ctx, "simulation failed", logging.Err(err))
		os.Exit(1)
	}
}

// applyOverrides copies explicitly set flags onto sc.
func applyOverrides(sc config.Scenario, ov overrides, set map[string]bool) config.Scenario {
	if set["steps"] {
		sc.Simulation.Steps = *ov.steps
	}
	if set["tick"] {
		sc.Simulation.Tick = *ov.tick
	}
	if set["accelerated"] {
		sc.Simulation.Accelerated = *ov.accelerated
	}
	if set["metrics-addr"] {
		sc.Metrics.Addr = *ov.metricsAddr
	}
	if set["stream-addr"] {
		sc.Stream.Addr = *ov.streamAddr
	}
	return sc
}

// summary is the JSON document printed when a run ends.
type summary struct {
	SessionID        string                 `json:"session_id"`
	Mode             string                 `json:"mode"`
	Reference        pointing.Reference     `json:"reference"`
	TrueAzimuthDeg   float64                `json:"true_azimuth_deg"`
	TrueElevationDeg float64                `json:"true_elevation_deg"`
	Result           sim.Result             `json:"result"`
	Snapshot         advisor.Snapshot       `json:"snapshot"`
	Recommendation   advisor.Recommendation `json:"recommendation"`
	FinalLink        core.LinkReport        `json:"final_link"`
}

func run(ctx context.Context, sc config.Scenario, log logging.Logger, out io.Writer) error {
	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(sc.Tracing), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	ref, err := sc.Reference.Resolve(time.Now().UTC())
	if err != nil {
		return fmt.Errorf("resolve reference: %w", err)
	}

	collector, err := observability.NewAdvisorCollector(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	var hub *stream.Hub
	var servers []*http.Server
	if sc.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		servers = append(servers, serveHTTP(sc.Metrics.Addr, mux, "metrics", log))
	}
	if sc.Stream.Addr != "" {
		hub = stream.NewHub(log)
		defer hub.Close()
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", hub.ServeWS)
		servers = append(servers, serveHTTP(sc.Stream.Addr, mux, "stream", log))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			_ = srv.Shutdown(shutdownCtx)
		}
	}()

	est, err := newEstimator(sc, ref)
	if err != nil {
		return err
	}
	sess := session.New(ctx, est,
		session.WithLogger(log),
		session.WithMetrics(collector),
		session.WithTracer(observability.Tracer()),
		session.WithKernel(sc.Advisor.Kernel),
	)
	defer sess.Close()
	ctx = logging.ContextWithSessionID(ctx, sess.ID())

	truth := sim.TruthField{
		Link:           core.NewLinkModel(sc.Link),
		Geometry:       sc.Geometry,
		BoresightAzDeg: normalizeAzimuth(ref.AzimuthDeg + sc.Simulation.TrueAzimuthOffsetDeg),
		BoresightElDeg: ref.ElevationDeg + sc.Simulation.TrueElevationOffsetDeg,
	}

	clock := timectrl.NewTimeController(time.Now().UTC(), sc.Simulation.Tick, timectrl.ModeFor(sc.Simulation.Accelerated))
	clock.AddListener(sess.OnTick(ctx))

	ctrl := &sim.Controller{
		Session:     sess,
		Meter:       sim.NewMeter(truth, sc.Simulation.NoiseSigmaDB, uint64(sc.Simulation.Seed)),
		Clock:       clock,
		Log:         log,
		Config:      sc.Advisor.Config,
		ReferenceAz: ref.AzimuthDeg,
		ReferenceEl: ref.ElevationDeg,
		Manual:      sc.Advisor.Mode == config.ModeManual,
		Patience:    sc.Simulation.Patience,
		OnStep: func(ctx context.Context, step sim.StepResult, view session.View) {
			collector.SetLinkSNR("b_to_a", truth.Link.SNR(step.MeasuredDBm))
			if hub == nil {
				return
			}
			if err := hub.Publish(ctx, view); err != nil {
				log.Warn(ctx, "publish view failed", logging.Err(err))
			}
		},
	}

	log.Info(ctx, "starting alignment run",
		logging.String("mode", sc.Advisor.Mode),
		logging.String("reference_source", ref.Source),
		logging.Float64("reference_az_deg", ref.AzimuthDeg),
		logging.Float64("reference_el_deg", ref.ElevationDeg),
		logging.Int("steps", sc.Simulation.Steps),
		logging.String("clock", clock.Mode.String()),
	)

	res, err := ctrl.Run(ctx, sc.Simulation.Steps)
	if err != nil {
		return fmt.Errorf("run controller: %w", err)
	}

	final := truth.Link.BidirectionalLink(res.PointingErrorDeg, 0, truth.Geometry.Distance(), sc.Link.RainRateMmPerHour)
	log.Info(ctx, "alignment run finished",
		logging.String("reason", res.Reason),
		logging.Int("steps", res.Steps),
		logging.Float64("pointing_error_deg", res.PointingErrorDeg),
		logging.Float64("rmse_db", res.Evaluation.RMSEdB),
		logging.String("mcs", final.Bottleneck().MCS.Name),
	)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(summary{
		SessionID:        sess.ID(),
		Mode:             sc.Advisor.Mode,
		Reference:        ref,
		TrueAzimuthDeg:   truth.BoresightAzDeg,
		TrueElevationDeg: truth.BoresightElDeg,
		Result:           res,
		Snapshot:         res.View.Snapshot,
		Recommendation:   res.View.Recommendation,
		FinalLink:        final,
	})
}

func newEstimator(sc config.Scenario, ref pointing.Reference) (session.Estimator, error) {
	if sc.Advisor.Mode == config.ModeManual {
		return advisor.NewManualEstimator(sc.Advisor.Config)
	}
	return advisor.NewAbsoluteEstimator(ref.AzimuthDeg, ref.ElevationDeg, sc.Advisor.Config)
}

func serveHTTP(addr string, handler http.Handler, name string, log logging.Logger) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), name+" server exited", logging.Err(err))
		}
	}()
	log.Info(context.Background(), "serving "+name, logging.String("addr", addr))
	return srv
}

func normalizeAzimuth(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
