// Package config loads alignment scenario files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/dish-aligner/advisor"
	"github.com/signalsfoundry/dish-aligner/core"
	"github.com/signalsfoundry/dish-aligner/internal/logging"
	"github.com/signalsfoundry/dish-aligner/internal/observability"
	"github.com/signalsfoundry/dish-aligner/internal/pointing"
)

// Addressing modes for the advisor section.
const (
	ModeAbsolute = "absolute"
	ModeManual   = "manual"
)

// Scenario is the root of a scenario file. Every section is optional and
// falls back to Default.
type Scenario struct {
	Link       core.LinkConfig             `yaml:"link"`
	Geometry   core.LinkGeometry           `yaml:"geometry"`
	Advisor    AdvisorConfig               `yaml:"advisor"`
	Reference  ReferenceConfig             `yaml:"reference"`
	Simulation SimulationConfig            `yaml:"simulation"`
	Logging    logging.Config              `yaml:"logging"`
	Metrics    MetricsConfig               `yaml:"metrics"`
	Tracing    observability.TracingConfig `yaml:"tracing"`
	Stream     StreamConfig                `yaml:"stream"`
}

// AdvisorConfig selects the addressing mode and tunes the estimator.
type AdvisorConfig struct {
	advisor.Config `yaml:",inline"`

	Mode   string         `yaml:"mode"`
	Kernel advisor.Kernel `yaml:"kernel"`
}

// ReferenceConfig pins the grid centre either to fixed angles or to a
// tracked satellite. When both TLE lines are set they win.
type ReferenceConfig struct {
	AzimuthDeg   float64           `yaml:"azimuth_deg"`
	ElevationDeg float64           `yaml:"elevation_deg"`
	TLELine1     string            `yaml:"tle_line1"`
	TLELine2     string            `yaml:"tle_line2"`
	Observer     pointing.Observer `yaml:"observer"`
	// Epoch fixes the propagation time; zero means "now".
	Epoch time.Time `yaml:"epoch"`
}

// UsesTLE reports whether the reference tracks a satellite.
func (r ReferenceConfig) UsesTLE() bool {
	return r.TLELine1 != "" || r.TLELine2 != ""
}

// Resolve turns the section into a concrete reference direction.
func (r ReferenceConfig) Resolve(now time.Time) (pointing.Reference, error) {
	if !r.UsesTLE() {
		return pointing.Fixed(r.AzimuthDeg, r.ElevationDeg), nil
	}
	target, err := pointing.NewTarget(r.TLELine1, r.TLELine2)
	if err != nil {
		return pointing.Reference{}, err
	}
	at := r.Epoch
	if at.IsZero() {
		at = now
	}
	return target.Reference(r.Observer, at)
}

// SimulationConfig drives cmd/simulator.
type SimulationConfig struct {
	// True boresight offset from the reference, in degrees.
	TrueAzimuthOffsetDeg   float64 `yaml:"true_azimuth_offset_deg"`
	TrueElevationOffsetDeg float64 `yaml:"true_elevation_offset_deg"`

	NoiseSigmaDB float64       `yaml:"noise_sigma_db"`
	Steps        int           `yaml:"steps"`
	Tick         time.Duration `yaml:"tick"`
	Accelerated  bool          `yaml:"accelerated"`
	Seed         int64         `yaml:"seed"`

	// Patience is how many moves back onto an earlier home cell end a
	// manual run. 0 disables the check.
	Patience int `yaml:"patience"`
}

// MetricsConfig controls the Prometheus listener; empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// StreamConfig controls the websocket listener; empty Addr disables it.
type StreamConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a scenario that runs without a file: a 1 km hop at
// 24 GHz with the true boresight a couple of degrees off the reference.
func Default() Scenario {
	return Scenario{
		Link: core.DefaultLinkConfig(),
		Geometry: core.LinkGeometry{
			SiteA: core.Vec3{},
			SiteB: core.Vec3{Y: 1000},
		},
		Advisor: AdvisorConfig{
			Config: advisor.DefaultConfig(),
			Mode:   ModeAbsolute,
			Kernel: advisor.DefaultKernel(),
		},
		Simulation: SimulationConfig{
			TrueAzimuthOffsetDeg:   1.5,
			TrueElevationOffsetDeg: -1,
			NoiseSigmaDB:           0.5,
			Steps:                  60,
			Tick:                   100 * time.Millisecond,
			Accelerated:            true,
			Seed:                   1,
			Patience:               3,
		},
		Logging: logging.Config{Level: "info", Format: "text"},
		Tracing: observability.DefaultTracingConfig(),
	}
}

// Load reads path, overlays it on Default and validates the result.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scenario document. Unknown keys are rejected.
func Parse(data []byte) (Scenario, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Scenario{}, fmt.Errorf("parse scenario config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Scenario{}, fmt.Errorf("validate scenario config: %w", err)
	}
	return cfg, nil
}

// Validate reports every problem in the scenario, joined.
func (s Scenario) Validate() error {
	var errs []error
	if err := s.Advisor.Config.Validate(); err != nil {
		errs = append(errs, err)
	}
	switch s.Advisor.Mode {
	case ModeAbsolute, ModeManual:
	default:
		errs = append(errs, fmt.Errorf("advisor mode must be %q or %q, got %q", ModeAbsolute, ModeManual, s.Advisor.Mode))
	}
	if s.Reference.UsesTLE() && (s.Reference.TLELine1 == "" || s.Reference.TLELine2 == "") {
		errs = append(errs, errors.New("reference needs both tle_line1 and tle_line2"))
	}
	if s.Simulation.Steps < 0 {
		errs = append(errs, fmt.Errorf("simulation steps must be non-negative, got %d", s.Simulation.Steps))
	}
	if s.Simulation.Tick <= 0 {
		errs = append(errs, fmt.Errorf("simulation tick must be positive, got %s", s.Simulation.Tick))
	}
	if s.Simulation.NoiseSigmaDB < 0 {
		errs = append(errs, fmt.Errorf("simulation noise sigma must be non-negative, got %v", s.Simulation.NoiseSigmaDB))
	}
	if s.Tracing.SampleRatio < 0 || s.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing sample ratio must be in [0,1], got %v", s.Tracing.SampleRatio))
	}
	return errors.Join(errs...)
}
