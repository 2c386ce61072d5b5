package workload

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Spec is the top-level scenario configuration.
// Loaded from YAML via LoadSpec(path).
type Spec struct {
	Version      string            `yaml:"version"`
	Seed         int64             `yaml:"seed"`
	Service      ServiceSpec       `yaml:"service"`
	Interval     int64             `yaml:"interval,omitempty"`      // traffic firing interval in ticks
	InitialDelay int64             `yaml:"initial_delay,omitempty"` // ticks before the first firing
	Horizon      int64             `yaml:"horizon,omitempty"`       // default run length in ticks
	Destinations []DestinationSpec `yaml:"destinations"`
	QPS          QPSSpec           `yaml:"qps"`
}

// ServiceSpec names the routed service.
type ServiceSpec struct {
	Name    string `yaml:"name"`
	Cluster string `yaml:"cluster,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// DestinationSpec defines one routable endpoint, its hash-ring weight, and
// its simulated delay behavior.
type DestinationSpec struct {
	URI    string    `yaml:"uri"`
	Points int       `yaml:"points,omitempty"` // ring weight, default 100
	Delay  DelaySpec `yaml:"delay"`
}

// DelaySpec parameterizes a destination's delay generator.
type DelaySpec struct {
	Type   string  `yaml:"type"` // static, sequence, gaussian
	Value  int64   `yaml:"value,omitempty"`
	Values []int64 `yaml:"values,omitempty"`
	Mean   float64 `yaml:"mean,omitempty"`
	StdDev float64 `yaml:"stddev,omitempty"`
	Min    int64   `yaml:"min,omitempty"`
	Max    int64   `yaml:"max,omitempty"`
}

// QPSSpec parameterizes the query-count generator.
type QPSSpec struct {
	Type   string  `yaml:"type"` // constant, sequence, poisson
	Value  int     `yaml:"value,omitempty"`
	Values []int   `yaml:"values,omitempty"`
	Mean   float64 `yaml:"mean,omitempty"`
}

// LoadSpec reads and validates a scenario spec from a YAML file.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario spec: %w", err)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse scenario spec: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Validate checks the spec and fills defaults (points=100, interval=5000,
// initial_delay=10).
func (s *Spec) Validate() error {
	if s.Service.Name == "" {
		return fmt.Errorf("scenario spec: service.name is required")
	}
	if len(s.Destinations) == 0 {
		return fmt.Errorf("scenario spec: at least one destination is required")
	}
	if s.Interval < 0 || s.InitialDelay < 0 {
		return fmt.Errorf("scenario spec: interval and initial_delay must be non-negative")
	}
	if s.Horizon < 0 {
		return fmt.Errorf("scenario spec: horizon must be non-negative")
	}
	if s.Interval == 0 {
		s.Interval = 5000
	}
	if s.InitialDelay == 0 {
		s.InitialDelay = 10
	}
	seen := make(map[string]bool, len(s.Destinations))
	for i := range s.Destinations {
		d := &s.Destinations[i]
		if d.URI == "" {
			return fmt.Errorf("scenario spec: destination %d has no uri", i)
		}
		if seen[d.URI] {
			return fmt.Errorf("scenario spec: duplicate destination %s", d.URI)
		}
		seen[d.URI] = true
		if d.Points < 0 {
			return fmt.Errorf("scenario spec: destination %s has negative points", d.URI)
		}
		if d.Points == 0 {
			d.Points = 100
		}
		switch d.Delay.Type {
		case "", "static":
			d.Delay.Type = "static"
		case "sequence":
			if len(d.Delay.Values) == 0 {
				return fmt.Errorf("scenario spec: destination %s: sequence delay needs values", d.URI)
			}
		case "gaussian":
			if d.Delay.Mean <= 0 {
				return fmt.Errorf("scenario spec: destination %s: gaussian delay needs a positive mean", d.URI)
			}
		default:
			return fmt.Errorf("scenario spec: destination %s: unknown delay type %q", d.URI, d.Delay.Type)
		}
	}
	switch s.QPS.Type {
	case "", "constant":
		s.QPS.Type = "constant"
		if s.QPS.Value < 0 {
			return fmt.Errorf("scenario spec: qps.value must be non-negative")
		}
	case "sequence":
		if len(s.QPS.Values) == 0 {
			return fmt.Errorf("scenario spec: sequence qps needs values")
		}
	case "poisson":
		if s.QPS.Mean <= 0 {
			return fmt.Errorf("scenario spec: poisson qps needs a positive mean")
		}
	default:
		return fmt.Errorf("scenario spec: unknown qps type %q", s.QPS.Type)
	}
	if s.Seed == 0 {
		logrus.Warn("scenario spec has no seed; defaulting to 42 for reproducibility")
		s.Seed = 42
	}
	return nil
}

// BuildQPS constructs the spec's QPS generator. rng feeds randomized
// generators and must come from a deterministic source.
func (s *Spec) BuildQPS(rng *rand.Rand) QPSGenerator {
	switch s.QPS.Type {
	case "sequence":
		return &SequenceQPS{Counts: s.QPS.Values}
	case "poisson":
		return &PoissonQPS{Mean: s.QPS.Mean, Rng: rng}
	default:
		return &ConstantQPS{Count: s.QPS.Value}
	}
}

// BuildDelays constructs a composite delay generator covering every
// destination in the spec.
func (s *Spec) BuildDelays(rng *rand.Rand) DelayGenerator {
	static := make(map[string]int64)
	sequences := make(map[string][]int64)
	gaussian := make(map[string]float64)
	var stddev float64
	var minD, maxD int64
	for _, d := range s.Destinations {
		switch d.Delay.Type {
		case "sequence":
			sequences[d.URI] = d.Delay.Values
		case "gaussian":
			gaussian[d.URI] = d.Delay.Mean
			if d.Delay.StdDev > stddev {
				stddev = d.Delay.StdDev
			}
			if d.Delay.Min < minD {
				minD = d.Delay.Min
			}
			if d.Delay.Max > maxD {
				maxD = d.Delay.Max
			}
		default:
			static[d.URI] = d.Delay.Value
		}
	}
	if maxD == 0 {
		maxD = 1 << 30
	}
	gens := make([]DelayGenerator, 0, 3)
	if len(static) > 0 {
		gens = append(gens, &StaticDelay{Delays: static})
	}
	if len(sequences) > 0 {
		gens = append(gens, &SequenceDelay{Delays: sequences})
	}
	if len(gaussian) > 0 {
		gens = append(gens, &GaussianDelay{Means: gaussian, StdDev: stddev, Min: minD, Max: maxD, Rng: rng})
	}
	if len(gens) == 1 {
		return gens[0]
	}
	return &fallbackDelay{gens: gens}
}

// fallbackDelay tries each generator in order until one knows the
// destination.
type fallbackDelay struct {
	gens []DelayGenerator
}

func (f *fallbackDelay) NextDelay(destination string) (int64, error) {
	var lastErr error
	for _, g := range f.gens {
		d, err := g.NextDelay(destination)
		if err == nil {
			return d, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no delay configured for %s: %w", destination, ErrNoData)
	}
	return 0, lastErr
}
