// Package sim implements a deterministic, virtual-time discrete-event
// simulation harness for driving reproducible load tests against a
// request-routing component. The core is the Scheduler: a virtual clock, a
// priority-ordered task queue, and a single-worker run loop that executes
// due tasks in virtual-time order.
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/routing-sim/routing-sim/sim/balancer"
	"github.com/routing-sim/routing-sim/sim/trace"
	"github.com/routing-sim/routing-sim/sim/workload"
)

const (
	// defaultInitialDelay is the tick of the first traffic firing.
	defaultInitialDelay = 10

	// defaultInterval matches the balancer's conventional re-evaluation
	// period so both systems' time bases stay aligned.
	defaultInterval = 5000

	// shutdownWait bounds how long Shutdown waits for the balancer to
	// acknowledge.
	shutdownWait = 60 * time.Second
)

// Config carries the simulator's wiring knobs. Zero values select defaults.
type Config struct {
	ServiceName  string
	InitialDelay int64 // ticks before the first traffic firing, default 10
	Interval     int64 // traffic firing interval in ticks, default 5000
	Seed         int64 // RNG seed, default 42
}

// Simulator composes the scheduler, the simulated transport, the traffic
// driver, and the routing collaborator into the harness's public surface.
type Simulator struct {
	id        string
	cfg       Config
	scheduler *Scheduler
	transport *SimulatedTransport
	driver    *TrafficDriver
	balancer  balancer.Balancer
	counters  *CounterSet
	rng       *PartitionedRNG
	trace     *trace.Trace
	recorder  *trace.Recorder
}

// NewSimulator wires a simulator from a balancer and the two generators,
// starts the balancer, and installs the traffic driver as a repeating task.
// The balancer must invoke its ready callback for construction to finish.
func NewSimulator(cfg Config, b balancer.Balancer, qps workload.QPSGenerator, delays workload.DelayGenerator) (*Simulator, error) {
	if cfg.ServiceName == "" {
		return nil, fmt.Errorf("config has no service name: %w", ErrInvalidArgument)
	}
	if cfg.InitialDelay < 0 || cfg.Interval < 0 {
		return nil, fmt.Errorf("negative initial delay or interval: %w", ErrInvalidArgument)
	}
	if cfg.InitialDelay == 0 {
		cfg.InitialDelay = defaultInitialDelay
	}
	if cfg.Interval == 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}

	s := &Simulator{
		id:        xid.New().String(),
		cfg:       cfg,
		scheduler: NewScheduler(),
		balancer:  b,
		counters:  NewCounterSet(),
		rng:       NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
		trace:     trace.New(),
	}
	s.transport = NewSimulatedTransport(s.scheduler, delays)
	s.driver = NewTrafficDriver(cfg.ServiceName, b, s.transport, qps, delays, s.counters, s.scheduler.Clock())
	s.driver.OnFiring = s.observeFiring

	ready := make(chan struct{})
	b.Start(func() { close(ready) })
	<-ready

	if err := s.driver.Install(s.scheduler, cfg.InitialDelay, cfg.Interval); err != nil {
		return nil, err
	}
	logrus.Infof("simulation %s ready: service=%s interval=%d seed=%d",
		s.id, cfg.ServiceName, cfg.Interval, cfg.Seed)
	return s, nil
}

// FromSpec builds a simulator from a YAML scenario spec: a hash-ring
// balancer configured with the spec's destinations, and QPS/delay
// generators seeded from the spec's seed.
func FromSpec(spec *workload.Spec) (*Simulator, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	cluster := spec.Service.Cluster
	if cluster == "" {
		cluster = spec.Service.Name + "-cluster"
	}
	dests := make([]balancer.Destination, 0, len(spec.Destinations))
	for _, d := range spec.Destinations {
		dests = append(dests, balancer.SinglePartition(d.URI, d.Points))
	}
	b := balancer.NewHashRingBalancer(nil)
	b.Configure(
		balancer.ServiceProperties{Name: spec.Service.Name, Cluster: cluster, Path: spec.Service.Path},
		balancer.ClusterProperties{Name: cluster},
		balancer.URIProperties{Cluster: cluster, Destinations: dests},
	)

	rng := NewPartitionedRNG(NewSimulationKey(spec.Seed))
	qps := spec.BuildQPS(rng.ForSubsystem(SubsystemQPS))
	delays := spec.BuildDelays(rng.ForSubsystem(SubsystemDelay))

	return NewSimulator(Config{
		ServiceName:  spec.Service.Name,
		InitialDelay: spec.InitialDelay,
		Interval:     spec.Interval,
		Seed:         spec.Seed,
	}, b, qps, delays)
}

func (s *Simulator) observeFiring(tick int64, qps int, hits map[string]int) {
	rec := trace.IntervalRecord{Tick: tick, Requests: qps, Hits: hits}
	s.trace.RecordInterval(rec)
	if s.recorder != nil {
		s.recorder.RecordInterval(rec)
	}
}

// ID returns the unique identifier of this simulation run.
func (s *Simulator) ID() string { return s.id }

// Clock returns a read-only view of the simulation clock.
func (s *Simulator) Clock() Clock { return s.scheduler.Clock() }

// Scheduler exposes the underlying scheduler, for admitting additional
// scenario tasks (property flips, health changes) at chosen virtual times.
func (s *Simulator) Scheduler() *Scheduler { return s.scheduler }

// Balancer returns the routing collaborator.
func (s *Simulator) Balancer() balancer.Balancer { return s.balancer }

// Trace returns the in-memory interval trace.
func (s *Simulator) Trace() *trace.Trace { return s.trace }

// AttachRecorder persists every firing's interval records through r.
func (s *Simulator) AttachRecorder(r *trace.Recorder) { s.recorder = r }

// Run advances the simulation until no task remains or Stop is called.
func (s *Simulator) Run() (*RunHandle, error) {
	return s.scheduler.Run(0)
}

// RunFor advances the simulation for duration ticks from the current
// virtual time. A non-positive duration runs to exhaustion.
func (s *Simulator) RunFor(duration int64) (*RunHandle, error) {
	if duration <= 0 {
		return s.scheduler.Run(0)
	}
	return s.scheduler.Run(s.scheduler.Now() + duration)
}

// RunUntil advances the simulation to the given absolute virtual time.
func (s *Simulator) RunUntil(target int64) (*RunHandle, error) {
	return s.scheduler.RunUntil(target)
}

// RunWait advances the simulation for duration ticks and blocks the caller
// until the run completes or no runnable work remains.
func (s *Simulator) RunWait(duration int64) error {
	h, err := s.RunFor(duration)
	if err != nil {
		return err
	}
	return h.Wait(context.Background())
}

// Stop cooperatively halts the run loop. Queued tasks are preserved.
func (s *Simulator) Stop() {
	s.scheduler.Stop()
}

// Shutdown tears the simulation down: the scheduler worker is released and
// the balancer is asked to shut down. Fails with ErrShutdownTimeout when
// the balancer does not acknowledge within the bounded wait.
func (s *Simulator) Shutdown() error {
	s.scheduler.Shutdown()

	done := make(chan struct{})
	s.balancer.Shutdown(func() { close(done) })
	select {
	case <-done:
	case <-time.After(shutdownWait):
		return fmt.Errorf("balancer did not acknowledge within %s: %w", shutdownWait, ErrShutdownTimeout)
	}
	if s.recorder != nil {
		if err := s.recorder.Flush(); err != nil {
			return err
		}
	}
	logrus.Infof("simulation %s shut down at tick %d", s.id, s.scheduler.Now())
	return nil
}

// ClientCounters returns the per-destination hit counts since the last
// traffic firing.
func (s *Simulator) ClientCounters() map[string]int {
	return s.counters.Snapshot()
}

// CountPercent returns a destination's share of hits in the last firing, in
// [0,1]; 0.0 when the destination is unseen or no hits were counted.
func (s *Simulator) CountPercent(destination string) float64 {
	return s.counters.Percent(destination)
}

// Points returns the hash-ring point weights for each destination of the
// given service partition.
func (s *Simulator) Points(service string, partition int) (map[string]int, error) {
	ring, err := s.balancer.Ring(service, partition)
	if err != nil {
		return nil, err
	}
	return ring.Points(), nil
}

// Point returns the ring points of one destination, or 0 when the service
// or destination is unavailable. Unavailability is swallowed on purpose:
// tests polling a destination that was degraded off the ring read 0.
func (s *Simulator) Point(service string, partition int, destination string) int {
	points, err := s.Points(service, partition)
	if err != nil {
		return 0
	}
	return points[destination]
}
