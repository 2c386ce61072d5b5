package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/routing-sim/routing-sim/sim/balancer"
	"github.com/routing-sim/routing-sim/sim/workload"
)

// TrafficDriver is the periodic task that generates load. On each firing it
// resets the hit counters, asks the QPS generator for a query count, and
// issues that many requests: resolve a destination through the balancer,
// count the hit, and dispatch through the simulated transport with the
// destination's delay (looked up once per destination per firing).
//
// A QPS generator with no data makes the firing a no-op; the task stays
// scheduled. A resolution failure aborts the run: it means the simulation
// is misconfigured, and masking it would invalidate the test.
type TrafficDriver struct {
	service   string
	balancer  balancer.Balancer
	transport *SimulatedTransport
	qps       workload.QPSGenerator
	delays    workload.DelayGenerator
	counters  *CounterSet
	clock     Clock
	firings   int

	// OnComplete observes every response. Optional.
	OnComplete func(Response)

	// OnFiring observes each completed firing with the tick, the query
	// count, and the per-destination hits for that firing. Optional.
	OnFiring func(tick int64, qps int, hits map[string]int)
}

// NewTrafficDriver wires a driver for one service. counters is the
// explicitly owned per-firing state object; the driver is its only writer.
func NewTrafficDriver(
	service string,
	b balancer.Balancer,
	transport *SimulatedTransport,
	qps workload.QPSGenerator,
	delays workload.DelayGenerator,
	counters *CounterSet,
	clock Clock,
) *TrafficDriver {
	return &TrafficDriver{
		service:   service,
		balancer:  b,
		transport: transport,
		qps:       qps,
		delays:    delays,
		counters:  counters,
		clock:     clock,
	}
}

// Install admits the driver as a repeating task on s.
func (d *TrafficDriver) Install(s *Scheduler, initialDelay, interval int64) error {
	return s.ScheduleRepeating(d.Fire, initialDelay, interval)
}

// Counters returns the driver's hit counters.
func (d *TrafficDriver) Counters() *CounterSet {
	return d.counters
}

// Firings returns how many times the driver has fired, counting no-op
// firings.
func (d *TrafficDriver) Firings() int {
	return d.firings
}

// Fire runs one traffic interval. It is the driver's scheduled action.
func (d *TrafficDriver) Fire() error {
	d.firings++
	d.counters.Reset()

	now := d.clock.Now()
	qps, err := d.qps.NextQPS()
	if err != nil {
		logrus.Debugf("qps generator has no data at tick %d, skipping firing: %v", now, err)
		return nil
	}

	delays := make(map[string]int64)
	for i := 0; i < qps; i++ {
		path := fmt.Sprintf("sim://%s/%d", d.service, i)
		dest, err := d.balancer.Resolve(path)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", path, err)
		}

		delay, ok := delays[dest]
		if !ok {
			delay, err = d.delays.NextDelay(dest)
			if err != nil {
				logrus.Errorf("delay not available for %s: %v", dest, err)
				return nil
			}
			delays[dest] = delay
		}

		d.counters.Incr(dest)
		logrus.Debugf("request %s -> %s, delay %d", path, dest, delay)
		if err := d.transport.SendDelayed(dest, path, delay, d.OnComplete); err != nil {
			return fmt.Errorf("dispatch %s to %s: %w", path, dest, err)
		}
	}

	if d.OnFiring != nil {
		d.OnFiring(now, qps, d.counters.Snapshot())
	}
	return nil
}
