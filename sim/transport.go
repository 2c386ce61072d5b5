package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/routing-sim/routing-sim/sim/workload"
)

// Response is the synthetic reply produced for a simulated request. It
// carries no backend semantics: it echoes the routing path and records the
// tick at which the completion callback ran.
type Response struct {
	Destination string
	Path        string
	CompletedAt int64
}

// SimulatedTransport converts "send now" into "complete after a delay, in
// virtual time". Sending schedules a one-shot completion task on the
// scheduler; nothing else happens, and no shared counters are touched.
type SimulatedTransport struct {
	scheduler *Scheduler
	delays    workload.DelayGenerator
}

// NewSimulatedTransport creates a transport that schedules completions on s
// and, for Send, asks delays for per-destination response times. delays may
// be nil when callers use only SendDelayed.
func NewSimulatedTransport(s *Scheduler, delays workload.DelayGenerator) *SimulatedTransport {
	return &SimulatedTransport{scheduler: s, delays: delays}
}

// Send dispatches a request to dest, asking the delay generator how long
// the destination takes. When no delay is configured the call fails with
// ErrDelayUnavailable and nothing is scheduled.
func (t *SimulatedTransport) Send(dest, path string, onComplete func(Response)) error {
	if t.delays == nil {
		return fmt.Errorf("no delay generator for %s: %w", dest, ErrDelayUnavailable)
	}
	delay, err := t.delays.NextDelay(dest)
	if err != nil {
		return fmt.Errorf("no delay for %s: %w", dest, ErrDelayUnavailable)
	}
	return t.SendDelayed(dest, path, delay, onComplete)
}

// SendDelayed dispatches with an explicit, caller-supplied delay. The
// completion callback runs at now+delay in virtual time with a synthetic
// response echoing the request path.
func (t *SimulatedTransport) SendDelayed(dest, path string, delay int64, onComplete func(Response)) error {
	if delay < 0 {
		return fmt.Errorf("negative delay %d for %s: %w", delay, dest, ErrInvalidArgument)
	}
	return t.scheduler.ScheduleOnce(func() error {
		resp := Response{
			Destination: dest,
			Path:        path,
			CompletedAt: t.scheduler.Now(),
		}
		logrus.Debugf("response for %s from %s at tick %d", path, dest, resp.CompletedAt)
		if onComplete != nil {
			onComplete(resp)
		}
		return nil
	}, delay)
}
