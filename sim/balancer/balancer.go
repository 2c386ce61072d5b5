// Package balancer provides the routing collaborator of the simulation: a
// property registry, a weighted consistent hash ring, and a balancer that
// resolves request paths to destinations. The simulation core talks to it
// only through the Balancer interface.
package balancer

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrServiceUnavailable is returned when no destination can be chosen for a
// request: unknown service, empty ring, or a balancer that was never
// started.
var ErrServiceUnavailable = errors.New("service unavailable")

// Balancer resolves request paths to destinations. Start and Shutdown
// bracket the simulation; both invoke their callback once the transition
// completes.
type Balancer interface {
	Resolve(path string) (string, error)
	Start(onReady func())
	Shutdown(onDone func())
	Ring(service string, partition int) (*Ring, error)
}

// HashRingBalancer routes with a weighted consistent hash ring per service
// partition. Destination weights come from the URI registry scaled by a
// per-destination health score in [0,1]; rings rebuild whenever properties
// or health change, which is the re-evaluation the traffic driver's interval
// is conventionally aligned with.
type HashRingBalancer struct {
	services *Registry[ServiceProperties]
	clusters *Registry[ClusterProperties]
	uris     *Registry[URIProperties]
	hash     HashFunction

	mu      sync.RWMutex
	rings   map[string]map[int]*Ring
	health  map[string]float64
	started bool
	stopped bool
}

// NewHashRingBalancer creates a balancer over empty registries.
// A nil hash selects SHA256.
func NewHashRingBalancer(hash HashFunction) *HashRingBalancer {
	if hash == nil {
		hash = SHA256
	}
	return &HashRingBalancer{
		services: NewRegistry[ServiceProperties](),
		clusters: NewRegistry[ClusterProperties](),
		uris:     NewRegistry[URIProperties](),
		hash:     hash,
		rings:    make(map[string]map[int]*Ring),
		health:   make(map[string]float64),
	}
}

// Services returns the service property registry.
func (b *HashRingBalancer) Services() *Registry[ServiceProperties] { return b.services }

// Clusters returns the cluster property registry.
func (b *HashRingBalancer) Clusters() *Registry[ClusterProperties] { return b.clusters }

// URIs returns the URI property registry.
func (b *HashRingBalancer) URIs() *Registry[URIProperties] { return b.uris }

// Configure stores one service's full routing configuration in the
// registries. Rings rebuild immediately when the balancer is started.
func (b *HashRingBalancer) Configure(svc ServiceProperties, cluster ClusterProperties, uris URIProperties) {
	b.clusters.Put(cluster.Name, cluster)
	b.uris.Put(uris.Cluster, uris)
	b.services.Put(svc.Name, svc)
}

// Start builds the rings, subscribes to registry changes, and invokes
// onReady. Starting an already-started balancer only re-invokes onReady.
func (b *HashRingBalancer) Start(onReady func()) {
	b.mu.Lock()
	already := b.started
	b.started = true
	b.stopped = false
	b.mu.Unlock()

	if !already {
		rebuild := func(string, ServiceProperties, bool) { b.Rebuild() }
		b.services.Subscribe(rebuild)
		b.uris.Subscribe(func(string, URIProperties, bool) { b.Rebuild() })
	}
	b.Rebuild()
	logrus.Debugf("balancer started, %d services", len(b.services.Names()))
	if onReady != nil {
		onReady()
	}
}

// Shutdown stops resolution and invokes onDone.
func (b *HashRingBalancer) Shutdown(onDone func()) {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()
	logrus.Debug("balancer shut down")
	if onDone != nil {
		onDone()
	}
}

// SetHealth sets a destination's health score in [0,1]. Effective ring
// points are the configured points scaled by health, so a degraded
// destination keeps shrinking its share of the key space. Rings rebuild
// immediately.
func (b *HashRingBalancer) SetHealth(uri string, score float64) {
	b.mu.Lock()
	b.health[uri] = math.Min(1, math.Max(0, score))
	b.mu.Unlock()
	b.Rebuild()
}

// Health returns a destination's current health score, 1.0 by default.
func (b *HashRingBalancer) Health(uri string) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if h, ok := b.health[uri]; ok {
		return h
	}
	return 1.0
}

// Rebuild recomputes every service's rings from the registries and health
// scores.
func (b *HashRingBalancer) Rebuild() {
	fresh := make(map[string]map[int]*Ring)
	for _, name := range b.services.Names() {
		svc, ok := b.services.Get(name)
		if !ok {
			continue
		}
		up, ok := b.uris.Get(svc.Cluster)
		if !ok {
			logrus.Warnf("service %s references cluster %s with no URI properties", name, svc.Cluster)
			continue
		}
		partitions := make(map[int]map[string]int)
		for _, dest := range up.Destinations {
			for partition, points := range dest.Partitions {
				eff := int(math.Round(float64(points) * b.Health(dest.URI)))
				if eff <= 0 {
					continue
				}
				if partitions[partition] == nil {
					partitions[partition] = make(map[string]int)
				}
				partitions[partition][dest.URI] = eff
			}
		}
		fresh[name] = make(map[int]*Ring, len(partitions))
		for partition, weights := range partitions {
			fresh[name][partition] = BuildRing(b.hash, weights)
		}
	}
	b.mu.Lock()
	b.rings = fresh
	b.mu.Unlock()
}

// Resolve maps a request path of the form "sim://service/..." (a bare
// service name also works) to a destination on the service's partition-0
// ring. The full path is the hash key, so distinct request paths spread
// across destinations in proportion to their points.
func (b *HashRingBalancer) Resolve(path string) (string, error) {
	b.mu.RLock()
	started, stopped := b.started, b.stopped
	b.mu.RUnlock()
	if !started || stopped {
		return "", fmt.Errorf("balancer not running: %w", ErrServiceUnavailable)
	}
	service := serviceName(path)
	ring, err := b.Ring(service, 0)
	if err != nil {
		return "", err
	}
	dest := ring.Get(path)
	if dest == "" {
		return "", fmt.Errorf("empty ring for service %s: %w", service, ErrServiceUnavailable)
	}
	return dest, nil
}

// Ring returns the hash ring for a service partition.
func (b *HashRingBalancer) Ring(service string, partition int) (*Ring, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	partitions, ok := b.rings[service]
	if !ok {
		return nil, fmt.Errorf("unknown service %s: %w", service, ErrServiceUnavailable)
	}
	ring, ok := partitions[partition]
	if !ok {
		return nil, fmt.Errorf("service %s has no partition %d: %w", service, partition, ErrServiceUnavailable)
	}
	return ring, nil
}

// serviceName extracts the service from a request path. "sim://articles/7"
// and "articles" both yield "articles".
func serviceName(path string) string {
	u, err := url.Parse(path)
	if err != nil || u.Host == "" {
		return path
	}
	return u.Host
}
