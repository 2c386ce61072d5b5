package balancer

import "sync"

// Listener observes registry changes. removed is true when the entry was
// deleted; value is the zero value in that case.
type Listener[T any] func(name string, value T, removed bool)

// Registry is a concurrency-safe property store keyed by name. The routing
// configuration (service, cluster, and URI properties) lives in registries
// so that a running simulation can mutate it and have the balancer rebuild
// its rings through the change listeners.
type Registry[T any] struct {
	mu        sync.RWMutex
	values    map[string]T
	listeners []Listener[T]
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{values: make(map[string]T)}
}

// Put stores value under name and notifies listeners.
func (r *Registry[T]) Put(name string, value T) {
	r.mu.Lock()
	r.values[name] = value
	listeners := r.listeners
	r.mu.Unlock()
	for _, l := range listeners {
		l(name, value, false)
	}
}

// Get returns the value stored under name.
func (r *Registry[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	v, ok := r.values[name]
	r.mu.RUnlock()
	return v, ok
}

// Remove deletes the entry under name, if any, and notifies listeners.
func (r *Registry[T]) Remove(name string) {
	r.mu.Lock()
	_, ok := r.values[name]
	if ok {
		delete(r.values, name)
	}
	listeners := r.listeners
	r.mu.Unlock()
	if !ok {
		return
	}
	var zero T
	for _, l := range listeners {
		l(name, zero, true)
	}
}

// Names returns the stored keys in unspecified order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.values))
	for n := range r.values {
		names = append(names, n)
	}
	r.mu.RUnlock()
	return names
}

// Subscribe registers a change listener. Listeners run synchronously on the
// mutating goroutine.
func (r *Registry[T]) Subscribe(l Listener[T]) {
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()
}
