package balancer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PutGetRemove(t *testing.T) {
	r := NewRegistry[ServiceProperties]()

	_, ok := r.Get("articles")
	assert.False(t, ok)

	r.Put("articles", ServiceProperties{Name: "articles", Cluster: "c1"})
	got, ok := r.Get("articles")
	require.True(t, ok)
	assert.Equal(t, "c1", got.Cluster)
	assert.Equal(t, []string{"articles"}, r.Names())

	r.Remove("articles")
	_, ok = r.Get("articles")
	assert.False(t, ok)
	assert.Empty(t, r.Names())
}

func TestRegistry_ListenersObserveChanges(t *testing.T) {
	r := NewRegistry[ClusterProperties]()

	type event struct {
		name    string
		removed bool
	}
	var events []event
	r.Subscribe(func(name string, _ ClusterProperties, removed bool) {
		events = append(events, event{name, removed})
	})

	r.Put("c1", ClusterProperties{Name: "c1"})
	r.Remove("c1")
	r.Remove("c1") // absent, no event

	assert.Equal(t, []event{{"c1", false}, {"c1", true}}, events)
}

func TestRegistry_PutOverwrites(t *testing.T) {
	r := NewRegistry[URIProperties]()
	r.Put("c1", URIProperties{Cluster: "c1"})
	r.Put("c1", URIProperties{Cluster: "c1", Destinations: []Destination{
		SinglePartition("http://h1:80", 100),
	}})

	got, ok := r.Get("c1")
	require.True(t, ok)
	assert.Len(t, got.Destinations, 1)
	assert.Len(t, r.Names(), 1)
}
