package balancer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRing_VnodesProportionalToPoints(t *testing.T) {
	ring := BuildRing(SHA256, map[string]int{
		"http://h1:80": 100,
		"http://h2:80": 50,
	})
	assert.Equal(t, 150, ring.Size())
	assert.Equal(t, map[string]int{"http://h1:80": 100, "http://h2:80": 50}, ring.Points())
}

func TestBuildRing_ExcludesNonPositivePoints(t *testing.T) {
	ring := BuildRing(SHA256, map[string]int{
		"http://h1:80": 100,
		"http://h2:80": 0,
		"http://h3:80": -5,
	})
	assert.Equal(t, 100, ring.Size())
	points := ring.Points()
	assert.NotContains(t, points, "http://h2:80")
	assert.NotContains(t, points, "http://h3:80")

	for i := 0; i < 50; i++ {
		assert.Equal(t, "http://h1:80", ring.Get(fmt.Sprintf("key-%d", i)))
	}
}

func TestRing_GetIsDeterministic(t *testing.T) {
	weights := map[string]int{"http://h1:80": 100, "http://h2:80": 100, "http://h3:80": 100}
	a := BuildRing(SHA256, weights)
	b := BuildRing(SHA256, weights)
	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("sim://articles/%d", i)
		assert.Equal(t, a.Get(key), b.Get(key))
	}
}

func TestRing_EmptyRingGetReturnsEmpty(t *testing.T) {
	ring := BuildRing(SHA256, nil)
	assert.Equal(t, 0, ring.Size())
	assert.Equal(t, "", ring.Get("anything"))
}

func TestRing_DistributionTracksWeights(t *testing.T) {
	ring := BuildRing(SHA256, map[string]int{
		"http://heavy:80": 300,
		"http://light:80": 100,
	})

	hits := make(map[string]int)
	const n = 4000
	for i := 0; i < n; i++ {
		hits[ring.Get(fmt.Sprintf("sim://articles/%d", i))]++
	}
	require.Equal(t, n, hits["http://heavy:80"]+hits["http://light:80"])

	heavy := float64(hits["http://heavy:80"]) / n
	// 3:1 weighting; allow generous tolerance since vnode counts are modest.
	assert.InDelta(t, 0.75, heavy, 0.10)
}

func TestRing_CRC32HashAlsoResolves(t *testing.T) {
	ring := BuildRing(CRC32, map[string]int{"http://h1:80": 10, "http://h2:80": 10})
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		dest := ring.Get(fmt.Sprintf("key-%d", i))
		require.NotEmpty(t, dest)
		seen[dest] = true
	}
	assert.True(t, seen["http://h1:80"] || seen["http://h2:80"])
}

func TestRing_PointsReturnsACopy(t *testing.T) {
	ring := BuildRing(SHA256, map[string]int{"http://h1:80": 10})
	points := ring.Points()
	points["http://h1:80"] = 999
	assert.Equal(t, 10, ring.Points()["http://h1:80"])
}
