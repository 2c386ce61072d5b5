package balancer

import (
	"crypto/sha256"
	"encoding/binary"
	"hash/crc32"
	"sort"
	"strconv"
)

// HashFunction maps a string to a position on the hash ring. Ideally it
// produces random-looking outputs for distinct inputs.
type HashFunction func(string) int

var (
	// SHA256 uses the first 8 bytes of the SHA256 checksum of the key,
	// interpreted as a big-endian uint64. The default: even distribution.
	SHA256 HashFunction = func(key string) int {
		sum := sha256.Sum256([]byte(key))
		return int(binary.BigEndian.Uint64(sum[:]))
	}

	// CRC32 hashes with the CRC32 IEEE checksum. Cheaper but can
	// distribute load unevenly; kept for scenarios that want it.
	CRC32 HashFunction = func(key string) int {
		return int(crc32.ChecksumIEEE([]byte(key)))
	}
)

type ringEntry struct {
	key   int
	owner string
}

// Ring is a consistent hash ring with weighted destinations. A destination
// with N points owns N vnode positions, so the share of key space it
// receives is proportional to its points. Rings are immutable once built;
// the balancer swaps in a fresh ring when weights change.
type Ring struct {
	entries []ringEntry
	points  map[string]int
	hash    HashFunction
}

// BuildRing places each destination on the ring with vnodes proportional to
// its points. Destinations with non-positive points are left off the ring.
func BuildRing(hash HashFunction, points map[string]int) *Ring {
	if hash == nil {
		hash = SHA256
	}
	r := &Ring{points: make(map[string]int, len(points)), hash: hash}
	uris := make([]string, 0, len(points))
	for uri, p := range points {
		if p <= 0 {
			continue
		}
		uris = append(uris, uri)
		r.points[uri] = p
	}
	sort.Strings(uris)
	for _, uri := range uris {
		for i := 0; i < r.points[uri]; i++ {
			r.entries = append(r.entries, ringEntry{key: hash(strconv.Itoa(i) + uri), owner: uri})
		}
	}
	sort.Slice(r.entries, func(i, j int) bool {
		if r.entries[i].key != r.entries[j].key {
			return r.entries[i].key < r.entries[j].key
		}
		return r.entries[i].owner < r.entries[j].owner
	})
	return r
}

// Get returns the destination owning the ring position of key, or "" when
// the ring is empty.
func (r *Ring) Get(key string) string {
	if len(r.entries) == 0 {
		return ""
	}
	h := r.hash(key)
	idx := sort.Search(len(r.entries), func(i int) bool {
		return r.entries[i].key >= h
	})
	if idx == len(r.entries) {
		idx = 0
	}
	return r.entries[idx].owner
}

// Points returns each destination's vnode count on the ring.
func (r *Ring) Points() map[string]int {
	out := make(map[string]int, len(r.points))
	for uri, p := range r.points {
		out[uri] = p
	}
	return out
}

// Size returns the total number of vnode positions.
func (r *Ring) Size() int {
	return len(r.entries)
}
