package balancer

// ServiceProperties declares a routable service and the cluster backing it.
type ServiceProperties struct {
	Name    string `yaml:"name"`
	Cluster string `yaml:"cluster"`
	Path    string `yaml:"path,omitempty"`
}

// ClusterProperties declares a cluster of destinations.
type ClusterProperties struct {
	Name string `yaml:"name"`
}

// URIProperties lists the destinations of a cluster with their per-partition
// ring weights.
type URIProperties struct {
	Cluster      string        `yaml:"cluster"`
	Destinations []Destination `yaml:"destinations"`
}

// Destination is one routable endpoint. Partitions maps partition number to
// the destination's point weight on that partition's hash ring.
type Destination struct {
	URI        string      `yaml:"uri"`
	Partitions map[int]int `yaml:"partitions"`
}

// SinglePartition is a convenience constructor for the common case of one
// partition (partition 0) with the given points.
func SinglePartition(uri string, points int) Destination {
	return Destination{URI: uri, Partitions: map[int]int{0: points}}
}
