package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer builds cache keys. Implementations must be deterministic: equal
// inputs give equal keys.
type Keyer interface {
	// TopologyKey identifies a topology snapshot loaded from a source.
	TopologyKey(source, ref string) string

	// ArtifactKey identifies a rendered artifact of a topology.
	ArtifactKey(topologyHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render inputs that change artifact bytes.
type ArtifactKeyOpts struct {
	Format      string            `json:"format"`
	Width       float64           `json:"width"`
	Height      float64           `json:"height"`
	SettleTicks int               `json:"settle_ticks"`
	Seed        uint64            `json:"seed"`
	Forces      string            `json:"forces,omitempty"` // hash of the remaining force parameters
	Scale       float64           `json:"scale,omitempty"`
	Labels      bool              `json:"labels,omitempty"`
	Styles      map[string]string `json:"styles,omitempty"`
}

// DefaultKeyer produces "topology:" and "artifact:" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// TopologyKey returns "topology:<source>:<ref>".
func (DefaultKeyer) TopologyKey(source, ref string) string {
	return "topology:" + source + ":" + ref
}

// ArtifactKey hashes the topology hash with every option.
func (DefaultKeyer) ArtifactKey(topologyHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", topologyHash, opts)
}

// Hash returns the hex SHA-256 of data. Topology fingerprints and file
// cache paths use it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns "prefix:" followed by the hash of the JSON form of parts.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}
