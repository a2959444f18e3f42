package cache

// ScopedKeyer wraps a Keyer with a prefix, so several maps can share one
// Redis instance without clashing.
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "site:garage:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// TopologyKey generates a prefixed topology key.
func (k *ScopedKeyer) TopologyKey(source, ref string) string {
	return k.prefix + k.inner.TopologyKey(source, ref)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(topologyHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(topologyHash, opts)
}
