package cache

// ScopedKeyer prefixes every key from an inner keyer, so two runners can
// share one cache without colliding. The HTTP server scopes by API version:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "v1:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (DefaultKeyer when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) SceneKey(snapshotHash string, opts any) string {
	return k.prefix + k.inner.SceneKey(snapshotHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(sceneKey, format string) string {
	return k.prefix + k.inner.ArtifactKey(sceneKey, format)
}
