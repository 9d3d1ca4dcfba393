package cache

// Keyer derives cache keys for pipeline stages.
type Keyer interface {
	// SceneKey identifies a positioned scene: the snapshot content plus the
	// build and layout options.
	SceneKey(snapshotHash string, opts any) string
	// ArtifactKey identifies a rendered output of a positioned scene.
	ArtifactKey(sceneKey, format string) string
}

// DefaultKeyer hashes options with JSON so any exported option field
// participates in the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) SceneKey(snapshotHash string, opts any) string {
	return hashKey("scene", snapshotHash, opts)
}

func (DefaultKeyer) ArtifactKey(sceneKey, format string) string {
	return hashKey("artifact", sceneKey, format)
}
