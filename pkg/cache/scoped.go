package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// This is useful when several deployments share one Redis instance, or when
// keys from different planning-service endpoints must not collide.
//
// Example usage:
//
//	// Keys for one planning service
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "svc:localhost:8000:")
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

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// PlanKey generates a prefixed key for plan caching.
func (k *ScopedKeyer) PlanKey(prompt string, seed int) string {
	return k.prefix + k.inner.PlanKey(prompt, seed)
}

// CopyKey generates a prefixed key for copy caching.
func (k *ScopedKeyer) CopyKey(prompt, layoutMode string, sections []string) string {
	return k.prefix + k.inner.CopyKey(prompt, layoutMode, sections)
}

// PredictionKey generates a prefixed key for prediction caching.
func (k *ScopedKeyer) PredictionKey(prompt string) string {
	return k.prefix + k.inner.PredictionKey(prompt)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
