package cache

import "sort"

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey generates a key for a raw HTTP response.
	HTTPKey(namespace, key string) string

	// PlanKey generates a key for a plan fetched for prompt and seed.
	PlanKey(prompt string, seed int) string

	// CopyKey generates a key for generated copy.
	CopyKey(prompt, layoutMode string, sections []string) string

	// PredictionKey generates a key for a prompt classification.
	PredictionKey(prompt string) string

	// ArtifactKey generates a key for a rendered artifact of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render options that distinguish artifacts of the
// same layout.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	// Options are format-specific settings, e.g. {"standalone": "true"}.
	Options map[string]string `json:"options,omitempty"`
}

// DefaultKeyer produces keys of the form "<type>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>" unhashed, so entries stay
// inspectable.
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// PlanKey hashes the prompt and seed.
func (DefaultKeyer) PlanKey(prompt string, seed int) string {
	return hashKey("plan", prompt, seed)
}

// CopyKey hashes the prompt, layout mode and section types. Section order
// matters since it is part of the request.
func (DefaultKeyer) CopyKey(prompt, layoutMode string, sections []string) string {
	return hashKey("copy", prompt, layoutMode, sections)
}

// PredictionKey hashes the prompt.
func (DefaultKeyer) PredictionKey(prompt string) string {
	return hashKey("predict", prompt)
}

// ArtifactKey hashes the layout hash with the format and sorted options.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	keys := make([]string, 0, len(opts.Options))
	for k := range opts.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, opts.Options[k])
	}
	return hashKey("artifact", layoutHash, opts.Format, pairs)
}

var _ Keyer = DefaultKeyer{}
