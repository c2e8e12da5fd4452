// Package plan defines the structural description of a generated page.
//
// A [Plan] is produced by the external planning service and is read-only to
// the rest of pagesmith. It names a layout mode, an ordered list of typed
// sections, and a small set of style tokens ("design DNA"). Everything else
// on the plan (budget, explanation, clarification flag) is carried through
// untouched for display.
//
// Plans arrive as JSON from the planning service and may also be loaded from
// JSON or YAML files for offline rendering:
//
//	p, err := plan.Read(f, plan.FormatYAML)
//	if err != nil {
//	    return err
//	}
//	for _, s := range p.Sections {
//	    fmt.Println(s.Type, s.Variant)
//	}
package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LayoutMode selects the composition strategy for a plan.
// Unknown modes compose like [Landing].
type LayoutMode string

// Known layout modes.
const (
	Landing     LayoutMode = "landing"
	Dashboard   LayoutMode = "dashboard"
	Application LayoutMode = "application"
	Creative    LayoutMode = "creative"
)

// IsDarkBase reports whether the mode renders on a dark base surface.
// Theme tokens are resolved relative to this polarity.
func (m LayoutMode) IsDarkBase() bool {
	return m == Dashboard || m == Creative
}

// Known reports whether m is one of the four defined modes.
func (m LayoutMode) Known() bool {
	switch m {
	case Landing, Dashboard, Application, Creative:
		return true
	}
	return false
}

// Section is one structural block of the page.
type Section struct {
	Type    string `json:"type" yaml:"type"`
	Variant string `json:"variant" yaml:"variant"`
}

// Tokens is the design-DNA record. Every field is optional; empty or
// unrecognized values resolve to a per-token default.
type Tokens struct {
	Palette string `json:"palette,omitempty" yaml:"palette,omitempty"`
	Tone    string `json:"tone,omitempty" yaml:"tone,omitempty"`
	Density string `json:"density,omitempty" yaml:"density,omitempty"`
	Radius  string `json:"radius,omitempty" yaml:"radius,omitempty"`
	Theme   string `json:"theme,omitempty" yaml:"theme,omitempty"`
}

// Explanation holds the planner's human-readable reasoning.
type Explanation struct {
	LayoutReason     string `json:"layout_reason,omitempty" yaml:"layout_reason,omitempty"`
	ComplexityReason string `json:"complexity_reason,omitempty" yaml:"complexity_reason,omitempty"`
	SectionReason    string `json:"section_reason,omitempty" yaml:"section_reason,omitempty"`
	MLReason         string `json:"ml_reason,omitempty" yaml:"ml_reason,omitempty"`
}

// Plan is the structural description of a page.
type Plan struct {
	Layout             string       `json:"layout,omitempty" yaml:"layout,omitempty"`
	LayoutMode         LayoutMode   `json:"layout_mode" yaml:"layout_mode"`
	Sections           []Section    `json:"sections" yaml:"sections"`
	Tokens             *Tokens      `json:"designDNA,omitempty" yaml:"designDNA,omitempty"`
	SectionBudget      int          `json:"section_budget,omitempty" yaml:"section_budget,omitempty"`
	NeedsClarification bool         `json:"needs_clarification,omitempty" yaml:"needs_clarification,omitempty"`
	Explanation        *Explanation `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// Types returns the section types in render order, duplicates included.
// This is the list sent with copy-generation requests.
func (p *Plan) Types() []string {
	if p == nil {
		return nil
	}
	types := make([]string, len(p.Sections))
	for i, s := range p.Sections {
		types[i] = s.Type
	}
	return types
}

// Format identifies a plan file encoding.
type Format string

// Supported plan file formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the plan format from a file extension.
// Anything that is not .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Document is a plan file: a plan plus optional pre-filled content keyed by
// section type. Exported layouts use the same shape.
type Document struct {
	Plan    `yaml:",inline"`
	Content map[string]any `json:"content,omitempty" yaml:"content,omitempty"`
}

// Read decodes a plan document from r.
func Read(r io.Reader, format Format) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return Unmarshal(data, format)
}

// Unmarshal decodes a plan document from data.
func Unmarshal(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml plan: %w", err)
		}
		doc.Content = normalizeYAML(doc.Content)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json plan: %w", err)
		}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks structural requirements: every section needs a type.
// Empty section lists are valid and compose to an empty-state layout.
func (p *Plan) Validate() error {
	for i, s := range p.Sections {
		if strings.TrimSpace(s.Type) == "" {
			return fmt.Errorf("section %d: missing type", i)
		}
	}
	return nil
}

// normalizeYAML converts yaml.v3 generic values into the JSON-shaped values
// the content store works with.
func normalizeYAML(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalizeYAML(t)
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeValue(val)
		}
		return out
	case int:
		return float64(t)
	default:
		return v
	}
}
