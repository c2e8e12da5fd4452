package compose

import (
	"fmt"

	"github.com/matzehuels/pagesmith/pkg/core/content"
	"github.com/matzehuels/pagesmith/pkg/core/plan"
	"github.com/matzehuels/pagesmith/pkg/core/tokens"
)

// DefaultSeed is the variation seed of a fresh session.
const DefaultSeed = 42

// Layout is a fully composed page, ready for a sink.
type Layout struct {
	// Key changes whenever the variation seed does, so renderers that key on
	// it rebuild from scratch.
	Key          string             `json:"key"`
	Seed         int                `json:"seed"`
	Mode         plan.LayoutMode    `json:"layout_mode"`
	Style        tokens.StyleConfig `json:"style"`
	Instructions []Instruction      `json:"instructions"`

	Plan    *plan.Plan    `json:"plan"`
	Content content.Store `json:"content"`
}

// Build composes p with store. A nil plan has no layout and yields nil;
// a plan with no sections yields a layout holding the empty-state
// instruction.
func Build(p *plan.Plan, store content.Store, seed int) *Layout {
	if p == nil {
		return nil
	}
	if store == nil {
		store = content.Store{}
	}
	return &Layout{
		Key:          SeedKey(seed),
		Seed:         seed,
		Mode:         p.LayoutMode,
		Style:        tokens.Resolve(p.Tokens, p.LayoutMode),
		Instructions: Plan(p.Sections, p.LayoutMode, store),
		Plan:         p,
		Content:      store,
	}
}

// SeedKey returns the layout key for a seed.
func SeedKey(seed int) string {
	return fmt.Sprintf("seed-%d", seed)
}

// Empty reports whether the layout only holds the empty-state instruction.
func (l *Layout) Empty() bool {
	return l != nil && len(l.Instructions) == 1 && l.Instructions[0].Wrapping == WrapEmpty
}

// Cells returns every cell in render order.
func (l *Layout) Cells() []Cell {
	if l == nil {
		return nil
	}
	var out []Cell
	for _, in := range l.Instructions {
		out = append(out, in.Cells...)
	}
	return out
}

// Export is the portable form of a layout: the plan's structure plus the
// current content.
type Export struct {
	LayoutMode plan.LayoutMode `json:"layout_mode" yaml:"layout_mode"`
	Sections   []plan.Section  `json:"sections" yaml:"sections"`
	Content    content.Store   `json:"content" yaml:"content"`
	Tokens     *plan.Tokens    `json:"designDNA,omitempty" yaml:"designDNA,omitempty"`
}

// Export returns the portable form of l.
func (l *Layout) Export() Export {
	if l == nil || l.Plan == nil {
		return Export{Content: content.Store{}}
	}
	secs := l.Plan.Sections
	if secs == nil {
		secs = []plan.Section{}
	}
	return Export{
		LayoutMode: l.Plan.LayoutMode,
		Sections:   secs,
		Content:    l.Content,
		Tokens:     l.Plan.Tokens,
	}
}
