// Package compose turns a plan and its content into an ordered list of render
// instructions.
//
// Composition is a pure function of (sections, layout mode, content). Each
// layout mode has its own strategy:
//
//   - application: the first topbar and first sidebar become fixed regions;
//     every other section flows into the content region.
//   - dashboard: sections become cards, except that a chart immediately
//     followed by a team list or table is grouped into one two-column row.
//   - landing, creative, and anything unrecognized: one full-width block per
//     section, separated by dividers.
//
// An empty section list composes to a single empty-state instruction.
//
// Output sinks consume the instructions without knowing which strategy
// produced them:
//
//	layout := compose.Build(p, store, seed)
//	for _, in := range layout.Instructions {
//	    for _, c := range in.Cells {
//	        fmt.Println(in.Key, c.Renderer.Name())
//	    }
//	}
package compose

import (
	"fmt"

	"github.com/matzehuels/pagesmith/pkg/core/content"
	"github.com/matzehuels/pagesmith/pkg/core/plan"
	"github.com/matzehuels/pagesmith/pkg/core/sections"
)

// EmptyMessage is shown by the empty-state instruction.
const EmptyMessage = "No sections to render. Please try another prompt."

// Wrapping describes the container an instruction renders into.
type Wrapping string

// Wrappings.
const (
	WrapPlain             Wrapping = "plain"
	WrapDashboardCard     Wrapping = "dashboard-card"
	WrapPairedGrid        Wrapping = "paired-grid"
	WrapApplicationRegion Wrapping = "application-region"
	WrapEmpty             Wrapping = "empty"
)

// Region places an application-mode instruction.
type Region string

// Application regions.
const (
	RegionTopbar  Region = "topbar"
	RegionSidebar Region = "sidebar"
	RegionContent Region = "content"
)

// Cell is one renderer invocation.
type Cell struct {
	Renderer sections.Renderer `json:"renderer"`
	Props    sections.Props    `json:"props"`
}

// Instruction is one render unit.
type Instruction struct {
	Key      string   `json:"key"`
	Wrapping Wrapping `json:"wrapping"`
	Cells    []Cell   `json:"cells,omitempty"`

	// Index is the position of the first cell's section in the list the
	// instruction was composed from.
	Index int `json:"index"`

	Region     Region `json:"region,omitempty"`
	FullHeight bool   `json:"full_height,omitempty"`
	Light      bool   `json:"light,omitempty"`
	Divider    bool   `json:"divider,omitempty"`
}

// Plan composes sections for mode, attaching each section's content slice.
func Plan(secs []plan.Section, mode plan.LayoutMode, store content.Store) []Instruction {
	if len(secs) == 0 {
		return []Instruction{{Key: "empty", Wrapping: WrapEmpty}}
	}
	switch mode {
	case plan.Application:
		return planApplication(secs, mode, store)
	case plan.Dashboard:
		return planDashboard(secs, mode, store)
	default:
		return planFlow(secs, mode, store)
	}
}

func planApplication(secs []plan.Section, mode plan.LayoutMode, store content.Store) []Instruction {
	var (
		out         []Instruction
		contentSecs []plan.Section
	)
	top, side := -1, -1
	for i, s := range secs {
		switch s.Type {
		case "topbar":
			if top < 0 {
				top = i
			}
		case "sidebar":
			if side < 0 {
				side = i
			}
		default:
			contentSecs = append(contentSecs, s)
		}
	}

	if top >= 0 {
		out = append(out, Instruction{
			Key:      "topbar",
			Wrapping: WrapApplicationRegion,
			Cells:    []Cell{cell(secs[top], mode, store)},
			Index:    top,
			Region:   RegionTopbar,
		})
	}
	if side >= 0 {
		out = append(out, Instruction{
			Key:      "sidebar",
			Wrapping: WrapApplicationRegion,
			Cells:    []Cell{cell(secs[side], mode, store)},
			Index:    side,
			Region:   RegionSidebar,
		})
	}
	for i, s := range contentSecs {
		out = append(out, Instruction{
			Key:        key(s.Type, i),
			Wrapping:   WrapApplicationRegion,
			Cells:      []Cell{cell(s, mode, store)},
			Index:      i,
			Region:     RegionContent,
			FullHeight: s.Type == "board",
		})
	}
	return out
}

func planDashboard(secs []plan.Section, mode plan.LayoutMode, store content.Store) []Instruction {
	out := make([]Instruction, 0, len(secs))
	for i := 0; i < len(secs); i++ {
		s := secs[i]
		if i+1 < len(secs) && pairs(s, secs[i+1]) {
			out = append(out, Instruction{
				Key:      fmt.Sprintf("grid-%d", i),
				Wrapping: WrapPairedGrid,
				Cells:    []Cell{cell(s, mode, store), cell(secs[i+1], mode, store)},
				Index:    i,
			})
			i++
			continue
		}
		out = append(out, Instruction{
			Key:      key(s.Type, i),
			Wrapping: WrapDashboardCard,
			Cells:    []Cell{cell(s, mode, store)},
			Index:    i,
			Light:    s.Type == "hero",
		})
	}
	return out
}

// pairs reports whether a and b share a two-column dashboard row: a chart
// followed directly by a team list or table.
func pairs(a, b plan.Section) bool {
	if sections.Lookup(a.Type) != sections.KindChartPanel {
		return false
	}
	return b.Type == "teamList" || b.Type == "table"
}

func planFlow(secs []plan.Section, mode plan.LayoutMode, store content.Store) []Instruction {
	out := make([]Instruction, len(secs))
	for i, s := range secs {
		out[i] = Instruction{
			Key:      key(s.Type, i),
			Wrapping: WrapPlain,
			Cells:    []Cell{cell(s, mode, store)},
			Index:    i,
			Divider:  true,
		}
	}
	return out
}

func cell(s plan.Section, mode plan.LayoutMode, store content.Store) Cell {
	return Cell{
		Renderer: sections.Resolve(s.Type),
		Props: sections.Props{
			Type:       s.Type,
			Variant:    s.Variant,
			LayoutMode: string(mode),
			Content:    store.Get(s.Type),
		},
	}
}

func key(typ string, i int) string {
	return fmt.Sprintf("%s-%d", typ, i)
}
