package sink

import (
	"encoding/json"

	"github.com/matzehuels/pagesmith/pkg/core/compose"
)

type jsonOutput struct {
	Key          string                `json:"key"`
	Seed         int                   `json:"seed"`
	LayoutMode   string                `json:"layout_mode"`
	Classes      string                `json:"classes"`
	Empty        bool                  `json:"empty,omitempty"`
	Layout       *compose.Layout       `json:"layout"`
}

// RenderJSON renders the full composition, including the resolved style
// classes, as indented JSON.
func RenderJSON(l *compose.Layout) ([]byte, error) {
	return json.MarshalIndent(jsonOutput{
		Key:        l.Key,
		Seed:       l.Seed,
		LayoutMode: string(l.Mode),
		Classes:    l.Style.Classes(),
		Empty:      l.Empty(),
		Layout:     l,
	}, "", "  ")
}

// RenderExport renders the portable export document. The output is
// accepted back by plan loading, so an exported page can be re-rendered
// offline.
func RenderExport(l *compose.Layout) ([]byte, error) {
	return json.MarshalIndent(l.Export(), "", "  ")
}
