package sink

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/pagesmith/pkg/core/compose"
	"github.com/matzehuels/pagesmith/pkg/core/content"
	"github.com/matzehuels/pagesmith/pkg/core/sections"
	"github.com/matzehuels/pagesmith/pkg/planner"
)

// DefaultTextWidth is the preview width when none is given.
const DefaultTextWidth = 80

// TextOptions configures [RenderText].
type TextOptions struct {
	Width      int
	Prediction *planner.Prediction
}

var (
	textTitle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	textDim      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	textBox      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("245")).Padding(0, 1)
	textCard     = textBox.BorderForeground(lipgloss.Color("36"))
	textFallback = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("220")).Padding(0, 1)
)

// RenderText renders a terminal preview of l. Paired dashboard rows are
// placed side by side; application regions are labelled.
func RenderText(l *compose.Layout, opts TextOptions) string {
	width := opts.Width
	if width <= 0 {
		width = DefaultTextWidth
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", textTitle.Render(string(l.Mode)), textDim.Render(fmt.Sprintf("%s · %s", l.Key, l.Style.Classes())))

	for _, in := range l.Instructions {
		switch in.Wrapping {
		case compose.WrapEmpty:
			b.WriteString(textBox.Width(width-2).Render(compose.EmptyMessage))
		case compose.WrapPairedGrid:
			half := width/2 - 2
			cols := make([]string, len(in.Cells))
			for i, c := range in.Cells {
				cols[i] = boxFor(c, textCard).Width(half).Render(cellText(c))
			}
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
		default:
			for _, c := range in.Cells {
				style := textBox
				if in.Wrapping == compose.WrapDashboardCard {
					style = textCard
				}
				body := cellText(c)
				if in.Region != "" {
					body = textDim.Render("["+string(in.Region)+"]") + "\n" + body
				}
				b.WriteString(boxFor(c, style).Width(width - 2).Render(body))
			}
		}
		b.WriteString("\n")
	}

	if opts.Prediction != nil {
		b.WriteString(inspector(opts.Prediction, width))
		b.WriteString("\n")
	}
	return b.String()
}

func boxFor(c compose.Cell, style lipgloss.Style) lipgloss.Style {
	if c.Renderer.IsFallback() {
		return textFallback
	}
	return style
}

// cellText is the preview body of one cell.
func cellText(c compose.Cell) string {
	k := c.Renderer.Kind
	v := content.Display(k, c.Props.Type, c.Props.Content)
	head := textTitle.Render(c.Renderer.Name()) + " " + textDim.Render(c.Props.Variant)

	var lines []string
	switch k {
	case sections.KindHero, sections.KindFullscreenHero:
		lines = []string{field(v, "heading"), field(v, "subheading")}
		if cta := field(v, "cta"); cta != "" {
			lines = append(lines, "[ "+cta+" ]")
		}
	case sections.KindKpiTiles:
		for _, item := range list(v, "") {
			lines = append(lines, fmt.Sprintf("%s: %s %s", field(item, "label"), field(item, "value"), field(item, "growth")))
		}
	case sections.KindBentoGrid, sections.KindFeatureRow, sections.KindProjectsGrid:
		items := list(v, "")
		if len(items) == 0 {
			lines = []string{field(v, "title"), field(v, "description")}
		}
		for _, item := range items {
			lines = append(lines, "• "+fieldOr(item, "title", summary(item)))
		}
	case sections.KindChartPanel:
		lines = []string{fieldOr(v, "title", "Performance"), "▁▂▃▅▆▇"}
	case sections.KindContactForm:
		lines = []string{fieldOr(v, "heading", "Get in touch"), "[name] [email] [message]"}
	case sections.KindFooter:
		lines = []string{fieldOr(v, "text", "Built with pagesmith")}
	case sections.KindTopbar:
		lines = []string{field(v, "appName")}
	case sections.KindSidebar, sections.KindMarqueeBand:
		var items []string
		for _, item := range list(v, "items") {
			items = append(items, str(item))
		}
		lines = []string{strings.Join(items, "  ")}
	case sections.KindBoard:
		for _, col := range list(v, "columns") {
			lines = append(lines, fmt.Sprintf("%s (%d)", field(col, "title"), len(list(col, "tasks"))))
		}
	case sections.KindActivityFeed:
		for _, item := range list(v, "items") {
			lines = append(lines, fmt.Sprintf("%s %s %s", field(item, "user"), field(item, "action"), field(item, "target")))
		}
	case sections.KindSplitReveal, sections.KindHorizontalGallery:
		lines = []string{field(v, "title"), field(v, "description")}
	case sections.KindFallback:
		title, detail := sections.Placeholder(c.Props)
		return title + "\n" + textDim.Render(detail)
	default:
		title, detail := sections.Placeholder(c.Props)
		return title + "\n" + textDim.Render(detail)
	}

	out := []string{head}
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// inspector renders the intent prediction panel.
func inspector(p *planner.Prediction, width int) string {
	lines := []string{
		textTitle.Render("Intent"),
		fmt.Sprintf("category:   %s (%.0f%%)", p.Category.Label, p.Category.Confidence*100),
		fmt.Sprintf("complexity: %s (%.0f%%)", p.Complexity.Label, p.Complexity.Confidence*100),
	}
	for _, c := range p.Category.TopK {
		lines = append(lines, textDim.Render(fmt.Sprintf("  %-20s %.2f", c.Label, c.Prob)))
	}
	return textBox.Width(width - 2).Render(strings.Join(lines, "\n"))
}
