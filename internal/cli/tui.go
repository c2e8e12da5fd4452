package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pagesmith/pkg/errors"
	"github.com/matzehuels/pagesmith/pkg/observability"
	"github.com/matzehuels/pagesmith/pkg/pipeline"
	"github.com/matzehuels/pagesmith/pkg/render"
	"github.com/matzehuels/pagesmith/pkg/render/sink"
	"github.com/matzehuels/pagesmith/pkg/session"
)

// tuiCommand creates the interactive session command.
func (c *CLI) tuiCommand() *cobra.Command {
	var (
		seed   int
		export string
	)

	cmd := &cobra.Command{
		Use:   "tui <prompt>",
		Short: "Explore a page interactively",
		Long: `Tui plans a page and shows a live terminal preview. Copy and the page
classification stream in as they arrive.

Keys: s shuffle the variant, c regenerate copy, x write the export,
q quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTUI(cmd.Context(), args[0], seed, export)
		},
	}

	cmd.Flags().IntVar(&seed, "seed", 0, "initial variation seed (default 42)")
	cmd.Flags().StringVar(&export, "export", defaultOutputBase+render.FormatExport.Ext(), "file written by the x key")

	return cmd
}

func (c *CLI) runTUI(ctx context.Context, prompt string, seed int, export string) error {
	if err := errors.ValidatePrompt(prompt); err != nil {
		return err
	}
	// The program owns the terminal; log lines would tear the view.
	c.Logger.SetOutput(io.Discard)
	observability.Reset()

	b, err := c.openBackend(ctx, false)
	if err != nil {
		return err
	}
	defer b.Close()

	var p *tea.Program
	opts := []session.Option{
		session.WithLogger(c.Logger),
		session.WithOnChange(func(s session.Snapshot) {
			if p != nil {
				p.Send(snapshotMsg(s))
			}
		}),
	}
	if seed != 0 {
		opts = append(opts, session.WithSeed(seed))
	}
	ctl := session.NewController(b.svc, opts...)

	m := newSessionModel(ctx, ctl, b.runner, prompt)
	m.exportPath = export
	p = tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(os.Stderr))
	_, err = p.Run()
	return err
}

// =============================================================================
// sessionModel - live session view
// =============================================================================

type (
	// snapshotMsg carries a controller change notification.
	snapshotMsg session.Snapshot
	// actionMsg is the result of a blocking controller call.
	actionMsg struct {
		snap session.Snapshot
		err  error
	}
	// exportMsg reports a written export.
	exportMsg struct {
		path string
		err  error
	}
)

var (
	tuiStatusStyle = lipgloss.NewStyle().Foreground(colorGray)
	tuiErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
	tuiHelpStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

type sessionModel struct {
	ctx    context.Context
	ctl    *session.Controller
	runner *pipeline.Runner
	prompt string

	snap       session.Snapshot
	busy       bool
	status     string
	width      int
	exportPath string
}

func newSessionModel(ctx context.Context, ctl *session.Controller, runner *pipeline.Runner, prompt string) sessionModel {
	return sessionModel{
		ctx:    ctx,
		ctl:    ctl,
		runner: runner,
		prompt: prompt,
		snap:   ctl.Snapshot(),
		busy:   true,
		status: "planning...",
		width:  sink.DefaultTextWidth,
	}
}

func (m sessionModel) Init() tea.Cmd {
	ctl, ctx, prompt := m.ctl, m.ctx, m.prompt
	return func() tea.Msg {
		snap, err := ctl.Generate(ctx, prompt)
		return actionMsg{snap: snap, err: err}
	}
}

func (m sessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case snapshotMsg:
		// Change notifications can arrive after a newer action result.
		if msg.Generation >= m.snap.Generation {
			m.snap = session.Snapshot(msg)
		}
	case actionMsg:
		m.busy = false
		m.snap = msg.snap
		m.status = ""
		if msg.err != nil {
			m.status = errors.UserMessage(msg.err)
		}
	case exportMsg:
		if msg.err != nil {
			m.status = "export failed: " + msg.err.Error()
		} else {
			m.status = "wrote " + msg.path
		}
	}
	return m, nil
}

func (m sessionModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	}
	if m.busy || m.snap.Plan == nil {
		return m, nil
	}

	ctl, ctx := m.ctl, m.ctx
	switch msg.String() {
	case "s":
		m.busy = true
		m.status = fmt.Sprintf("shuffling to seed %d...", m.snap.Seed+1)
		return m, func() tea.Msg {
			snap, err := ctl.Shuffle(ctx)
			return actionMsg{snap: snap, err: err}
		}
	case "c":
		m.busy = true
		m.status = "regenerating copy..."
		return m, func() tea.Msg {
			snap, err := ctl.RegenerateCopy(ctx)
			return actionMsg{snap: snap, err: err}
		}
	case "x":
		snap, runner, path := m.snap, m.runner, m.exportPath
		return m, func() tea.Msg {
			opts := pipeline.Options{Formats: []render.Format{render.FormatExport}}
			artifacts, err := renderSnapshot(ctx, runner, snap, opts)
			if err == nil {
				err = os.WriteFile(path, artifacts[render.FormatExport], 0644)
			}
			return exportMsg{path: path, err: err}
		}
	}
	return m, nil
}

func (m sessionModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(appName) + " " + StyleDim.Render(m.prompt))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	if m.snap.Layout != nil {
		b.WriteString(sink.RenderText(m.snap.Layout, sink.TextOptions{
			Width:      m.width,
			Prediction: m.snap.Prediction,
		}))
		b.WriteString("\n")
	} else if m.snap.Error != "" {
		b.WriteString(tuiErrorStyle.Render(m.snap.Error))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(tuiHelpStyle.Render("s shuffle  c copy  x export  q quit"))
	return b.String()
}

func (m sessionModel) statusLine() string {
	parts := []string{string(m.snap.State), fmt.Sprintf("seed %d", m.snap.Seed)}
	if m.snap.Pending.Copy {
		parts = append(parts, "writing copy")
	}
	if m.snap.Pending.Prediction {
		parts = append(parts, "classifying")
	}
	line := tuiStatusStyle.Render(strings.Join(parts, " · "))
	if m.status != "" {
		style := tuiStatusStyle
		if m.snap.State == session.StateErrored {
			style = tuiErrorStyle
		}
		line += "  " + style.Render(m.status)
	}
	return line
}
