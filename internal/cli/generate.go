package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pagesmith/pkg/errors"
	"github.com/matzehuels/pagesmith/pkg/pipeline"
	"github.com/matzehuels/pagesmith/pkg/render"
	"github.com/matzehuels/pagesmith/pkg/session"
)

// defaultCopyWait bounds how long generate waits for copy and prediction.
const defaultCopyWait = 60 * time.Second

type generateOpts struct {
	renderFlags
	seed    int
	wait    bool
	timeout time.Duration
	refresh bool
}

// generateCommand creates the generate command: prompt in, rendered page out.
func (c *CLI) generateCommand() *cobra.Command {
	opts := generateOpts{wait: true, timeout: defaultCopyWait}

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Plan, fill and render a page from a prompt",
		Long: `Generate sends the prompt to the planning service, composes the returned
plan into render instructions and renders them.

With --wait (the default) copy generation and page classification finish
before rendering; with --wait=false the page is rendered with seeded
placeholder copy as soon as the plan arrives.`,
		Example: `  pagesmith generate "landing page for a pottery studio"
  pagesmith generate "sales dashboard" -f html,export -o out/sales
  pagesmith generate "crm app" --seed 7 -f text`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd.Context(), args[0], opts)
		},
	}

	opts.register(cmd, render.FormatHTML)
	cmd.Flags().IntVar(&opts.seed, "seed", 0, "variation seed (default 42)")
	cmd.Flags().BoolVar(&opts.wait, "wait", opts.wait, "wait for generated copy before rendering")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", opts.timeout, "how long to wait for copy")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached plans, copy and artifacts")

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, prompt string, opts generateOpts) error {
	logger := loggerFromContext(ctx)
	if err := errors.ValidatePrompt(prompt); err != nil {
		return err
	}
	if _, err := render.ParseFormats(opts.formats); err != nil {
		return err
	}

	b, err := c.openBackend(ctx, opts.refresh)
	if err != nil {
		return err
	}
	defer b.Close()

	sessionOpts := []session.Option{session.WithLogger(logger)}
	if opts.seed != 0 {
		sessionOpts = append(sessionOpts, session.WithSeed(opts.seed))
	}
	ctl := session.NewController(b.svc, sessionOpts...)

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, "Planning page...")
	spinner.Start()

	snap, err := ctl.Generate(ctx, prompt)
	if err != nil {
		spinner.StopWithError(errors.UserMessage(err))
		return err
	}

	if opts.wait {
		spinner.Update("Writing copy...")
		waitCtx, cancel := context.WithTimeout(ctx, opts.timeout)
		err := ctl.Wait(waitCtx)
		cancel()
		if err != nil {
			logger.Warn("copy not ready, rendering with placeholders", "error", err)
		}
		snap = ctl.Snapshot()
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Planned %s page with %d sections", snap.Layout.Mode, len(snap.Plan.Sections)))
	if snap.Error != "" {
		logger.Warn("session finished with an error", "error", snap.Error)
	}

	renderOpts, err := opts.options(snap.Prediction, opts.refresh)
	if err != nil {
		return err
	}
	artifacts, hit, err := b.runner.RenderWithCacheInfo(ctx, snap.Layout, renderOpts)
	if err != nil {
		return err
	}

	paths := outputPaths(renderOpts.Formats, opts.output, "")
	if err := writeArtifacts(os.Stdout, artifacts, renderOpts.Formats, paths); err != nil {
		return err
	}
	if toStdout(paths) {
		return nil
	}

	printSuccess("Generated %s", StyleHighlight.Render(prompt))
	printStats(snap.Layout, hit)
	printPrediction(snap.Prediction)
	fmt.Fprintln(stdout, instructionTable(snap.Layout))
	printOutputs(renderOpts.Formats, paths)
	printNextStep("Shuffle interactively", fmt.Sprintf("%s tui %q", appName, prompt))
	return nil
}

// renderSnapshot renders a live session's layout, for callers that already
// hold a controller.
func renderSnapshot(ctx context.Context, r *pipeline.Runner, snap session.Snapshot, opts pipeline.Options) (map[render.Format][]byte, error) {
	if snap.Layout == nil {
		return nil, errors.New(errors.ErrCodeInvalidPlan, "session has no layout")
	}
	return r.Render(ctx, snap.Layout, opts)
}
