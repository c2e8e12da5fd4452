package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pagesmith/pkg/core/plan"
	"github.com/matzehuels/pagesmith/pkg/errors"
	"github.com/matzehuels/pagesmith/pkg/pipeline"
	"github.com/matzehuels/pagesmith/pkg/render"
)

type renderOpts struct {
	renderFlags
	seed    int
	refresh bool
}

// renderCommand creates the render command for plan files. It needs no
// planning service: the plan and any content come from the file.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <plan-file>",
		Short: "Compose and render a plan file",
		Long: `Render composes a plan document (JSON or YAML) and renders it.

The document holds layout_mode, sections, optional designDNA and an optional
content map keyed by section type. Exports written with -f export are valid
input. Use "-" to read JSON from stdin.`,
		Example: `  pagesmith render plan.yaml
  pagesmith render page.export.json -f html,jsx -o site/index
  cat plan.json | pagesmith render - -f text`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	opts.register(cmd, render.FormatHTML)
	cmd.Flags().IntVar(&opts.seed, "seed", 0, "variation seed (default 42)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached artifacts")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	logger := loggerFromContext(ctx)

	doc, err := readPlan(input)
	if err != nil {
		return err
	}
	logger.Debug("loaded plan", "path", input, "mode", doc.LayoutMode, "sections", len(doc.Sections))

	pipeOpts, err := opts.options(nil, opts.refresh)
	if err != nil {
		return err
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	ch, err := cfg.OpenCache(ctx)
	if err != nil {
		logger.Warn("cache unavailable, continuing without", "error", err)
		ch = nil
	}
	runner := pipeline.NewRunner(ch, nil, logger)
	defer runner.Close()

	result, err := runner.Execute(ctx, pipeline.InputFromDocument(doc, opts.seed), pipeOpts)
	if err != nil {
		return err
	}

	paths := outputPaths(pipeOpts.Formats, opts.output, input)
	if err := writeArtifacts(os.Stdout, result.Artifacts, pipeOpts.Formats, paths); err != nil {
		return err
	}
	if toStdout(paths) {
		return nil
	}

	printSuccess("Rendered %s", StyleHighlight.Render(input))
	printStats(result.Layout, result.CacheInfo.RenderHit)
	fmt.Fprintln(stdout, instructionTable(result.Layout))
	printOutputs(pipeOpts.Formats, paths)
	return nil
}

// readPlan reads a plan document from path, or JSON from stdin for "-".
func readPlan(path string) (*plan.Document, error) {
	var (
		r      io.Reader
		format = plan.FormatFromPath(path)
	)
	if path == "-" {
		r = os.Stdin
	} else {
		if err := errors.ValidatePath(path); err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "plan file %s", path)
			}
			return nil, err
		}
		defer f.Close()
		r = f
	}
	doc, err := plan.Read(r, format)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPlan, err, "%s", path)
	}
	return doc, nil
}
