package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pagesmith/pkg/pipeline"
	"github.com/matzehuels/pagesmith/pkg/planner"
	"github.com/matzehuels/pagesmith/pkg/render"
)

// renderFlags are the output flags shared by generate and render.
type renderFlags struct {
	formats    string
	output     string
	standalone bool
	title      string
	detailed   bool
	width      int
}

func (r *renderFlags) register(cmd *cobra.Command, defaultFormat render.Format) {
	r.formats = string(defaultFormat)
	cmd.Flags().StringVarP(&r.formats, "format", "f", r.formats, "output format(s), comma-separated: "+strings.Join(render.FormatNames(), ", "))
	cmd.Flags().StringVarP(&r.output, "output", "o", "", "output file (single format) or base path (several formats); stdout when empty")
	cmd.Flags().BoolVar(&r.standalone, "standalone", true, "wrap HTML in a full document")
	cmd.Flags().StringVar(&r.title, "title", "", "HTML document title")
	cmd.Flags().BoolVar(&r.detailed, "detailed", false, "add content summaries to dot/svg diagrams")
	cmd.Flags().IntVar(&r.width, "width", 0, "text preview width in columns")
}

// options parses the format list and builds the render options.
func (r *renderFlags) options(prediction *planner.Prediction, refresh bool) (pipeline.Options, error) {
	formats, err := render.ParseFormats(r.formats)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Formats:    formats,
		Standalone: r.standalone,
		Title:      r.title,
		Detailed:   r.detailed,
		Width:      r.width,
		Refresh:    refresh,
		Prediction: prediction,
	}, nil
}

// outputPaths decides where each artifact goes. A single format with no
// --output goes to stdout (the empty path). Several formats share a base
// path and get their format's extension.
func outputPaths(formats []render.Format, output, fallbackBase string) map[render.Format]string {
	paths := make(map[render.Format]string, len(formats))
	if len(formats) == 1 {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, fallbackBase)
	for _, f := range formats {
		paths[f] = base + f.Ext()
	}
	return paths
}

// basePath strips a known format extension from output, or derives the
// base from fallback when output is empty.
func basePath(output, fallback string) string {
	if output == "" {
		if fallback == "" || fallback == "-" {
			return defaultOutputBase
		}
		return strings.TrimSuffix(fallback, filepath.Ext(fallback))
	}
	exts := make([]string, 0, len(render.Formats()))
	for _, f := range render.Formats() {
		exts = append(exts, f.Ext())
	}
	// ".export.json" must win over ".json".
	sort.Slice(exts, func(i, j int) bool { return len(exts[i]) > len(exts[j]) })
	for _, ext := range exts {
		if strings.HasSuffix(output, ext) {
			return strings.TrimSuffix(output, ext)
		}
	}
	return output
}

// toStdout reports whether any artifact is written to stdout, in which case
// status output is suppressed.
func toStdout(paths map[render.Format]string) bool {
	for _, p := range paths {
		if p == "" {
			return true
		}
	}
	return false
}

// writeArtifacts writes each artifact to its path, or to w when the path
// is empty.
func writeArtifacts(w io.Writer, artifacts map[render.Format][]byte, formats []render.Format, paths map[render.Format]string) error {
	for _, f := range formats {
		data := artifacts[f]
		path := paths[f]
		if path == "" {
			if _, err := w.Write(data); err != nil {
				return err
			}
			if len(data) > 0 && data[len(data)-1] != '\n' {
				fmt.Fprintln(w)
			}
			continue
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", f, err)
		}
	}
	return nil
}

// printOutputs lists the files written, skipping stdout.
func printOutputs(formats []render.Format, paths map[render.Format]string) {
	for _, f := range formats {
		if p := paths[f]; p != "" {
			printFile(p)
		}
	}
}
