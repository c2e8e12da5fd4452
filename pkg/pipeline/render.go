package pipeline

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pagesmith/pkg/core/compose"
	"github.com/matzehuels/pagesmith/pkg/render"
	"github.com/matzehuels/pagesmith/pkg/render/sink"
)

// Render generates artifacts for every format in opts.Formats without
// caching. Formats render concurrently; the first failure is returned.
func Render(l *compose.Layout, opts Options) (map[render.Format][]byte, error) {
	return renderFormats(l, opts.Formats, opts.SinkOptions())
}

func renderFormats(l *compose.Layout, formats []render.Format, opts sink.Options) (map[render.Format][]byte, error) {
	var (
		mu        sync.Mutex
		artifacts = make(map[render.Format][]byte, len(formats))
		g         errgroup.Group
	)
	for _, f := range formats {
		g.Go(func() error {
			data, err := sink.Render(l, f, opts)
			if err != nil {
				return fmt.Errorf("render %s: %w", f, err)
			}
			mu.Lock()
			artifacts[f] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}
