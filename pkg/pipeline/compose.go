package pipeline

import (
	"github.com/matzehuels/pagesmith/pkg/core/compose"
	"github.com/matzehuels/pagesmith/pkg/core/content"
	"github.com/matzehuels/pagesmith/pkg/errors"
)

// Compose builds the layout for in: defaults are seeded from the plan's
// sections, then in.Content is merged over them.
func Compose(in Input) (*compose.Layout, error) {
	if in.Plan == nil {
		return nil, errors.New(errors.ErrCodeInvalidPlan, "no plan")
	}
	if err := in.Plan.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPlan, err, "invalid plan")
	}
	seed := in.Seed
	if seed == 0 {
		seed = compose.DefaultSeed
	}
	store := content.SeedDefaults(in.Plan.Sections)
	if len(in.Content) > 0 {
		store = content.MergeHydration(store, content.Patch(in.Content))
	}
	return compose.Build(in.Plan, store, seed), nil
}
