package graph

import (
	"context"

	"github.com/cloudwego/eino/compose"

	"github.com/dyike/PortfolioGo/models"
)

// haltOnFatal routes to END once a fatal error is recorded, otherwise on to next.
func haltOnFatal(next string) *compose.GraphBranch {
	return compose.NewGraphBranch(func(ctx context.Context, state *models.WorkflowState) (string, error) {
		if state.Failed() {
			return compose.END, nil
		}
		return next, nil
	}, map[string]bool{
		next:        true,
		compose.END: true,
	})
}
