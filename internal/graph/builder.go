package graph

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/phuslu/log"

	"github.com/dyike/PortfolioGo/internal/agents"
	"github.com/dyike/PortfolioGo/models"
)

// panicError carries a recovered panic and the stack it was raised on.
type panicError struct {
	stage string
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("stage %s panicked: %v", e.stage, e.value)
}

// stageNode wraps a stage as a graph lambda: run the stage, merge its delta
// into the shared state and emit the stage event.
func stageNode(name string, stage agents.StageFunc, logger *log.Logger) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, state *models.WorkflowState) (out *models.WorkflowState, err error) {
		defer func() {
			if r := recover(); r != nil {
				pe := &panicError{stage: name, value: r, stack: debug.Stack()}
				logger.Error().Str("stage", name).Interface("panic", r).Str("stack", string(pe.stack)).Msg("stage panicked")
				err = pe
			}
		}()

		delta := stage(ctx, state)
		if delta == nil {
			delta = &models.StateDelta{}
		}
		delta.Stage = name
		state.Apply(delta)

		emitterFrom(ctx)(models.StageEvent{Stage: name, Delta: delta, At: time.Now()})
		return state, nil
	})
}
