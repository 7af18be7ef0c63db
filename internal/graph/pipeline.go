// Package graph runs the analysis stages as an eino workflow graph and
// streams a StageEvent after every stage.
package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/phuslu/log"

	"github.com/dyike/PortfolioGo/consts"
	"github.com/dyike/PortfolioGo/internal/agents"
	"github.com/dyike/PortfolioGo/models"
)

// Emitter receives stage events of one run.
type Emitter func(models.StageEvent)

type emitterKey struct{}

// WithEmitter attaches e to ctx; stage nodes emit through it.
func WithEmitter(ctx context.Context, e Emitter) context.Context {
	return context.WithValue(ctx, emitterKey{}, e)
}

func emitterFrom(ctx context.Context) Emitter {
	if e, ok := ctx.Value(emitterKey{}).(Emitter); ok && e != nil {
		return e
	}
	return func(models.StageEvent) {}
}

// Pipeline is a compiled analysis graph. It is safe for concurrent runs;
// every run gets its own state.
type Pipeline struct {
	runnable compose.Runnable[*models.WorkflowState, *models.WorkflowState]
	callback *LoggerCallback
	log      *log.Logger
}

func NewPipeline(ctx context.Context, stages agents.Stages, logger *log.Logger) (*Pipeline, error) {
	r, err := NewAnalysisOrchestrator(ctx, stages, logger)
	if err != nil {
		return nil, fmt.Errorf("compile analysis graph: %w", err)
	}
	return &Pipeline{runnable: r, callback: NewLoggerCallback(logger), log: logger}, nil
}

// Run executes one analysis and returns the final state. Engine failures
// are recorded as the state's fatal error and also returned.
func (p *Pipeline) Run(ctx context.Context, file *models.UploadedFile) (*models.WorkflowState, error) {
	return p.run(ctx, file, nil)
}

// Stream executes one analysis in the background. The channel yields an
// event per completed stage, plus a final engine event on failure, and is
// closed when the run ends.
func (p *Pipeline) Stream(ctx context.Context, file *models.UploadedFile) <-chan models.StageEvent {
	// one slot per stage and one for the engine failure, so sends never block
	events := make(chan models.StageEvent, len(consts.Stages)+1)
	go func() {
		defer close(events)
		_, _ = p.run(ctx, file, func(ev models.StageEvent) { events <- ev })
	}()
	return events
}

func (p *Pipeline) run(ctx context.Context, file *models.UploadedFile, emit Emitter) (state *models.WorkflowState, err error) {
	state = models.NewWorkflowState(file)
	if emit != nil {
		ctx = WithEmitter(ctx, emit)
	}
	name := ""
	if file != nil {
		name = file.Name
	}
	started := time.Now()
	p.log.Info().Str("file", name).Msg("analysis started")

	defer func() {
		if r := recover(); r != nil {
			err = &panicError{stage: consts.Engine, value: r}
		}
		if err != nil {
			p.fail(ctx, state, err)
			return
		}
		p.log.Info().Str("file", name).Bool("failed", state.Failed()).
			Dur("elapsed", time.Since(started)).Msg("analysis finished")
	}()

	out, err := p.runnable.Invoke(ctx, state, compose.WithCallbacks(p.callback))
	if err != nil {
		return state, err
	}
	if out != nil {
		state = out
	}
	return state, nil
}

// fail turns an engine error into the run's terminal event.
func (p *Pipeline) fail(ctx context.Context, state *models.WorkflowState, err error) {
	msg := fmt.Sprintf(consts.MsgEngineFailure, err)
	delta := &models.StateDelta{Stage: consts.Engine, Fatal: msg}
	delta.Logf(msg)
	var pe *panicError
	if errors.As(err, &pe) && len(pe.stack) > 0 {
		delta.Logf(string(pe.stack))
	}
	// an engine failure replaces any earlier fatal message
	state.Fatal = msg

	p.log.Error().Err(err).Msg("analysis engine failed")
	emitterFrom(ctx)(models.StageEvent{Stage: consts.Engine, Delta: delta, Error: msg, At: time.Now()})
}
