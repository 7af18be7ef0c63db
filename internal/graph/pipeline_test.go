package graph

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/PortfolioGo/consts"
	"github.com/dyike/PortfolioGo/internal/agents"
	"github.com/dyike/PortfolioGo/internal/logger"
	"github.com/dyike/PortfolioGo/models"
)

type stageCalls struct {
	enrich atomic.Int32
	news   atomic.Int32
}

func fakeStages(calls *stageCalls) agents.Stages {
	return agents.Stages{
		Ingest: func(ctx context.Context, s *models.WorkflowState) *models.StateDelta {
			if s.File == nil {
				return &models.StateDelta{Fatal: consts.MsgNoFile}
			}
			return &models.StateDelta{Portfolio: &models.Portfolio{Stocks: []models.Holding{{Ticker: s.File.Name}}}}
		},
		Validate: func(ctx context.Context, s *models.WorkflowState) *models.StateDelta {
			if s.Portfolio.Stocks[0].Ticker == "EMPTY" {
				return &models.StateDelta{Fatal: consts.MsgNoStocks}
			}
			return &models.StateDelta{}
		},
		Enrich: func(ctx context.Context, s *models.WorkflowState) *models.StateDelta {
			calls.enrich.Add(1)
			if s.Portfolio.Stocks[0].Ticker == "PANIC" {
				panic("enrichment exploded")
			}
			return &models.StateDelta{
				Enriched: []models.Holding{{Ticker: "TCS", InvestedValue: 100, CurrentValue: 150}},
				Errors:   []string{"Could not process stock ITC: no data"},
			}
		},
		News: func(ctx context.Context, s *models.WorkflowState) *models.StateDelta {
			calls.news.Add(1)
			return &models.StateDelta{News: []models.NewsBundle{}}
		},
		Report: func(ctx context.Context, s *models.WorkflowState) *models.StateDelta {
			return &models.StateDelta{Report: agents.BuildReport(s)}
		},
	}
}

func newTestPipeline(t *testing.T, calls *stageCalls) *Pipeline {
	t.Helper()
	p, err := NewPipeline(context.Background(), fakeStages(calls), logger.Nop())
	require.NoError(t, err)
	return p
}

func collect(ch <-chan models.StageEvent) []models.StageEvent {
	var out []models.StageEvent
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func stagesOf(events []models.StageEvent) []string {
	names := make([]string, len(events))
	for i, ev := range events {
		names[i] = ev.Stage
	}
	return names
}

func TestPipelineRunsAllStages(t *testing.T) {
	calls := &stageCalls{}
	p := newTestPipeline(t, calls)

	events := collect(p.Stream(context.Background(), &models.UploadedFile{Name: "OK"}))
	assert.Equal(t, consts.Stages, stagesOf(events))
	for _, ev := range events {
		assert.Empty(t, ev.Error)
		require.NotNil(t, ev.Delta)
		assert.Equal(t, ev.Stage, ev.Delta.Stage)
	}

	final := events[len(events)-1].Delta.Report
	require.NotNil(t, final)
	assert.Equal(t, 150.0, final.CurrentValue)
	assert.Equal(t, []string{"Could not process stock ITC: no data"}, final.AnalysisErrors)
}

func TestPipelineRunReturnsFinalState(t *testing.T) {
	p := newTestPipeline(t, &stageCalls{})

	state, err := p.Run(context.Background(), &models.UploadedFile{Name: "OK"})
	require.NoError(t, err)
	assert.False(t, state.Failed())
	require.NotNil(t, state.Report)
	assert.Len(t, state.Report.StockAnalysis, 1)
	assert.Equal(t, "OK", state.Portfolio.Stocks[0].Ticker)
}

func TestPipelineStopsAfterIngestFailure(t *testing.T) {
	calls := &stageCalls{}
	p := newTestPipeline(t, calls)

	events := collect(p.Stream(context.Background(), nil))
	assert.Equal(t, []string{consts.Ingest}, stagesOf(events))
	assert.Equal(t, consts.MsgNoFile, events[0].Delta.Fatal)
	assert.Zero(t, calls.enrich.Load())

	state, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, consts.MsgNoFile, state.Fatal)
	assert.Nil(t, state.Report)
}

func TestPipelineStopsAfterValidationFailure(t *testing.T) {
	calls := &stageCalls{}
	p := newTestPipeline(t, calls)

	events := collect(p.Stream(context.Background(), &models.UploadedFile{Name: "EMPTY"}))
	assert.Equal(t, []string{consts.Ingest, consts.Validate}, stagesOf(events))
	assert.Equal(t, consts.MsgNoStocks, events[1].Delta.Fatal)
	assert.Zero(t, calls.enrich.Load())
	assert.Zero(t, calls.news.Load())
}

func TestPipelineReportsEngineFailure(t *testing.T) {
	calls := &stageCalls{}
	p := newTestPipeline(t, calls)

	events := collect(p.Stream(context.Background(), &models.UploadedFile{Name: "PANIC"}))
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, consts.Engine, last.Stage)
	assert.True(t, strings.HasPrefix(last.Error, "A critical error occurred in the analysis engine: "))
	assert.Contains(t, last.Error, "enrichment exploded")
	assert.Zero(t, calls.news.Load())

	state, err := p.Run(context.Background(), &models.UploadedFile{Name: "PANIC"})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(state.Fatal, "A critical error occurred in the analysis engine: "))
}

func TestEmitterFromDefaultsToNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		emitterFrom(context.Background())(models.StageEvent{Stage: consts.Ingest})
	})

	var got []string
	ctx := WithEmitter(context.Background(), func(ev models.StageEvent) { got = append(got, ev.Stage) })
	emitterFrom(ctx)(models.StageEvent{Stage: consts.Report})
	assert.Equal(t, []string{consts.Report}, got)
}
