package graph

import (
	"context"

	"github.com/cloudwego/eino/compose"
	"github.com/phuslu/log"

	"github.com/dyike/PortfolioGo/consts"
	"github.com/dyike/PortfolioGo/internal/agents"
	"github.com/dyike/PortfolioGo/models"
)

const graphName = "PortfolioGo-Analysis"

// NewAnalysisOrchestrator compiles the fixed analysis topology:
//
//	ingest -> validate -> enrich -> news -> report -> END
//
// with an early exit to END after ingest and validate when the run failed.
func NewAnalysisOrchestrator(ctx context.Context, stages agents.Stages, logger *log.Logger) (compose.Runnable[*models.WorkflowState, *models.WorkflowState], error) {
	g := compose.NewGraph[*models.WorkflowState, *models.WorkflowState]()

	nodes := []struct {
		key   string
		stage agents.StageFunc
	}{
		{consts.Ingest, stages.Ingest},
		{consts.Validate, stages.Validate},
		{consts.Enrich, stages.Enrich},
		{consts.News, stages.News},
		{consts.Report, stages.Report},
	}
	for _, n := range nodes {
		if err := g.AddLambdaNode(n.key, stageNode(n.key, n.stage, logger), compose.WithNodeName(n.key)); err != nil {
			return nil, err
		}
	}

	// a fatal error ends the run
	_ = g.AddEdge(compose.START, consts.Ingest)
	_ = g.AddBranch(consts.Ingest, haltOnFatal(consts.Validate))
	_ = g.AddBranch(consts.Validate, haltOnFatal(consts.Enrich))

	_ = g.AddEdge(consts.Enrich, consts.News)
	_ = g.AddEdge(consts.News, consts.Report)
	_ = g.AddEdge(consts.Report, compose.END)

	return g.Compile(ctx,
		compose.WithGraphName(graphName),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
	)
}
