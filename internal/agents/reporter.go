package agents

import (
	"context"
	"fmt"

	"github.com/dyike/PortfolioGo/consts"
	"github.com/dyike/PortfolioGo/internal/aggregator"
	"github.com/dyike/PortfolioGo/models"
)

// NewReporter assembles the final report from the accumulated state.
func NewReporter(d *Deps) StageFunc {
	return func(ctx context.Context, state *models.WorkflowState) *models.StateDelta {
		delta := &models.StateDelta{Stage: consts.Report}
		delta.Logf("---GENERATING FINAL REPORT---")
		delta.Logf(fmt.Sprintf("Report generator received %d enriched stock results to process.", len(state.Enriched)))

		delta.Report = BuildReport(state)

		d.Log.Info().
			Int("holdings", len(delta.Report.StockAnalysis)).
			Int("news", len(delta.Report.News)).
			Int("errors", len(delta.Report.AnalysisErrors)).
			Msg("report generated")
		delta.Logf("---FINAL REPORT GENERATED SUCCESSFULLY---")
		return delta
	}
}

// BuildReport is the pure assembly step: enriched holdings, news, the error
// list and the aggregate metrics. Nil lists become empty ones.
func BuildReport(state *models.WorkflowState) *models.Report {
	report := &models.Report{
		StockAnalysis:    state.Enriched,
		News:             state.News,
		AnalysisErrors:   append([]string{}, state.Errors...),
		AggregateMetrics: aggregator.Aggregate(state.Enriched),
	}
	if report.StockAnalysis == nil {
		report.StockAnalysis = []models.Holding{}
	}
	if report.News == nil {
		report.News = []models.NewsBundle{}
	}
	return report
}
