package aggregator

import "github.com/dyike/PortfolioGo/models"

// CompareScenario aggregates the original holdings and the same holdings
// with the hypothetical trade appended. The input slice is not modified.
func CompareScenario(original []models.Holding, hypothetical models.Holding) *models.ScenarioComparison {
	simulated := make([]models.Holding, 0, len(original)+1)
	simulated = append(simulated, original...)
	simulated = append(simulated, hypothetical)

	return &models.ScenarioComparison{
		Hypothetical: hypothetical,
		Original:     Aggregate(original),
		Simulated:    Aggregate(simulated),
	}
}
