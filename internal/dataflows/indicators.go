package dataflows

import (
	"math"

	"github.com/dyike/PortfolioGo/models"
)

// rollingMean returns the mean of the last period closes ending at index i,
// or false when fewer than period closes are available.
func rollingMean(closes []float64, i, period int) (float64, bool) {
	if period <= 0 || i+1 < period {
		return 0, false
	}
	sum := 0.0
	for j := i - period + 1; j <= i; j++ {
		sum += closes[j]
	}
	return sum / float64(period), true
}

// calculateRSI computes RSI from simple rolling means of the last period
// gains and losses. A window with no losses yields 100; a flat window yields
// no value.
func calculateRSI(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}
	var gain, loss float64
	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gain += change
		} else {
			loss -= change
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	if avgLoss == 0 {
		if avgGain == 0 {
			return 0, false
		}
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs)), true
}

// technicalsFromBars derives the 50/200 day moving averages and RSI(14) at
// the latest bar.
func technicalsFromBars(bars []Bar) *models.Technicals {
	closes := closesOf(bars)
	last := len(closes) - 1
	t := &models.Technicals{}
	if v, ok := rollingMean(closes, last, 50); ok {
		t.MA50 = models.Float(v)
	}
	if v, ok := rollingMean(closes, last, 200); ok {
		t.MA200 = models.Float(v)
	}
	if v, ok := calculateRSI(closes, 14); ok {
		t.RSI14 = models.Float(v)
	}
	return t
}

// historyFromBars attaches trailing moving averages to every bar.
func historyFromBars(bars []Bar) []models.PricePoint {
	closes := closesOf(bars)
	points := make([]models.PricePoint, len(bars))
	for i, b := range bars {
		points[i] = models.PricePoint{
			Date:  b.Date.Format("2006-01-02"),
			Close: b.Close,
		}
		if v, ok := rollingMean(closes, i, 50); ok {
			points[i].MA50 = models.Float(v)
		}
		if v, ok := rollingMean(closes, i, 200); ok {
			points[i].MA200 = models.Float(v)
		}
	}
	return points
}

func closesOf(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
