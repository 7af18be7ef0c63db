package parsers

import (
	"strconv"
	"strings"

	"github.com/dyike/PortfolioGo/models"
)

// Statement headers after normalization, mapped to holding fields.
var columnAliases = map[string]string{
	"instrument": "ticker",
	"qty":        "quantity",
	"avg_cost":   "average_cost",
	"invested":   "invested_value",
	"cur_val":    "current_value",
	"p&l":        "pnl",
}

var requiredColumns = []string{"ticker", "quantity", "average_cost", "invested_value", "current_value", "pnl"}

// normalizeHeader trims, drops dots, turns spaces into underscores and
// lower-cases a column header, so "Avg. cost" becomes "avg_cost".
func normalizeHeader(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	h = strings.ReplaceAll(h, ".", "")
	h = strings.ReplaceAll(h, " ", "_")
	return strings.ToLower(h)
}

// rowsToPortfolio converts a header row followed by data rows.
func rowsToPortfolio(rows [][]string) (*models.Portfolio, error) {
	if len(rows) == 0 {
		return nil, parseFailed("statement is empty")
	}

	index := make(map[string]int)
	for i, raw := range rows[0] {
		name := normalizeHeader(raw)
		if alias, ok := columnAliases[name]; ok {
			name = alias
		}
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, parseFailed("missing required columns %s; expected Instrument, Qty, Avg. cost, Invested, Cur. val and P&L",
			strings.Join(missing, ", "))
	}

	stocks := make([]models.Holding, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		cell := func(col string) string {
			if i := index[col]; i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		h := models.Holding{Ticker: strings.ToUpper(cell("ticker"))}
		fields := []struct {
			col string
			dst *float64
		}{
			{"quantity", &h.Quantity},
			{"average_cost", &h.AverageCost},
			{"invested_value", &h.InvestedValue},
			{"current_value", &h.CurrentValue},
			{"pnl", &h.PnL},
		}
		for _, f := range fields {
			v, err := parseNumber(cell(f.col))
			if err != nil {
				return nil, parseFailed("row %d column %s: %v", n+2, f.col, err)
			}
			*f.dst = v
		}
		stocks = append(stocks, h)
	}

	return &models.Portfolio{Stocks: stocks}, nil
}

// parseNumber accepts thousands separators and treats an empty cell as zero.
func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
