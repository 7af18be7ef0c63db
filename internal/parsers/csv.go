package parsers

import (
	"bytes"
	"context"
	"encoding/csv"

	"github.com/dyike/PortfolioGo/models"
)

// CSVParser reads holdings statements exported as CSV.
type CSVParser struct{}

func (p *CSVParser) Parse(ctx context.Context, content []byte) (*models.Portfolio, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, parseFailed("read csv: %v", err)
	}
	return rowsToPortfolio(rows)
}
