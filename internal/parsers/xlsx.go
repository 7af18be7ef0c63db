package parsers

import (
	"bytes"
	"context"

	"github.com/xuri/excelize/v2"

	"github.com/dyike/PortfolioGo/models"
)

// XLSXParser reads the first sheet of an Excel holdings statement.
type XLSXParser struct{}

func (p *XLSXParser) Parse(ctx context.Context, content []byte) (*models.Portfolio, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, parseFailed("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, parseFailed("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, parseFailed("read sheet %s: %v", sheets[0], err)
	}
	return rowsToPortfolio(rows)
}
