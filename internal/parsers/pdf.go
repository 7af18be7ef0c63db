package parsers

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/dyike/PortfolioGo/models"
)

// One holding per match: ticker, quantity, average cost, invested,
// current value and P&L. Whitespace between columns may include newlines.
var holdingLine = regexp.MustCompile(`([A-Z&]+)\s+(\d+)\s+([\d,]+\.\d{2})\s+([\d,]+\.\d{2})\s+([\d,]+\.\d{2})\s+(-?[\d,]+\.\d{2})`)

var (
	showText      = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)\s*(?:Tj|'|")`)
	showTextArray = regexp.MustCompile(`(?s)\[(.*?)\]\s*TJ`)
	arrayString   = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)
	pageSuffix    = regexp.MustCompile(`(\d+)\.txt$`)
)

// PDFParser extracts holdings from text-based PDF statements.
type PDFParser struct {
	tempDir string
}

func NewPDFParser() *PDFParser {
	return &PDFParser{tempDir: os.TempDir()}
}

func (p *PDFParser) Parse(ctx context.Context, content []byte) (*models.Portfolio, error) {
	text, err := p.extractText(content)
	if err != nil {
		return nil, parseFailed("extract pdf text: %v", err)
	}
	return parseStatementText(text)
}

// extractText writes the upload to disk, lets pdfcpu dump each page's content
// stream and collects the shown strings in page order.
func (p *PDFParser) extractText(content []byte) (string, error) {
	workDir, err := os.MkdirTemp(p.tempDir, "statement_*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(workDir)

	inFile := filepath.Join(workDir, "statement.pdf")
	if err := os.WriteFile(inFile, content, 0o600); err != nil {
		return "", err
	}
	outDir := filepath.Join(workDir, "content")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(inFile, outDir, nil, conf); err != nil {
		return "", err
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", err
	}
	sort.Slice(entries, func(i, j int) bool {
		return pageNumber(entries[i].Name()) < pageNumber(entries[j].Name())
	})

	var b strings.Builder
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(outDir, e.Name()))
		if err != nil {
			return "", err
		}
		b.WriteString(contentStreamText(string(raw)))
		b.WriteString("\n")
	}
	return b.String(), nil
}

func pageNumber(name string) int {
	m := pageSuffix.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// contentStreamText returns the strings drawn by Tj, ', " and TJ operators,
// one per line.
func contentStreamText(stream string) string {
	type shown struct {
		at   int
		text string
	}
	var parts []shown
	for _, m := range showText.FindAllStringSubmatchIndex(stream, -1) {
		parts = append(parts, shown{at: m[0], text: unescapePDFString(stream[m[2]:m[3]])})
	}
	for _, m := range showTextArray.FindAllStringSubmatchIndex(stream, -1) {
		var b strings.Builder
		for _, s := range arrayString.FindAllStringSubmatch(stream[m[2]:m[3]], -1) {
			b.WriteString(unescapePDFString(s[1]))
		}
		parts = append(parts, shown{at: m[0], text: b.String()})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].at < parts[j].at })

	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		lines = append(lines, p.text)
	}
	return strings.Join(lines, "\n")
}

func unescapePDFString(s string) string {
	r := strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`, `\n`, "\n", `\r`, "\r", `\t`, "\t")
	return r.Replace(s)
}

// parseStatementText scans extracted statement text for holding lines.
func parseStatementText(text string) (*models.Portfolio, error) {
	matches := holdingLine.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, parseFailed("no holdings found in the pdf matching the expected layout")
	}

	stocks := make([]models.Holding, 0, len(matches))
	for _, m := range matches {
		qty, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, parseFailed("quantity %q: %v", m[2], err)
		}
		h := models.Holding{Ticker: m[1], Quantity: float64(qty)}
		for i, dst := range []*float64{&h.AverageCost, &h.InvestedValue, &h.CurrentValue, &h.PnL} {
			v, err := parseNumber(m[i+3])
			if err != nil {
				return nil, parseFailed("amount %q: %v", m[i+3], err)
			}
			*dst = v
		}
		stocks = append(stocks, h)
	}
	return &models.Portfolio{Stocks: stocks}, nil
}
