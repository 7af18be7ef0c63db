package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/dyike/PortfolioGo/consts"
	"github.com/dyike/PortfolioGo/models"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Background(lipgloss.Color("#1F2937")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			MarginTop(1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#10B981")).
			Padding(0, 2)

	completedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	tableBorder = lipgloss.NewStyle().Foreground(lipgloss.Color("#4B5563"))
)

var stageLabels = map[string]string{
	consts.Ingest:   "Statement parsed",
	consts.Validate: "Portfolio validated",
	consts.Enrich:   "Holdings enriched",
	consts.News:     "News summarized",
	consts.Report:   "Report generated",
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorder).
		Headers(headers...)
}

func money(v float64) string {
	return "Rs." + decimal.NewFromFloat(v).StringFixed(2)
}

func optNumber(p *float64, places int32) string {
	if p == nil {
		return consts.NotAvailable
	}
	return decimal.NewFromFloat(*p).StringFixed(places)
}

func percentOf(part, total float64) string {
	if total == 0 {
		return consts.NotAvailable
	}
	return decimal.NewFromFloat(part / total * 100).StringFixed(1) + "%"
}

func renderStageEvent(w io.Writer, ev models.StageEvent) {
	label, ok := stageLabels[ev.Stage]
	if !ok {
		label = ev.Stage
	}
	switch {
	case ev.Error != "":
		fmt.Fprintln(w, errorStyle.Render("x "+ev.Error))
	case ev.Delta != nil && ev.Delta.Fatal != "":
		fmt.Fprintln(w, errorStyle.Render("x "+label+": "+ev.Delta.Fatal))
	default:
		fmt.Fprintln(w, completedStyle.Render("+ "+label))
	}
	if ev.Delta == nil {
		return
	}
	for _, e := range ev.Delta.Errors {
		fmt.Fprintln(w, warnStyle.Render("  ! "+e))
	}
}

func renderReport(w io.Writer, r *models.Report) {
	fmt.Fprintln(w, sectionStyle.Render("Portfolio summary"))
	m := r.AggregateMetrics
	if m == nil {
		fmt.Fprintln(w, mutedStyle.Render("No holdings could be analyzed."))
	} else {
		pnl := money(m.OverallPnL)
		if m.OverallPnLPercent != nil {
			pnl += " (" + optNumber(m.OverallPnLPercent, 2) + "%)"
		}
		lines := []string{
			"Total investment: " + money(m.TotalInvestment),
			"Current value:    " + money(m.CurrentValue),
			"Overall P&L:      " + pnl,
			"Weighted beta:    " + optNumber(m.WeightedBeta, 2),
			"Risk profile:     " + m.RiskProfile,
		}
		fmt.Fprintln(w, panelStyle.Render(strings.Join(lines, "\n")))
		renderAllocation(w, "Sector allocation", m.SectorAllocation, m.CurrentValue)
	}

	if len(r.StockAnalysis) > 0 {
		fmt.Fprintln(w, sectionStyle.Render("Holdings"))
		t := newTable("Ticker", "Name", "Invested", "Current", "P&L", "Beta", "Recommendation", "Urgency")
		for _, h := range r.StockAnalysis {
			t.Row(h.Ticker, h.Name, money(h.InvestedValue), money(h.CurrentValue), money(h.PnL),
				optNumber(h.Beta, 2), h.Recommendation, h.Urgency)
		}
		fmt.Fprintln(w, t.String())
		for _, h := range r.StockAnalysis {
			if h.Reason != "" {
				fmt.Fprintf(w, "%s %s\n", completedStyle.Render(h.Ticker+":"), h.Reason)
			}
		}
	}

	if len(r.News) > 0 {
		fmt.Fprintln(w, sectionStyle.Render("News"))
		for _, b := range r.News {
			fmt.Fprintln(w, completedStyle.Render(b.Ticker))
			for _, a := range b.Articles {
				fmt.Fprintf(w, "  - %s %s\n", a.Title, mutedStyle.Render("("+a.Publisher+", "+a.PublishDate+")"))
				if a.Summary != "" {
					fmt.Fprintf(w, "    %s\n", a.Summary)
				}
			}
		}
	}

	if len(r.AnalysisErrors) > 0 {
		fmt.Fprintln(w, sectionStyle.Render("Analysis errors"))
		for _, e := range r.AnalysisErrors {
			fmt.Fprintln(w, warnStyle.Render("! "+e))
		}
	}
}

func renderAllocation(w io.Writer, title string, alloc map[string]float64, total float64) {
	if len(alloc) == 0 {
		return
	}
	keys := make([]string, 0, len(alloc))
	for k := range alloc {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if alloc[keys[i]] != alloc[keys[j]] {
			return alloc[keys[i]] > alloc[keys[j]]
		}
		return keys[i] < keys[j]
	})

	fmt.Fprintln(w, sectionStyle.Render(title))
	t := newTable("Sector", "Value", "Share")
	for _, k := range keys {
		t.Row(k, money(alloc[k]), percentOf(alloc[k], total))
	}
	fmt.Fprintln(w, t.String())
}

func renderScreen(w io.Writer, results []models.ScreenResult, candidates int) {
	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("%d of %d candidates match your profile", len(results), candidates)))
	if len(results) == 0 {
		return
	}
	t := newTable("Ticker", "Name", "Sector", "Beta", "Reason")
	for _, r := range results {
		t.Row(r.Ticker, r.Name, r.Sector, decimal.NewFromFloat(r.Beta).StringFixed(2), r.Reason)
	}
	fmt.Fprintln(w, t.String())
}

func renderDetail(w io.Writer, d *models.DetailedAnalysis) {
	fmt.Fprintln(w, titleStyle.Render(d.Name))

	if f := d.Fundamentals; !f.IsEmpty() {
		fmt.Fprintln(w, sectionStyle.Render("Fundamentals"))
		lines := []string{
			"Sector:         " + orNA(f.Sector),
			"Current price:  " + optNumber(f.CurrentPrice, 2),
			"52 week range:  " + optNumber(f.FiftyTwoWeekLo, 2) + " - " + optNumber(f.FiftyTwoWeekHi, 2),
			"EPS:            " + optNumber(f.EPS, 2),
			"Price to book:  " + optNumber(f.PriceToBook, 2),
			"Dividend yield: " + optNumber(f.DividendYield, 4),
			"ROE:            " + optNumber(f.ROE, 4),
		}
		fmt.Fprintln(w, panelStyle.Render(strings.Join(lines, "\n")))
	}

	fmt.Fprintln(w, sectionStyle.Render("Peter Lynch scorecard"))
	t := newTable("Metric", "Value", "Ideal", "Result")
	for _, c := range d.Scorecard {
		result := consts.NotAvailable
		if c.Pass != nil {
			result = "Fail"
			if *c.Pass {
				result = "Pass"
			}
		}
		t.Row(c.Metric, optNumber(c.Value, 2), c.Ideal, result)
	}
	fmt.Fprintln(w, t.String())

	fmt.Fprintln(w, sectionStyle.Render("Pros"))
	for _, p := range d.ProsCons.Pros {
		fmt.Fprintln(w, completedStyle.Render("+ ")+p)
	}
	fmt.Fprintln(w, sectionStyle.Render("Cons"))
	for _, c := range d.ProsCons.Cons {
		fmt.Fprintln(w, errorStyle.Render("- ")+c)
	}
}

func renderWhatIf(w io.Writer, cmp *models.ScenarioComparison) {
	h := cmp.Hypothetical
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Buy %s x %s @ %s", h.Ticker, decimal.NewFromFloat(h.Quantity).String(), money(h.AverageCost))))

	before, after := cmp.Original, cmp.Simulated
	if before == nil {
		before = &models.AggregateMetrics{RiskProfile: consts.NotAvailable}
	}
	t := newTable("Metric", "Current", "With trade")
	t.Row("Total investment", money(before.TotalInvestment), money(after.TotalInvestment))
	t.Row("Current value", money(before.CurrentValue), money(after.CurrentValue))
	t.Row("Weighted beta", optNumber(before.WeightedBeta, 2), optNumber(after.WeightedBeta, 2))
	t.Row("Risk profile", before.RiskProfile, after.RiskProfile)
	fmt.Fprintln(w, t.String())

	renderAllocation(w, "Sector allocation with trade", after.SectorAllocation, after.CurrentValue)
}

func orNA(s string) string {
	if s == "" {
		return consts.NotAvailable
	}
	return s
}
