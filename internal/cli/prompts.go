package cli

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/dyike/PortfolioGo/consts"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9&.-]+$`)

// PromptForRiskAppetite asks for the investor's risk appetite
func PromptForRiskAppetite() (string, error) {
	var risk string
	prompt := &survey.Select{
		Message: "Select your risk appetite:",
		Options: consts.RiskAppetites,
		Default: consts.RiskAppetites[1],
	}
	if err := survey.AskOne(prompt, &risk); err != nil {
		return "", err
	}
	return risk, nil
}

// PromptForHorizon asks for the investment horizon
func PromptForHorizon() (string, error) {
	var horizon string
	prompt := &survey.Select{
		Message: "Select your investment horizon:",
		Options: consts.Horizons,
		Default: consts.Horizons[1],
	}
	if err := survey.AskOne(prompt, &horizon); err != nil {
		return "", err
	}
	return horizon, nil
}

// PromptForTickers asks for a comma separated list of candidate tickers
func PromptForTickers() ([]string, error) {
	var raw string
	prompt := &survey.Input{
		Message: "Enter candidate tickers (e.g., ITC, TCS, INFY):",
		Help:    "NSE symbols without the exchange suffix, separated by commas or spaces",
	}
	err := survey.AskOne(prompt, &raw, survey.WithValidator(func(val interface{}) error {
		tickers := normalizeTickers(val.(string))
		if len(tickers) == 0 {
			return fmt.Errorf("enter at least one ticker")
		}
		for _, t := range tickers {
			if !tickerPattern.MatchString(t) {
				return fmt.Errorf("invalid ticker %q", t)
			}
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return normalizeTickers(raw), nil
}

// normalizeTickers splits on commas and whitespace, upper-cases and drops
// duplicates while keeping the input order.
func normalizeTickers(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		t := strings.ToUpper(strings.TrimSpace(f))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
