package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dyike/PortfolioGo/config"
)

func configured(v string) string {
	if v != "" {
		return "configured"
	}
	return "not configured"
}

// showConfig displays the current configuration
func showConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, titleStyle.Render("PortfolioGo configuration"))

	fmt.Fprintln(w, sectionStyle.Render("Directories"))
	fmt.Fprintf(w, "Project:        %s\n", cfg.ProjectDir)
	fmt.Fprintf(w, "Results:        %s\n", cfg.ResultsDir)
	fmt.Fprintf(w, "Cache:          %s\n", cfg.DataCacheDir)

	fmt.Fprintln(w, sectionStyle.Render("Language model"))
	fmt.Fprintf(w, "Provider:       %s\n", cfg.LLMProvider)
	fmt.Fprintf(w, "Quick model:    %s\n", cfg.QuickThinkLLM)
	fmt.Fprintf(w, "Deep model:     %s\n", cfg.DeepThinkLLM)
	if cfg.BackendURL != "" {
		fmt.Fprintf(w, "Backend URL:    %s\n", cfg.BackendURL)
	}
	fmt.Fprintf(w, "API key:        %s\n", configured(cfg.APIKey()))

	fmt.Fprintln(w, sectionStyle.Render("Market data & news"))
	fmt.Fprintf(w, "Symbol suffix:  %s\n", cfg.SymbolSuffix)
	fmt.Fprintf(w, "History:        %d years, %s bars\n", cfg.HistoryPeriodYears, cfg.HistoryInterval)
	fmt.Fprintf(w, "Cache:          %t (%d min)\n", cfg.CacheEnabled, cfg.CacheTTLMinutes)
	fmt.Fprintf(w, "News lookback:  %d days, %d articles\n", cfg.NewsLookbackDays, cfg.MaxArticles)
	fmt.Fprintf(w, "NewsAPI key:    %s\n", configured(cfg.NewsAPIKey))

	fmt.Fprintln(w, sectionStyle.Render("Server"))
	fmt.Fprintf(w, "Address:        %s\n", cfg.ServerAddr)
	fmt.Fprintf(w, "Origins:        %s\n", strings.Join(cfg.AllowedOrigins, ", "))
	fmt.Fprintf(w, "Eino debug:     %t\n", cfg.EinoDebugEnabled)
}

// validateConfig checks the configuration and required credentials
func validateConfig(w io.Writer, cfg *config.Config) error {
	fmt.Fprint(w, "Checking configuration values... ")
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(w, errorStyle.Render("failed"))
		return err
	}
	fmt.Fprintln(w, completedStyle.Render("ok"))

	fmt.Fprint(w, "Checking directories... ")
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintln(w, errorStyle.Render("failed"))
		return fmt.Errorf("directory validation failed: %w", err)
	}
	fmt.Fprintln(w, completedStyle.Render("ok"))

	fmt.Fprint(w, "Checking API keys... ")
	if cfg.APIKey() == "" {
		fmt.Fprintln(w, errorStyle.Render("failed"))
		return fmt.Errorf("no API key configured for llm provider %q", cfg.LLMProvider)
	}
	if cfg.NewsAPIKey == "" {
		fmt.Fprintln(w, warnStyle.Render("warning"))
		fmt.Fprintln(w, warnStyle.Render("  NewsAPI key not configured; the news fallback is disabled"))
	} else {
		fmt.Fprintln(w, completedStyle.Render("ok"))
	}
	return nil
}
