package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/dyike/PortfolioGo/config"
	"github.com/dyike/PortfolioGo/consts"
	"github.com/dyike/PortfolioGo/internal/logger"
	"github.com/dyike/PortfolioGo/internal/service"
	"github.com/dyike/PortfolioGo/models"
)

// app carries what every sub-command needs once flags are parsed.
type app struct {
	configPath string
	logLevel   string
	debug      bool

	cfg *config.Config
	log *log.Logger
	svc *service.Service
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	a.cfg = cfg
	a.log = logger.NewWithOutput(cfg.LogLevel, os.Stderr)
	return nil
}

func (a *app) service(cmd *cobra.Command) (*service.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	svc, err := service.New(cmd.Context(), a.cfg, a.log)
	if err != nil {
		return nil, err
	}
	a.svc = svc
	return svc, nil
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "portfoliogo",
		Short: "PortfolioGo - AI-assisted portfolio analysis",
		Long: `PortfolioGo analyses a brokerage holdings statement (.csv, .xlsx or .pdf).
Every holding is enriched with market data and a language model verdict, the
portfolio is aggregated into risk and allocation metrics and recent news is
summarized into one report.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Configuration file path (TOML)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug mode")

	rootCmd.AddCommand(newAnalyzeCmd(a))
	rootCmd.AddCommand(newScreenCmd(a))
	rootCmd.AddCommand(newDetailCmd(a))
	rootCmd.AddCommand(newWhatIfCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		output string
		save   bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "analyze STATEMENT",
		Short: "Analyze a holdings statement",
		Long: `Run the full analysis pipeline over a holdings statement.
Example: portfoliogo analyze holdings.xlsx --output report.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			file := &models.UploadedFile{Name: filepath.Base(args[0]), Content: content}
			if !asJSON {
				fmt.Fprintln(out, titleStyle.Render("Analyzing "+file.Name))
			}

			var (
				report *models.Report
				fatal  string
			)
			for ev := range svc.Stream(cmd.Context(), file) {
				if !asJSON {
					renderStageEvent(out, ev)
				}
				if ev.Delta != nil && ev.Delta.Report != nil {
					report = ev.Delta.Report
				}
				if ev.Delta != nil && ev.Delta.Fatal != "" {
					fatal = ev.Delta.Fatal
				}
				if ev.Error != "" {
					fatal = ev.Error
				}
			}
			if fatal != "" {
				return errors.New(fatal)
			}
			if report == nil {
				return errors.New("analysis finished without a report")
			}

			if output == "" && save {
				output = defaultReportPath(a.cfg, args[0], time.Now())
			}
			if output != "" {
				if err := writeReport(output, report); err != nil {
					return err
				}
				a.log.Info().Str("path", output).Msg("report saved")
			}
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			renderReport(out, report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report as JSON to this file")
	cmd.Flags().BoolVar(&save, "save", false, "Save the report JSON in the results directory")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON instead of tables")
	return cmd
}

func newScreenCmd(a *app) *cobra.Command {
	var (
		risk         string
		horizon      string
		tickers      []string
		fromUniverse bool
		limit        int
	)
	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Find stocks that fit an investor profile",
		Long: `Ask the model which candidate stocks fit a risk appetite and horizon.
Missing profile values are asked interactively.
Example: portfoliogo screen --tickers ITC,TCS,INFY --risk Conservative`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}

			if risk == "" {
				if risk, err = PromptForRiskAppetite(); err != nil {
					return err
				}
			}
			if horizon == "" {
				if horizon, err = PromptForHorizon(); err != nil {
					return err
				}
			}
			if fromUniverse {
				all, err := svc.Universe(cmd.Context())
				if err != nil {
					return err
				}
				if limit > 0 && len(all) > limit {
					all = all[:limit]
				}
				tickers = append(tickers, all...)
			}
			tickers = normalizeTickers(strings.Join(tickers, ","))
			if len(tickers) == 0 {
				if tickers, err = PromptForTickers(); err != nil {
					return err
				}
			}

			results, err := svc.Screen(cmd.Context(), models.ScreenRequest{
				Tickers:      tickers,
				RiskAppetite: risk,
				Horizon:      horizon,
			})
			if err != nil {
				return err
			}
			renderScreen(cmd.OutOrStdout(), results, len(tickers))
			return nil
		},
	}

	cmd.Flags().StringVar(&risk, "risk", "", "Risk appetite: "+strings.Join(consts.RiskAppetites, ", "))
	cmd.Flags().StringVar(&horizon, "horizon", "", "Investment horizon, e.g. \""+consts.Horizons[1]+"\"")
	cmd.Flags().StringSliceVar(&tickers, "tickers", nil, "Comma separated candidate tickers")
	cmd.Flags().BoolVar(&fromUniverse, "universe", false, "Screen the NSE equity universe")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum universe tickers to screen")
	return cmd
}

func newDetailCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detail TICKER",
		Short: "Deep-dive into one stock",
		Long:  "Show fundamentals, the Peter Lynch scorecard and a pros/cons summary for one ticker.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			res, err := svc.Detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderDetail(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newWhatIfCmd(a *app) *cobra.Command {
	var (
		reportPath string
		quantity   float64
		price      float64
	)
	cmd := &cobra.Command{
		Use:   "whatif TICKER",
		Short: "Simulate adding a purchase to a portfolio",
		Long: `Compare portfolio metrics before and after buying a stock.
The portfolio is read from a report saved with "analyze --output".
Example: portfoliogo whatif HDFCBANK --qty 10 --report report.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var holdings []models.Holding
			if reportPath != "" {
				report, err := readReport(reportPath)
				if err != nil {
					return err
				}
				holdings = report.StockAnalysis
			}
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			cmp, err := svc.WhatIf(cmd.Context(), holdings, args[0], quantity, price)
			if err != nil {
				return err
			}
			renderWhatIf(cmd.OutOrStdout(), cmp)
			return nil
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "Saved report JSON holding the current portfolio")
	cmd.Flags().Float64Var(&quantity, "qty", 0, "Number of shares to buy")
	cmd.Flags().Float64Var(&price, "price", 0, "Purchase price per share (latest close when 0)")
	_ = cmd.MarkFlagRequired("qty")
	return cmd
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "PortfolioGo %s\n", Version)
		},
	}
}

// newConfigCmd creates the config command
func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			showConfig(cmd.OutOrStdout(), a.cfg)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(cmd.OutOrStdout(), a.cfg)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one setting in the --config file",
		Long: `Write one setting to the TOML file named by --config, creating the file
when needed. Lists take comma separated values. API keys are read from the
environment only and cannot be set here. A running "serve" picks the change
up automatically.`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return config.Keys(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.configPath == "" {
				return errors.New("config set needs a file, pass --config")
			}
			mgr, err := config.NewManager(a.configPath, nil)
			if err != nil {
				return err
			}
			if _, err := mgr.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", completedStyle.Render("saved"), args[0], args[1])
			return nil
		},
	})

	return configCmd
}

func writeReport(path string, report *models.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readReport(path string) (*models.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}
	return &report, nil
}

// defaultReportPath names a report file in the results directory.
func defaultReportPath(cfg *config.Config, statement string, now time.Time) string {
	base := strings.TrimSuffix(filepath.Base(statement), filepath.Ext(statement))
	return filepath.Join(cfg.ResultsDir, fmt.Sprintf("%s-%s.json", base, now.Format("20060102-150405")))
}
