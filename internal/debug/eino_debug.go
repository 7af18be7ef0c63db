// Package debug hooks the eino visual debugger into a running process.
package debug

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/devops"
	"github.com/phuslu/log"

	"github.com/dyike/PortfolioGo/config"
)

type EinoDebugger struct {
	config *config.Config
	log    *log.Logger
}

func NewEinoDebugger(cfg *config.Config, logger *log.Logger) *EinoDebugger {
	return &EinoDebugger{config: cfg, log: logger}
}

// Initialize starts the devops server when enabled. It must run before any
// graph is compiled so the graphs get registered.
func (d *EinoDebugger) Initialize(ctx context.Context) error {
	if !d.IsEnabled() {
		return nil
	}

	d.log.Info().Int("port", d.config.EinoDebugPort).Msg("initializing eino debug plugin")
	if err := devops.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize Eino debug plugin: %w", err)
	}
	d.log.Info().Str("url", d.GetDebugURL()).Msg("eino debug server ready")
	return nil
}

func (d *EinoDebugger) IsEnabled() bool {
	return d.config.EinoDebugEnabled
}

func (d *EinoDebugger) GetDebugURL() string {
	if !d.IsEnabled() {
		return ""
	}
	return fmt.Sprintf("http://localhost:%d", d.config.EinoDebugPort)
}
