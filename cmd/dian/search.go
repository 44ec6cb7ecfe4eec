package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/nexconsult/dian-api/internal/browser"
	"github.com/nexconsult/dian-api/internal/config"
	"github.com/nexconsult/dian-api/internal/dian"
	"github.com/nexconsult/dian-api/internal/logger"
	"github.com/nexconsult/dian-api/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// newDriver is replaced in tests
var newDriver = browser.NewDriver

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <CUFE>",
		Short: "Search one document by CUFE",
		Long: `Search opens a browser session, submits the CUFE into the catalogue search
form once the challenge widget has produced its token, and prints the outcome:

  {"ok":true,"html":"...","events":[...],"error":null,"errorId":null}

The exit status is 0 when ok is true and 1 otherwise.

Examples:
  # Headless search with the default chromedp driver
  dian search 6667fe1f8018f00e0b631cc9e3d790508f24d474dd3a75d2bc941196e78c8c235990877c2207b82eb5407ff41cbcfc45

  # Visible browser with slower typing, through playwright
  dian search --visible --driver playwright <CUFE>

  # Drop the page markup from the output
  dian search --no-html <CUFE>`,
		Args: cobra.ExactArgs(1),
		RunE: runSearchCmd,
	}

	cmd.Flags().Bool("visible", false, "Use a visible browser and the slower visible interaction preset")
	cmd.Flags().String("driver", "", "Browser driver: chromedp or playwright (default from BROWSER_DRIVER)")
	cmd.Flags().Duration("timeout", 0, "Overall cap on the search (default from DIAN_OVERALL_TIMEOUT)")
	cmd.Flags().Bool("no-html", false, "Omit the captured page markup from the output")

	return cmd
}

// runSearchCmd executes the search command.
func runSearchCmd(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	log := setupLogger(cmd, cfg)

	driver, err := newDriver(cfg.Browser.Driver, log)
	if err != nil {
		return fmt.Errorf("browser driver: %w", err)
	}
	defer func() {
		if err := driver.Close(); err != nil {
			log.WithError(err).Warn("Failed to close browser driver")
		}
	}()

	ctx, stop := signal.NotifyContext(searchContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithRequestID(ctx, uuid.NewString())

	cufe := args[0]
	start := time.Now()
	orchestrator := dian.NewOrchestrator(driver, cfg.SearchConfig(), log)
	outcome := orchestrator.Execute(ctx, cufe)

	log.WithFields(logrus.Fields{
		"cufe":     utils.MaskIdentifier(cufe),
		"ok":       outcome.Ok,
		"events":   len(outcome.Events),
		"duration": time.Since(start),
	}).Debug("Search finished")

	if noHTML, _ := cmd.Flags().GetBool("no-html"); noHTML {
		outcome.HTML = nil
	}
	if err := json.NewEncoder(cmd.OutOrStdout()).Encode(outcome); err != nil {
		return fmt.Errorf("write outcome: %w", err)
	}

	if !outcome.Ok {
		return errSearchFailed
	}
	return nil
}

// buildConfig loads the shared configuration and applies the command flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	if visible, _ := cmd.Flags().GetBool("visible"); visible {
		cfg.DIAN.Mode = "visible"
	}
	if driver, _ := cmd.Flags().GetString("driver"); driver != "" {
		cfg.Browser.Driver = driver
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.DIAN.Timeouts.Overall = timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// setupLogger writes logs to stderr so stdout carries only the outcome.
func setupLogger(cmd *cobra.Command, cfg *config.Config) *logrus.Logger {
	level := cfg.Log.Level
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	return logger.NewWithOutput(level, cfg.Log.Format, cmd.ErrOrStderr())
}

// searchContext is the context used when the command runs without one.
func searchContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
