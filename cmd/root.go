package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/wslmole/internal/compact"
	"github.com/lakshaymaurya-felt/wslmole/internal/config"
	"github.com/lakshaymaurya-felt/wslmole/internal/shell"
	"github.com/lakshaymaurya-felt/wslmole/internal/ui"
)

var (
	// Global flags
	debug      bool
	configPath string

	// Version info populated from main
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"

	// current is built lazily by loadApp.
	current  *app
	closeLog = func() {}
)

// SetVersionInfo sets build-time version information.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "wslm",
	Short: "Reclaim disk space from WSL virtual disks",
	Long: `WSLMole - Reclaim disk space from WSL virtual disks.

After freeing space inside a distribution, WSLMole shuts WSL down,
locates the distribution's ext4.vhdx and compacts it, falling back
from wsl --manage --set-sparse to diskpart to Optimize-VHD.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// When invoked without subcommand, show interactive menu
		if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			return cmd.Help()
		}
		return runInteractiveMenu(cmd)
	},
}

// Execute runs the root command. Errors are printed with a corrective hint
// and returned so main can exit non-zero.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	defer func() { closeLog() }()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		p := ui.NewPrinter(os.Stderr)
		p.Error("%v", err)
		if h := compact.Hint(err); h != "" {
			p.Hint("%s", h)
		}
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Show detailed operation logs")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default %APPDATA%\\wslmole\\config.yaml)")

	// Register all subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(shutdownCmd)
	rootCmd.AddCommand(compactCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadApp reads the config and wires the components once per process.
func loadApp(interactive bool) (*app, error) {
	if current != nil {
		return current, nil
	}

	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	logger, closer, err := newLogger(debug, interactive && !debug, config.Expand(cfg.LogFile))
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	closeLog = closer
	logger.WithField("config", path).Debug("configuration loaded")

	a, err := newApp(cfg, logger, shell.NewExecRunner(cfg.CommandTimeout()))
	if err != nil {
		return nil, err
	}
	current = a
	return a, nil
}

// requireElevation fails fast for commands that change WSL state.
func requireElevation(a *app) error {
	if !a.elevated() {
		return compact.ErrPrivilegeMissing
	}
	return nil
}
