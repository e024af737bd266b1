package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"complaint-cli/internal/api"
	"complaint-cli/internal/config"
	"complaint-cli/internal/display"
	"complaint-cli/internal/tui"

	"github.com/spf13/cobra"
)

// Set at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ─── Global flags ───────────────────────────────────────────────────────────

var (
	activeProfile  string
	serverOverride string
	logLevel       string
	logFile        string

	rootCmd = &cobra.Command{
		Use:   "complaint",
		Short: "Live client for the complaint analysis backend",
		Long: `complaint submits customer complaints for analysis, follows the
backend's reasoning live over its event stream and browses past results.

Run without a command to start the interactive mode.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runInteractive,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
		},
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&activeProfile, "profile", "", "config profile to use (default: unnamed)")
	pf.StringVar(&serverOverride, "server", "", "backend URL for this run, overriding the profile")
	pf.StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	pf.StringVar(&logFile, "log-file", "", "append logs to this file")

	rootCmd.AddCommand(
		analyzeCmd,
		watchCmd,
		historyCmd,
		statusCmd,
		agentsCmd,
		samplesCmd,
		setCmd,
		configCmd,
		profilesCmd,
		versionCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		display.Error(err.Error())
		os.Exit(1)
	}
}

// ─── interactive ────────────────────────────────────────────────────────────

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// The TUI owns the terminal, so logs only go to a file.
	logger, closeLog, err := newLogger(io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	return tui.Run(tui.Options{
		Version: version,
		Profile: activeProfile,
		Config:  cfg,
		Client:  api.NewClient(cfg),
		Logger:  logger,
	})
}

// ─── helpers ────────────────────────────────────────────────────────────────

// loadConfig reads the active profile and applies --server.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(activeProfile)
	if err != nil {
		return nil, err
	}
	if serverOverride != "" {
		cfg.Server = serverOverride
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid --log-level %q (use debug, info, warn or error)", s)
	}
	return level, nil
}

// newLogger builds the process logger. Logs go to --log-file when set and to
// fallback otherwise. The returned func closes the file.
func newLogger(fallback io.Writer) (*slog.Logger, func(), error) {
	level, err := parseLevel(logLevel)
	if err != nil {
		return nil, nil, err
	}

	w := fallback
	closeLog := func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w = f
		closeLog = func() { _ = f.Close() }
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return logger.With("profile", config.ProfileName(activeProfile)), closeLog, nil
}

func versionString() string {
	if commit == "" || commit == "none" {
		return "complaint " + version
	}
	return fmt.Sprintf("complaint %s\n  commit: %s\n  built:  %s", version, commit, date)
}
