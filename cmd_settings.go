package main

import (
	"fmt"
	"strconv"

	"complaint-cli/internal/config"
	"complaint-cli/internal/display"

	"github.com/spf13/cobra"
)

// ─── set ────────────────────────────────────────────────────────────────────

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting in the active profile",
	Long: `Change a setting in the active profile.

Keys:
  server               Backend URL (e.g. http://localhost:8000)
  stream-url           Event stream URL (default: derived from server)
  reconnect-delay      Delay before reconnecting the stream, in ms
  max-reconnect-delay  Backoff cap in ms (default: fixed delay)
  request-timeout      HTTP request timeout, in seconds`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(activeProfile)
		if err != nil {
			return err
		}

		key, value := args[0], args[1]
		if err := applySetting(cfg, key, value); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}

		display.Success(fmt.Sprintf("%s set to %s", key, value))
		return nil
	},
}

// applySetting updates one key on cfg. An empty value for stream-url clears it.
func applySetting(cfg *config.Config, key, value string) error {
	positive := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("%s must be a positive integer, got %q", key, value)
		}
		return n, nil
	}

	switch key {
	case "server":
		cfg.Server = value
	case "stream-url":
		cfg.StreamURL = value
	case "reconnect-delay":
		n, err := positive()
		if err != nil {
			return err
		}
		cfg.ReconnectDelayMS = n
	case "max-reconnect-delay":
		n, err := positive()
		if err != nil {
			return err
		}
		cfg.MaxReconnectDelayMS = n
	case "request-timeout":
		n, err := positive()
		if err != nil {
			return err
		}
		cfg.RequestTimeoutSeconds = n
	default:
		return fmt.Errorf("unknown config key: %s (valid: server, stream-url, reconnect-delay, max-reconnect-delay, request-timeout)", key)
	}
	return nil
}

// ─── config ─────────────────────────────────────────────────────────────────

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the active configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(activeProfile)
		if err != nil {
			return err
		}
		if serverOverride != "" {
			cfg.Server = serverOverride
		}

		display.Header("Complaint CLI Configuration")
		display.Info("Profile:", activeProfileName())

		server := cfg.ServerURL()
		if cfg.Server == "" {
			server += display.Dim + " (default)" + display.Reset
		}
		display.Info("Server:", server)

		stream, err := cfg.WebSocketURL()
		if err != nil {
			stream = display.Red + err.Error() + display.Reset
		} else if cfg.StreamURL == "" {
			stream += display.Dim + " (derived)" + display.Reset
		}
		display.Info("Event stream:", stream)

		delay := cfg.ReconnectDelay().String()
		if cfg.MaxReconnectDelay() > cfg.ReconnectDelay() {
			delay += fmt.Sprintf(" (backoff up to %s)", cfg.MaxReconnectDelay())
		}
		display.Info("Reconnect delay:", delay)
		display.Info("Request timeout:", cfg.RequestTimeout().String())

		if dir, err := config.Dir(); err == nil {
			display.Info("Config dir:", dir)
		}
		fmt.Println()
		return nil
	},
}

// ─── profiles ───────────────────────────────────────────────────────────────

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List config profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles, err := config.ListProfiles()
		if err != nil {
			return err
		}

		display.Header(fmt.Sprintf("Profiles (%d)", len(profiles)))

		if len(profiles) == 0 {
			display.Warn("No profiles found.")
			return nil
		}

		for _, p := range profiles {
			marker := " "
			if p == activeProfileName() {
				marker = display.Green + "●" + display.Reset
			}
			fmt.Printf("  %s %s\n", marker, p)
		}
		fmt.Println()

		return nil
	},
}

func activeProfileName() string {
	return config.ProfileName(activeProfile)
}
