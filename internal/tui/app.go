package tui

import (
	"context"
	"fmt"
	"log/slog"

	"complaint-cli/internal/api"
	"complaint-cli/internal/config"
	"complaint-cli/internal/stream"

	tea "github.com/charmbracelet/bubbletea"
)

// Options configures the interactive session.
type Options struct {
	Version string
	Profile string
	Config  *config.Config
	Client  api.ComplaintAPI
	Logger  *slog.Logger
	// Style is the glamour style for printed reports; empty means dark.
	Style string
}

// Run launches the interactive TUI mode (inline). The event stream is
// connected for the lifetime of the program and closed on exit.
func Run(opts Options) error {
	url, err := opts.Config.WebSocketURL()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr := stream.NewManager(url,
		stream.WithReconnectDelay(opts.Config.ReconnectDelay(), opts.Config.MaxReconnectDelay()),
		stream.WithLogger(opts.Logger),
	)
	mgr.Start(ctx)
	defer mgr.Close()

	m := initialModel(ctx, opts, mgr.Signals())
	p := tea.NewProgram(m)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
