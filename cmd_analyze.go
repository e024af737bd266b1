package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"complaint-cli/internal/api"
	"complaint-cli/internal/config"
	"complaint-cli/internal/display"
	"complaint-cli/internal/samples"
	"complaint-cli/internal/service"
	"complaint-cli/internal/session"
	"complaint-cli/internal/stream"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// ─── analyze ────────────────────────────────────────────────────────────────

var (
	analyzeSample     string
	analyzeFile       string
	analyzeDataset    string
	analyzeOutput     string
	analyzeStyle      string
	analyzeNoStream   bool
	analyzeStreamWait time.Duration

	analyzeCmd = &cobra.Command{
		Use:   "analyze [complaint text]",
		Short: "Analyze a complaint and follow the backend's reasoning live",
		Example: `  complaint analyze "I was charged twice for my card renewal"
  complaint analyze --sample 1
  complaint analyze --file complaint.txt --output json`,
		Aliases: []string{"ask"},
		RunE:    runAnalyze,
	}
)

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeSample, "sample", "s", "", "submit a built-in sample by number or id")
	f.StringVarP(&analyzeFile, "file", "f", "", "read the complaint text from a file (- for stdin)")
	f.StringVar(&analyzeDataset, "dataset", "", "sample dataset file (default: built-in)")
	f.StringVarP(&analyzeOutput, "output", "o", "text", "result format: text, json, yaml or markdown")
	f.StringVar(&analyzeStyle, "style", service.StyleAuto, "markdown style for text output: auto, dark, light or notty")
	f.BoolVar(&analyzeNoStream, "no-stream", false, "do not connect to the event stream")
	f.DurationVar(&analyzeStreamWait, "stream-wait", 3*time.Second, "how long to wait for the event stream before submitting")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	text, err := complaintText(args, analyzeSample, analyzeDataset, analyzeFile, cmd.InOrStdin())
	if err != nil {
		return err
	}
	format, err := service.ParseFormat(analyzeOutput)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	// Structured output keeps stdout clean; progress goes to stderr.
	progress := cmd.OutOrStdout()
	if format != service.FormatText {
		progress = cmd.ErrOrStderr()
	}

	var signals <-chan stream.Signal
	if !analyzeNoStream {
		mgr, err := startStream(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer mgr.Close()
		if !awaitOpen(ctx, mgr, analyzeStreamWait) {
			fmt.Fprintf(progress, "  %s!%s Event stream not connected yet; thoughts may be missed.\n", display.Yellow, display.Reset)
		}
		signals = mgr.Signals()
	}

	fmt.Fprintf(progress, "\n %s── Complaint analysis ─────────────────────────────────────────────%s\n\n", display.Dim, display.Reset)

	final, err := runSession(ctx, api.NewClient(cfg), signals, text, logger, progress)
	if err != nil {
		return err
	}
	fmt.Fprintf(progress, "\n  %s\n", display.PhaseLabel(final.Submission.Phase.String()))
	if final.Submission.Phase == session.Failed {
		return fmt.Errorf("analysis failed: %s", final.Submission.Err)
	}

	fmt.Fprintln(progress)
	return writeComplaint(cmd.OutOrStdout(), final.LastResult, format, analyzeStyle)
}

// complaintText picks the text to submit from exactly one source.
func complaintText(args []string, sample, dataset, file string, stdin io.Reader) (string, error) {
	sources := 0
	for _, set := range []bool{len(args) > 0, sample != "", file != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return "", errors.New("provide the complaint as arguments, --sample or --file (exactly one)")
	}

	var text string
	switch {
	case sample != "":
		all, err := samples.Load(dataset)
		if err != nil {
			return "", err
		}
		s, err := samples.Find(all, sample)
		if err != nil {
			return "", err
		}
		text = s.Text
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading complaint file: %w", err)
		}
		text = string(data)
	default:
		text = strings.Join(args, " ")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("complaint text is empty")
	}
	return text, nil
}

// runSession submits text and follows the session until the submission
// settles, either by the HTTP response or by a result on the stream. New
// thoughts and connection changes are written to out as they arrive.
func runSession(ctx context.Context, client api.ComplaintAPI, signals <-chan stream.Signal, text string, logger *slog.Logger, out io.Writer) (session.ViewState, error) {
	ctrl := session.New(logger)
	printer := display.NewThoughtPrinter(out)

	var final session.ViewState
	loop := session.NewLoop(ctrl, client,
		session.WithSignals(signals),
		session.WithObserver(func(v session.ViewState) bool {
			printer.Connection(v.Connection.String())
			printer.Thoughts(v.ThoughtLog, service.CleanThought)
			final = v
			return v.Submission.Seq > 0 && v.Submission.Phase.Terminal()
		}),
	)
	if err := loop.Send(ctx, session.SubmitMsg{Text: text}); err != nil {
		return final, err
	}
	if err := loop.Run(ctx); err != nil {
		return final, fmt.Errorf("analysis interrupted: %w", err)
	}
	return final, nil
}

func writeComplaint(w io.Writer, c *api.Complaint, format, style string) error {
	switch format {
	case service.FormatJSON, service.FormatYAML:
		return service.Export(w, c, format)
	case service.FormatMarkdown:
		_, err := io.WriteString(w, service.ComplaintMarkdown(c))
		return err
	default:
		out, err := service.RenderMarkdown(service.ComplaintMarkdown(c), 100, style)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	}
}

// ─── watch ──────────────────────────────────────────────────────────────────

var (
	watchMetricsAddr string

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Follow the event stream and print thoughts and results as they happen",
		Long: `watch connects to the backend's event stream and prints every thought and
analysis result, including those triggered by other clients. It reconnects
automatically until interrupted.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	mgr, err := startStream(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer mgr.Close()

	out := cmd.OutOrStdout()
	url, _ := cfg.WebSocketURL()
	fmt.Fprintf(out, "\n  %sWatching%s %s %s(Ctrl+C to stop)%s\n\n", display.Bold, display.Reset, url, display.Dim, display.Reset)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watchStream(gctx, api.NewClient(cfg), mgr.Signals(), logger, out)
	})
	if watchMetricsAddr != "" {
		serveMetrics(gctx, g, watchMetricsAddr, logger)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// watchStream prints the live session until ctx ends.
func watchStream(ctx context.Context, client api.ComplaintAPI, signals <-chan stream.Signal, logger *slog.Logger, out io.Writer) error {
	ctrl := session.New(logger)
	printer := display.NewThoughtPrinter(out)

	var last *api.Complaint
	loop := session.NewLoop(ctrl, client,
		session.WithSignals(signals),
		session.WithObserver(func(v session.ViewState) bool {
			printer.Connection(v.Connection.String())
			printer.Thoughts(v.ThoughtLog, service.CleanThought)
			if v.LastResult != nil && v.LastResult != last {
				last = v.LastResult
				printResultLine(out, last)
			}
			return false
		}),
	)
	return loop.Run(ctx)
}

func printResultLine(w io.Writer, c *api.Complaint) {
	r := service.FormatHistoryRow(*c)
	fmt.Fprintf(w, "  %s✓%s %s%s%s  %s", display.Green, display.Reset, display.Bold, r.ID, display.Reset, display.ComplaintStatusLabel(r.Status))
	if r.Confidence != "" {
		fmt.Fprintf(w, "  %s%s%s", display.Dim, r.Confidence, display.Reset)
	}
	fmt.Fprintf(w, "\n    %s\n\n", r.Summary)
}

// serveMetrics runs the Prometheus endpoint inside g and shuts it down when
// ctx ends.
func serveMetrics(ctx context.Context, g *errgroup.Group, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g.Go(func() error {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// ─── stream helpers ─────────────────────────────────────────────────────────

func startStream(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stream.Manager, error) {
	url, err := cfg.WebSocketURL()
	if err != nil {
		return nil, err
	}
	mgr := stream.NewManager(url,
		stream.WithReconnectDelay(cfg.ReconnectDelay(), cfg.MaxReconnectDelay()),
		stream.WithLogger(logger),
	)
	mgr.Start(ctx)
	return mgr, nil
}

// awaitOpen waits up to timeout for the stream to connect. Signals stay
// buffered in the manager for the consumer that starts afterwards.
func awaitOpen(ctx context.Context, mgr *stream.Manager, timeout time.Duration) bool {
	if timeout <= 0 {
		return mgr.State() == stream.Open
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if mgr.State() == stream.Open {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}
