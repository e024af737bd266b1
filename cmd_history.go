package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"complaint-cli/internal/api"
	"complaint-cli/internal/display"
	"complaint-cli/internal/samples"
	"complaint-cli/internal/service"
	"complaint-cli/internal/stream"

	"github.com/spf13/cobra"
)

// ─── history ────────────────────────────────────────────────────────────────

var (
	historyOutput string
	historyLimit  int

	historyCmd = &cobra.Command{
		Use:     "history",
		Short:   "List analysed complaints",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE:    runHistory,
	}
)

func init() {
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", "text", "format: text, json, yaml or markdown")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "show at most this many complaints (0 = all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	format, err := service.ParseFormat(historyOutput)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	list, err := api.NewClient(cfg).History(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	if historyLimit > 0 && len(list) > historyLimit {
		list = list[:historyLimit]
	}

	w := cmd.OutOrStdout()
	switch format {
	case service.FormatJSON, service.FormatYAML:
		return service.ExportHistory(w, list, format)
	case service.FormatMarkdown:
		_, err := io.WriteString(w, service.HistoryMarkdown(list))
		return err
	default:
		printHistory(w, list)
		return nil
	}
}

func printHistory(w io.Writer, list []api.Complaint) {
	fmt.Fprintf(w, "\n%sComplaint history (%d)%s\n", display.Bold+display.Cyan, len(list), display.Reset)
	fmt.Fprintln(w, strings.Repeat("─", 40))

	if len(list) == 0 {
		fmt.Fprintf(w, "%s!%s No complaints analysed yet.\n", display.Yellow, display.Reset)
		return
	}

	for i, c := range list {
		r := service.FormatHistoryRow(c)
		fmt.Fprintf(w, "  %s%2d.%s %s%s%s  %s", display.Dim, i+1, display.Reset, display.Bold, r.ID, display.Reset, display.ComplaintStatusLabel(r.Status))
		if r.Confidence != "" {
			fmt.Fprintf(w, "  %s%s%s", display.Dim, r.Confidence, display.Reset)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "      %s\n", r.Summary)
		if r.Categories != "" {
			fmt.Fprintf(w, "      %s%s%s\n", display.Gray, r.Categories, display.Reset)
		}
	}
	fmt.Fprintln(w)
}

// ─── status ─────────────────────────────────────────────────────────────────

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the backend and its event stream",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	url, err := cfg.WebSocketURL()
	if err != nil {
		return err
	}

	client := api.NewClient(cfg)

	display.Header("Backend status")
	display.Info("Profile:", activeProfileName())
	display.Info("Server:", client.BaseURL())
	display.Info("Event stream:", url)
	fmt.Println()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	display.Spinner("Checking backend...")
	resp, healthErr := client.Health(ctx)
	streamErr := probeStream(ctx, url)
	display.ClearLine()

	failed := false
	if healthErr != nil {
		display.Error("API: " + describeHealthError(healthErr))
		failed = true
	} else {
		display.Success(fmt.Sprintf("API: %s", resp.Status))
	}

	if err := streamErr; err != nil {
		display.Error(fmt.Sprintf("Event stream: %v", err))
		failed = true
	} else {
		display.Success("Event stream: connected")
	}
	fmt.Println()

	if failed {
		return fmt.Errorf("backend is not fully reachable")
	}
	return nil
}

// describeHealthError separates a backend that answered with an error status
// from one that could not be reached at all.
func describeHealthError(err error) string {
	if code := api.StatusCode(err); code != 0 {
		return fmt.Sprintf("reachable but unhealthy (HTTP %d)", code)
	}
	return fmt.Sprintf("unreachable: %v", err)
}

func probeStream(ctx context.Context, url string) error {
	conn, err := stream.WebSocketDialer{HandshakeTimeout: 5 * time.Second}.Dial(ctx, url)
	if err != nil {
		return err
	}
	return conn.Close()
}

// ─── agents ─────────────────────────────────────────────────────────────────

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the backend's analysis agents",
	Args:  cobra.NoArgs,
	RunE:  runAgents,
}

func runAgents(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client := api.NewClient(cfg)

	resp, err := client.Agents(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading agents: %w", err)
	}

	display.Header(fmt.Sprintf("Agents (%d)", len(resp.Agents)))
	for _, a := range resp.Agents {
		fmt.Printf("  • %s\n", a)
	}
	fmt.Println()

	mock, err := client.MockAgents(cmd.Context())
	if err != nil || mock.ActionPlan == nil || len(mock.ActionPlan.Steps) == 0 {
		return nil
	}
	display.SubHeader("Sample action plan")
	printActionPlan(cmd.OutOrStdout(), mock.ActionPlan)
	return nil
}

func printActionPlan(w io.Writer, plan *api.ActionPlan) {
	d := service.FormatComplaint(&api.Complaint{ActionPlan: plan})
	if d.RequiresApproval {
		fmt.Fprintf(w, "  %s⚠ Requires human approval%s\n", display.Yellow, display.Reset)
	}
	for _, s := range d.Steps {
		fmt.Fprintf(w, "  %d. %s", s.Number, s.Description)
		if s.Party != "" {
			fmt.Fprintf(w, " %s(%s)%s", display.Dim, s.Party, display.Reset)
		}
		fmt.Fprintln(w)
		if s.Details != "" {
			fmt.Fprintf(w, "     %s%s%s\n", display.Gray, s.Details, display.Reset)
		}
	}
	fmt.Fprintln(w)
}

// ─── samples ────────────────────────────────────────────────────────────────

var (
	samplesDataset string
	samplesFull    bool

	samplesCmd = &cobra.Command{
		Use:   "samples [n|id]",
		Short: "List sample complaints, or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSamples,
	}
)

func init() {
	samplesCmd.Flags().StringVar(&samplesDataset, "dataset", "", "dataset file (default: built-in)")
	samplesCmd.Flags().BoolVar(&samplesFull, "full", false, "print the full text of every sample")
}

func runSamples(cmd *cobra.Command, args []string) error {
	all, err := samples.Load(samplesDataset)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	if len(args) == 1 {
		s, err := samples.Find(all, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(w, strings.TrimSpace(s.Text))
		return nil
	}

	printSamples(w, all, samplesFull)
	return nil
}

func printSamples(w io.Writer, all []samples.Sample, full bool) {
	fmt.Fprintf(w, "\n%sSample complaints (%d)%s\n", display.Bold+display.Cyan, len(all), display.Reset)
	fmt.Fprintln(w, strings.Repeat("─", 40))
	for i, s := range all {
		fmt.Fprintf(w, "  %s%2d.%s %s%s%s  %s", display.Dim, i+1, display.Reset, display.Bold, s.ID, display.Reset, s.Title)
		if s.Product != "" {
			fmt.Fprintf(w, "  %s%s%s", display.Gray, s.Product, display.Reset)
		}
		fmt.Fprintln(w)
		if full {
			for _, line := range wrapText(strings.TrimSpace(s.Text), 72) {
				fmt.Fprintf(w, "      %s\n", line)
			}
		}
	}
	fmt.Fprintf(w, "\n  %sTip:%s Run %scomplaint analyze --sample <n>%s to submit one.\n\n", display.Dim, display.Reset, display.Cyan, display.Reset)
}

// wrapText word-wraps text to width, keeping paragraph breaks.
func wrapText(text string, width int) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		if paragraph == "" {
			lines = append(lines, "")
			continue
		}
		words := strings.Fields(paragraph)
		current := ""
		for _, word := range words {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return lines
}
