package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/fishbot/internal/catchlog"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catch statistics",
	Long: `Show catch statistics from the catch log: casts, catches, misses and
the most recent cycles.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

var (
	statsJSON   bool
	statsRecent int
)

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output statistics as JSON")
	statsCmd.Flags().IntVar(&statsRecent, "recent", 10, "number of recent cycles to list")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if _, err := os.Stat(cfg.CatchLogPath()); os.IsNotExist(err) {
		fmt.Fprintln(out, "No cycles recorded yet")
		return nil
	}

	db, err := catchlog.Open(cfg.CatchLogPath())
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	summary, err := db.Summary(ctx, "")
	if err != nil {
		return err
	}
	recent, err := db.Recent(ctx, statsRecent)
	if err != nil {
		return err
	}

	if statsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"summary": summary, "catch_rate": summary.CatchRate(), "recent": recent})
	}
	printStats(out, summary, recent)
	return nil
}

func printStats(w io.Writer, s catchlog.Summary, recent []catchlog.Entry) {
	fmt.Fprintln(w)
	heading(w, "CATCH SUMMARY")
	fmt.Fprintf(w, "Sessions:   %d\n", s.Sessions)
	fmt.Fprintf(w, "Casts:      %d\n", s.Cycles)
	fmt.Fprintf(w, "Caught:     %d (%.0f%%)\n", s.Caught, s.CatchRate()*100)
	fmt.Fprintf(w, "No bite:    %d\n", s.Timeouts)
	fmt.Fprintf(w, "No float:   %d\n", s.NoTarget)
	fmt.Fprintf(w, "Cancelled:  %d\n", s.Cancelled)
	if !s.LastAt.IsZero() {
		fmt.Fprintf(w, "Last cast:  %s\n", s.LastAt.Local().Format("2006-01-02 15:04:05"))
	}

	if len(recent) == 0 {
		return
	}
	fmt.Fprintln(w)
	heading(w, "RECENT CASTS")
	for _, e := range recent {
		fmt.Fprintf(w, "%s  %-12s %-10s %5.1fs\n",
			e.End.Local().Format("15:04:05"), e.Area, e.Outcome, e.Duration().Seconds())
	}
}
