package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"simpleserver/internal/accesslog"
	"simpleserver/internal/slogutil"
)

var (
	logLines  int
	logFormat string
	logStats  bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the access log",
	Long: `View requests recorded by 'simpleserver serve --access-log'.

Examples:
  simpleserver log              # Show last 50 requests
  simpleserver log -n 100       # Show last 100 requests
  simpleserver log --stats      # Request counts per status`,
	RunE: runLog,
}

func init() {
	logCmd.Flags().IntVarP(&logLines, "lines", "n", 50, "Number of requests to show")
	logCmd.Flags().StringVar(&logFormat, "format", "human", "Output format (human, json)")
	logCmd.Flags().BoolVar(&logStats, "stats", false, "Show request counts per status instead")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	result, err := loadConfig()
	if err != nil {
		return err
	}

	dbPath, err := accessLogPath(result.Config)
	if err != nil {
		return fmt.Errorf("failed to get access log path: %w", err)
	}

	w := cmd.OutOrStdout()
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintln(w, "No access log found.")
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Access log location: %s\n", dbPath)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Requests are recorded when:")
		fmt.Fprintln(w, "  - Running 'simpleserver serve --access-log'")
		fmt.Fprintln(w, "  - Setting accessLog.enabled = true in the config")
		return nil
	}

	store, err := accesslog.Open(dbPath, slogutil.NewDiscardLogger())
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if logStats {
		counts, err := store.StatusCounts(ctx)
		if err != nil {
			return err
		}
		return writeStatusCounts(w, counts, logFormat)
	}

	entries, err := store.Recent(ctx, logLines)
	if err != nil {
		return err
	}
	return writeEntries(w, entries, logFormat)
}

// writeEntries prints entries oldest first
func writeEntries(w io.Writer, entries []accesslog.Entry, format string) error {
	ordered := make([]accesslog.Entry, len(entries))
	for i, e := range entries {
		ordered[len(entries)-1-i] = e
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(ordered, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "human":
		if len(ordered) == 0 {
			fmt.Fprintln(w, "No requests recorded.")
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tSTATUS\tMETHOD\tPATH\tENCODING\tBYTES\tDURATION\tERROR")
		for _, e := range ordered {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%d\t%dms\t%s\n",
				e.Time.Local().Format(time.DateTime),
				e.Status, e.Method, e.Path,
				valueOrDefault(e.Encoding, "-"),
				e.Bytes, e.DurationMs, e.Error)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeStatusCounts(w io.Writer, counts map[int]int64, format string) error {
	if format == "json" {
		data, err := json.MarshalIndent(counts, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	statuses := make([]int, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Ints(statuses)

	for _, status := range statuses {
		fmt.Fprintf(w, "%d  %d\n", status, counts[status])
	}
	return nil
}
