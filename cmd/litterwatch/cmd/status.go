package cmd

import (
	"fmt"
	"os"
	"time"

	"litterwatch/services/monitor"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statusHistory int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the result of the most recent scan cycle.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		status, err := monitor.ReadStatus(cfg.StatusFile)
		switch {
		case os.IsNotExist(err):
			fmt.Println("No scan has completed yet.")
		case err != nil:
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		default:
			last := status.LastRun
			t := newTable()
			t.AppendHeader(table.Row{"Started", "Status", "URLs", "New", "Errors", "Duration"})
			t.AppendRow(statusRow(
				last.StartTime, last.Status, last.UrlsChecked,
				last.ChangesDetected, last.Errors, last.DurationSeconds,
			))
			t.Render()
		}

		if statusHistory <= 0 {
			return
		}

		history := openHistory(cfg)
		if history == nil {
			fmt.Fprintln(os.Stderr, "scan history is not configured")
			os.Exit(1)
		}
		defer history.Close()

		records, err := history.Recent(cmd.Context(), statusHistory)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Started", "Status", "URLs", "New", "Errors", "Duration"})
		for _, rec := range records {
			t.AppendRow(statusRow(
				rec.StartTime, rec.Status, rec.UrlsChecked,
				rec.ChangesDetected, rec.Errors, rec.DurationSeconds,
			))
		}
		t.Render()
	},
}

func statusRow(started time.Time, status string, urls, changes, errors int, seconds float64) table.Row {
	return table.Row{
		started.Format(time.RFC3339),
		status,
		urls,
		changes,
		errors,
		fmt.Sprintf("%.1fs", seconds),
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().IntVar(&statusHistory, "history", 0, "Also show the n most recent cycles from the scan history.")
}
