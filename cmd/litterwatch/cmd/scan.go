package cmd

import (
	"os"
	"time"

	"litterwatch/lib/serviceutil"
	"litterwatch/services/monitor"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var scanPrune bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single scan cycle and exit.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := serviceutil.SignalContext()
		setupTelemetry(ctx)

		cfg := loadConfig()
		svc, history := newMonitor(cfg, scanPrune)
		if history != nil {
			defer history.Close()
		}

		cycle, err := svc.RunOnce(ctx)
		if err != nil {
			serviceutil.Fatal("scan failed", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Status", "URLs", "New", "Errors", "Duration"})
		t.AppendRow(table.Row{
			cycle.Status,
			cycle.UrlsChecked,
			cycle.ChangesDetected,
			cycle.Errors,
			cycle.EndTime.Sub(cycle.StartTime).Round(time.Millisecond),
		})
		t.Render()

		if cycle.Status != monitor.StatusSuccess {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&scanPrune, "prune", false, "Remove stored litters no longer present on any page after a clean cycle.")
}
