package cmd

import (
	"net/http"
	"os"

	"litterwatch/lib/serviceutil"
	"litterwatch/services/control"
	"litterwatch/services/sources"

	"github.com/spf13/cobra"
)

var runInterval int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitor daemon and its control api.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := serviceutil.SignalContext()
		setupTelemetry(ctx)

		cfg := loadConfig()
		if runInterval > 0 {
			cfg.IntervalSeconds = runInterval
		}

		// A daemon pointed at a nonexistent urls file is a
		// misconfiguration. An empty file is fine, urls can be added
		// over the control api while it runs.
		list := sources.NewList(cfg.UrlsFile)
		_, err := os.Stat(list.Path())
		if err != nil {
			serviceutil.Fatal("urls file is not readable, create it with `litterwatch urls add <url>`", err)
		}

		svc, history := newMonitor(cfg, false)
		if history != nil {
			defer history.Close()
		}

		mux := http.NewServeMux()
		mux.Handle("/", control.NewHandler(control.Options{
			Monitor:     svc,
			Sources:     list,
			History:     history,
			StatusFile:  cfg.StatusFile,
			AccessToken: cfg.AccessToken,
		}))
		go serviceutil.StartHttpServer(cfg.Port, mux)

		svc.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVar(&runInterval, "interval", 0, "Seconds between scan cycles, overrides the configured value.")
}
