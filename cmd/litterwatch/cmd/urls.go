package cmd

import (
	"fmt"
	"os"

	"litterwatch/services/sources"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var urlsCmd = &cobra.Command{
	Use:   "urls",
	Short: "Manage the monitored page urls.",
}

var urlsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the monitored page urls.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		urls, err := sources.NewList(cfg.UrlsFile).Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		t := newTable()
		t.AppendHeader(table.Row{"#", "URL"})
		for i, u := range urls {
			t.AppendRow(table.Row{i + 1, u})
		}
		t.Render()
	},
}

var urlsAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a page to the monitored list.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		err := sources.NewList(cfg.UrlsFile).Add(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	},
}

var urlsRemoveCmd = &cobra.Command{
	Use:   "remove <url>",
	Short: "Remove a page from the monitored list.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		err := sources.NewList(cfg.UrlsFile).Remove(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(urlsCmd)
	urlsCmd.AddCommand(urlsListCmd)
	urlsCmd.AddCommand(urlsAddCmd)
	urlsCmd.AddCommand(urlsRemoveCmd)
}
