package cmd

import (
	"fmt"
	"os"

	"github.com/mazen160/go-random"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Generate an access token for the control api.",
	Run: func(cmd *cobra.Command, args []string) {
		token, err := random.String(32)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		fmt.Println(token)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
