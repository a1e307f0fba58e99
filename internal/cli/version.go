package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		version, commit, date := BuildInfo()
		bold := color.New(color.Bold)
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\ncommit: %s\nbuilt:  %s\n", bold.Sprint("cmakesmoke"), version, commit, date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
