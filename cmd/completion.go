package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:       "completion [powershell]",
	Short:     "Set up shell tab completion",
	Long:      "Generate tab completion scripts for PowerShell.\n\nAdd `wslm completion powershell | Out-String | Invoke-Expression` to your $PROFILE.",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"powershell"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return rootCmd.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "wslm %s (%s) built %s\n", appVersion, appCommit, appDate)
	},
}
