package cmd

import (
	"github.com/spf13/cobra"
)

var shutdownDistro string

var shutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Stop WSL (all distributions, or one with --distro)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(false)
		if err != nil {
			return err
		}
		return a.shutdown(cmd.Context(), cmd.OutOrStdout(), shutdownDistro)
	},
}

func init() {
	shutdownCmd.Flags().StringVar(&shutdownDistro, "distro", "", "Terminate only this distribution")
}
