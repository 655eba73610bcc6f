package cmd

import (
	"github.com/spf13/cobra"
)

var listUsage bool

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show WSL distributions and their disk sizes",
	Long: `Shows every registered distribution with its state and the size of its
virtual disk. --usage also runs df inside each distribution to show how much
of the disk is really in use; this starts any distribution that is stopped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(false)
		if err != nil {
			return err
		}
		return a.list(cmd.Context(), cmd.OutOrStdout(), listUsage)
	},
}

func init() {
	listCmd.Flags().BoolVar(&listUsage, "usage", false, "Also show used space inside each distribution (starts them)")
}

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Locate the VHDX files behind each distribution",
	Long:  "Searches the Lxss registry, the conventional install locations and, if needed, %LOCALAPPDATA% for virtual disk files.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(false)
		if err != nil {
			return err
		}
		return a.find(cmd.Context(), cmd.OutOrStdout())
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Show current disk sizes and host free space",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(false)
		if err != nil {
			return err
		}
		return a.verify(cmd.Context(), cmd.OutOrStdout())
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check prerequisites and show troubleshooting help",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(false)
		if err != nil {
			return err
		}
		return a.doctor(cmd.Context(), cmd.OutOrStdout())
	},
}
