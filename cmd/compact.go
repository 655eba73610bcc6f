package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/wslmole/internal/compact"
	"github.com/lakshaymaurya-felt/wslmole/internal/ui"
)

var (
	compactStrategy string
	compactYes      bool
)

var compactCmd = &cobra.Command{
	Use:   "compact [NAME|all]",
	Short: "Shut WSL down and compact distribution disks",
	Long: `Shuts down WSL, then compacts the disk of NAME (or every owned disk with
"all", the default). Strategies are tried in order: modern (wsl --manage
--set-sparse), diskpart, optimize-vhd. --strategy runs only the named one.

Requires an elevated terminal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := compact.TargetAll
		if len(args) == 1 {
			target = args[0]
		}
		strategy, err := compact.ParseStrategyID(compactStrategy)
		if err != nil {
			return err
		}

		a, err := loadApp(false)
		if err != nil {
			return err
		}
		if err := requireElevation(a); err != nil {
			return err
		}

		question, err := a.compactQuestion(cmd.Context(), target)
		if err != nil {
			return err
		}
		if !compactYes {
			if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), question) {
				ui.NewPrinter(cmd.OutOrStdout()).Info("Cancelled.")
				return nil
			}
		}

		// Per-target failures are reported; the exit code stays 0.
		_, err = a.compact(cmd.Context(), cmd.OutOrStdout(), target, strategy)
		return err
	},
}

func init() {
	compactCmd.Flags().StringVar(&compactStrategy, "strategy", "", "Run only this strategy: modern, diskpart or optimize-vhd")
	compactCmd.Flags().BoolVarP(&compactYes, "yes", "y", false, "Do not ask for confirmation")
}

// confirm asks a y/N question on out and reads the answer from in.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "  %s %s ", ui.WarningStyle.Render(ui.IconWarning+" "+question), ui.MutedStyle.Render("[y/N]"))
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		fmt.Fprintln(out)
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
