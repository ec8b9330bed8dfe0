package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"DocDigest/internal/app"
	"DocDigest/internal/config"
)

func newResetCmd(root *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every stored summary and recreate the ledger",
		Long: `Drops all sections and document summaries, including their sent flags.
Every document will be summarized and mailed again on the next run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if !yes {
				fmt.Fprint(out, "WARNING: This will delete all existing summaries data! Are you sure? (type 'yes' to confirm): ")
				answer, err := readLine(bufio.NewReader(cmd.InOrStdin()))
				if err != nil {
					return fmt.Errorf("read confirmation: %w", err)
				}
				if !strings.EqualFold(answer, "yes") {
					fmt.Fprintln(out, "Operation cancelled.")
					return nil
				}
			}

			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}

			ledger, closeLedger, err := app.OpenLedger(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeLedger()

			if err := ledger.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("reset ledger: %w", err)
			}
			newLogger(cfg, cmd).Info("ledger reset", "driver", cfg.Ledger.Driver)
			fmt.Fprintln(out, "Database tables have been reset successfully!")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
