package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"DocDigest/internal/app"
	"DocDigest/internal/config"
	"DocDigest/internal/domain"
	"DocDigest/internal/usecase"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		feedType string
		dryRun   bool
		confirm  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one feed: summarize new content and mail the digests",
		Long: `Runs one batch for a feed. BIWEEKLY feeds deliver new UPDATE sections of
running-log documents; TDD and PRD feeds deliver one summary per document.

With --dry-run nothing is sent or marked sent; the preview is printed instead.
With --confirm the preview is shown and delivery waits for a Y/N answer.`,
		Example: "  docdigest run --type BIWEEKLY --confirm\n  docdigest run -t TDD --dry-run",
		RunE: func(cmd *cobra.Command, args []string) error {
			summaryType := domain.SummaryType(strings.ToUpper(feedType))
			if !summaryType.Valid() {
				return fmt.Errorf("unknown feed type %q (want TDD, PRD or BIWEEKLY)", feedType)
			}

			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd)

			var opts app.Options
			if confirm && !dryRun {
				opts.Confirmer = NewPromptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
			}

			application, err := app.New(cmd.Context(), cfg, logger, opts)
			if err != nil {
				return err
			}
			defer func() {
				if err := application.Close(); err != nil {
					logger.Warn("close application", "error", err)
				}
			}()

			runner := application.Runner()
			report, err := runner.Run(cmd.Context(), summaryType, usecase.RunOptions{DryRun: dryRun})
			if err != nil {
				return err
			}

			printReport(cmd, runner, report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&feedType, "type", "t", "", "feed to run: TDD, PRD or BIWEEKLY")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "build digests and print the preview without sending")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "ask for confirmation before sending")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func printReport(cmd *cobra.Command, runner *usecase.Runner, report usecase.Report) {
	out := cmd.OutOrStdout()

	switch {
	case report.DryRun:
		feed, _ := runner.Feed(report.Type)
		WritePreview(out, report.Digests, feed.Subscribers)
		fmt.Fprintln(out, "\nDry run: nothing was sent.")
	case report.Declined:
		fmt.Fprintln(out, "Aborted sending emails.")
	case len(report.Delivered) == 0:
		fmt.Fprintln(out, "No summaries to send.")
	default:
		fmt.Fprintf(out, "Sent %d summaries to %d recipients.\n", len(report.Delivered), report.Recipients)
	}

	if len(report.Skipped) > 0 {
		fmt.Fprintf(out, "Skipped (too large to summarize): %s\n", strings.Join(report.Skipped, ", "))
	}
}
