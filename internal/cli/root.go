package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"DocDigest/internal/config"
	"DocDigest/internal/logging"
)

type rootOptions struct {
	configPath string
}

// NewRootCommand assembles the docdigest command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "docdigest",
		Short: "Summarize document updates and e-mail them to subscribers",
		Long: `docdigest fetches configured documents, summarizes what is new with an LLM
and mails the digests to each feed's subscribers. A summary is sent once.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to the YAML config (default $DOCDIGEST_CONFIG)")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newResetCmd(opts))
	root.AddCommand(newServeCmd(opts))
	return root
}

// Execute runs the root command with signal-aware context.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := NewRootCommand(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func newLogger(cfg config.Config, cmd *cobra.Command) *slog.Logger {
	return logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
}
