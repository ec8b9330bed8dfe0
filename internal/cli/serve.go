package cli

import (
	"github.com/spf13/cobra"

	"DocDigest/internal/app"
	"DocDigest/internal/config"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP control surface and the optional interval scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd)

			application, err := app.New(cmd.Context(), cfg, logger, app.Options{})
			if err != nil {
				return err
			}
			defer func() {
				if err := application.Close(); err != nil {
					logger.Warn("close application", "error", err)
				}
			}()

			return application.Serve(cmd.Context())
		},
	}
}
