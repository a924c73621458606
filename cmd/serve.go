package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/streetcode-ingestor/internal/app"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the subscriber, HTTP server and scheduled maintenance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Serve(ctx)
			})
		},
	}
}
