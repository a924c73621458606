// Package cmd implements the streetcode command-line interface: the ingestor
// service and its maintenance commands.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/streetcode-ingestor/internal/app"
	"github.com/jonesrussell/streetcode-ingestor/internal/config"
)

const defaultConfigPath = "config.yml"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug forces debug logging for all commands.
	debug bool

	// Version is set at build time via -ldflags.
	Version = "dev"

	rootCmd = &cobra.Command{
		Use:           "streetcode",
		Short:         "Crime news ingestor",
		Long:          `Subscribes to classified crime articles on Redis and persists core street crime to PostgreSQL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $CONFIG_PATH or ./config.yml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "streetcode version %s\n", Version)
		},
	})

	rootCmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newReclassifyCommand(),
		newBackfillCommand(),
		newSoftDeleteCommand(),
		newRecountTagsCommand(),
		newStatsCommand(),
	)
}

// withApp builds the App for one command invocation and closes it after fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	path := cfgFile
	if path == "" {
		path = config.GetConfigPath(defaultConfigPath)
	}

	a, err := app.New(app.Options{ConfigPath: path, Version: Version, Debug: debug})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	return fn(cmd.Context(), a)
}
