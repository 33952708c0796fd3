package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"adventune/folio/config"
)

var (
	cfgFile     string
	debug       bool
	contentPath string

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Serve and render a small post collection",
	Long: `Folio reads posts written as front matter plus a light markup dialect,
lists them newest first and renders single posts, either as a live site
or one view at a time from the command line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cmd.Flags().Changed("content") {
			loaded.ContentDir = contentPath
		}
		if cmd.Flags().Changed("debug") {
			loaded.Debug = debug
		}

		// Set the log level
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		if loaded.Debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
		log.Debug().Msg("Debug logging has been enabled")

		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "folio.yml", "config file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Sets log level to debug")
	rootCmd.PersistentFlags().StringVar(&contentPath, "content", "./content", "Path to the content directory")
}
