// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/scouting-oidc/scouting-oidc/internal/config"
)

var (
	configPath string // Path to the configuration folder
	cfg        config.Config

	rootCmd = &cobra.Command{
		Use:   "scouting-oidc",
		Short: "scouting-oidc signs members in with their Scouts Online account",
		Long: `scouting-oidc is a web service that signs members in through the
Scouts Online OpenID Connect provider and keeps a local account per member.`,
		Args: cobra.OnlyValidArgs,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error

			cfg, err = config.ReadConfig(configPath)

			return err
		},
		SilenceUsage: true,
	}
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./etc/", "Folder holding main.toml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
