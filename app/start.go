package app

import (
	"github.com/spf13/cobra"

	"github.com/scouting-oidc/scouting-oidc/internal/daemon"
	"github.com/scouting-oidc/scouting-oidc/internal/logger"
)

func init() { //nolint: gochecknoinits
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode")

	rootCmd.AddCommand(startCmd)
}

var (
	devMode bool

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scouting-oidc web service",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if devMode {
				cfg.DevMode = true
			}

			return logger.Init(cfg.Log)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer func() { _ = logger.Close() }()

			d, err := daemon.New(cmd.Context(), &cfg)
			if err != nil {
				return err
			}

			return d.Start()
		},
	}
)
