package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/scouting-oidc/scouting-oidc/internal/daemon"
	"github.com/scouting-oidc/scouting-oidc/internal/db/controller/setting"
	"github.com/scouting-oidc/scouting-oidc/internal/settings"
)

// ErrUnknownSetting is returned for a setting name the service does not read.
var ErrUnknownSetting = errors.New("unknown setting")

func init() { //nolint: gochecknoinits
	settingsCmd.AddCommand(settingsListCmd, settingsGetCmd, settingsSetCmd, settingsUnsetCmd)
	rootCmd.AddCommand(settingsCmd)
}

var (
	settingsCmd = &cobra.Command{
		Use:   "settings",
		Short: "Manage the identity provider settings stored in the database",
		Long: `Settings stored in the database take precedence over the [OIDC] section of main.toml.
Known settings: ` + strings.Join(settings.Names(), ", "),
	}

	settingsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List the stored settings",
		Args:  cobra.NoArgs,
		RunE: withDB(func(cmd *cobra.Command, db *gorm.DB, _ []string) error {
			stored, err := setting.List(db, settings.Prefix)
			if err != nil {
				return err
			}

			for _, s := range stored {
				cmd.Printf("%s=%s\n", s.Name, settings.Display(s.Name, string(s.Value)))
			}

			return nil
		}),
	}

	settingsGetCmd = &cobra.Command{
		Use:   "get <name>",
		Short: "Print a stored setting",
		Args:  cobra.ExactArgs(1),
		RunE: withDB(func(cmd *cobra.Command, db *gorm.DB, args []string) error {
			value, ok, err := setting.Lookup(db, args[0])
			if err != nil {
				return err
			}

			if !ok {
				return fmt.Errorf("%s: %w", args[0], setting.ErrSettingNotFound)
			}

			cmd.Println(settings.Display(args[0], value))

			return nil
		}),
	}

	settingsSetCmd = &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Store a setting",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: withDB(func(cmd *cobra.Command, db *gorm.DB, args []string) error {
			if !settings.Known(args[0]) {
				return fmt.Errorf("%s: %w", args[0], ErrUnknownSetting)
			}

			if _, err := setting.Set(db, args[0], []byte(args[1])); err != nil {
				return err
			}

			cmd.Printf("%s updated, restart the service to apply\n", args[0])

			return nil
		}),
	}

	settingsUnsetCmd = &cobra.Command{
		Use:   "unset <name>",
		Short: "Remove a stored setting, the main.toml value applies again",
		Args:  cobra.ExactArgs(1),
		RunE: withDB(func(_ *cobra.Command, db *gorm.DB, args []string) error {
			return setting.DeleteByName(db, args[0])
		}),
	}
)

// withDB opens the configured database for a settings command.
func withDB(run func(cmd *cobra.Command, db *gorm.DB, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		db, err := daemon.OpenDB(&cfg)
		if err != nil {
			return err
		}

		return run(cmd, db, args)
	}
}
