package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/pawswipe/internal/app"
)

const version = "0.1.0"

var (
	configPath string
	prefsPath  string
)

var rootCmd = &cobra.Command{
	Use:           "pawswipe",
	Short:         "Swipe through adoptable rescue dogs",
	Long:          "A terminal client for browsing rescue dogs one card at a time. Like a dog to add it to your favorites, pass to move on.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return app.Run(cmd.Context(), app.Options{
			ConfigPath: configPath,
			PrefsPath:  prefsPath,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.config/pawswipe/config.toml)")
	rootCmd.PersistentFlags().StringVar(&prefsPath, "prefs", "", "UI preferences file (default: ~/.config/pawswipe/prefs.toml)")
}

// openServices opens config and local state for a subcommand.
func openServices() (*app.Services, error) {
	svc, err := app.Open(app.Options{ConfigPath: configPath, PrefsPath: prefsPath})
	if err != nil {
		return nil, fmt.Errorf("open pawswipe state: %w", err)
	}
	return svc, nil
}
