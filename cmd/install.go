package cmd

import (
	"github.com/spf13/cobra"

	"kmpkg/internal/config"
	"kmpkg/internal/installer"
	"kmpkg/internal/state"
)

// installCmd installs a packaged action bundle into the Keyboard Maestro
// actions directory.
var installCmd = &cobra.Command{
	Use:   "install <archive-or-url>",
	Short: "Install a packaged action bundle from an archive or URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		st := state.Load(cfg.StateFile)

		if _, err := installer.Install(args[0], cfg, st); err != nil {
			return err
		}
		return state.Save(cfg.StateFile, st)
	},
}

// uninstallCmd removes a bundle previously installed by kmpkg.
var uninstallCmd = &cobra.Command{
	Use:   "uninstall <name>",
	Short: "Remove an installed action bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		st := state.Load(cfg.StateFile)

		if err := installer.Uninstall(args[0], st); err != nil {
			return err
		}
		return state.Save(cfg.StateFile, st)
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
}
