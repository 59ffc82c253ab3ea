package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xdg/consolex/internal/config"
	"github.com/xdg/consolex/internal/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage the consolex configuration.

The configuration file is stored at ~/.config/consolex/config.yaml
(or $XDG_CONFIG_HOME/consolex/config.yaml if XDG_CONFIG_HOME is set,
or $CONSOLEX_CONFIG if that is set).`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective config",
	Long: `Print the effective configuration as YAML, with defaults applied.

If no config file exists, a commented default is created first.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print config file path",
	Args:  cobra.NoArgs,
	Run:   runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default config file",
	Long: `Create the default configuration file if it doesn't exist.

If the file already exists, this command does nothing.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	term.Print(string(data))
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) {
	term.Println(config.Path())
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.Path()

	if err := config.WriteDefault(path); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	term.Printf("Config file: %s\n", path)
	return nil
}
