package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rag-cli/internal/adapters/driven/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change settings stored in the TOML config file.

Every key can also be set with an environment variable or in a .env file
in the working directory; those take precedence over the config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings and where each comes from",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Store a setting in the config file",
	Example: `  rag config set llm.model openai:gpt-4o-mini
  rag config set chunk.size 800
  rag config set retry.max_wait 10s`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if resolved == nil || configStore == nil {
		return errors.New("configuration not loaded")
	}

	c := newConsole(cmd)
	c.title("Settings")
	for _, e := range resolved.Entries() {
		value := e.Value
		if value == "" {
			value = "(not set)"
		}
		c.printf("  %-22s %-36s %s\n", e.Key, value, c.styles.Muted.Render(string(e.Source)))
	}
	c.println()
	c.muted("Config file: " + configStore.Path())

	if err := resolved.Settings.Validate(); err != nil {
		c.warn(fmt.Sprintf("Warning: %v", err))
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("configuration not loaded")
	}
	key, raw := args[0], args[1]

	value, err := config.ParseValue(key, raw)
	if err != nil {
		return err
	}
	if err := configStore.Set(key, value); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}

	shown := fmt.Sprint(value)
	if k, ok := config.Lookup(key); ok && k.Secret {
		shown = config.MaskSecret(shown)
	}
	newConsole(cmd).success(fmt.Sprintf("Set %s = %s in %s", key, shown, configStore.Path()))
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("configuration not loaded")
	}
	fmt.Fprintln(cmd.OutOrStdout(), configStore.Path())
	return nil
}
