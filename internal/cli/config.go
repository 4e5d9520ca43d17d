package cli

import (
	"fmt"

	"github.com/existflow/grantline/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
	Long: `Show or change the settings stored in ~/.grantline/config.yaml.

Examples:
  grantline config
  grantline config set viewer_id alice
  grantline config set default_zoom yearly
  grantline config set notifier redis`,
	RunE: runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configSetCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s\n", path)
	_, err = out.Write(data)
	return err
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	// reload so run-only overrides such as --board are not persisted
	stored, err := config.Load()
	if err != nil {
		stored = config.DefaultConfig()
	}
	if err := stored.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := stored.Save(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s = %s\n", args[0], args[1])
	return nil
}
