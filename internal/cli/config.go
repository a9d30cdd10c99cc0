package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dopingplot/pkg/config"
)

// configCommand creates the config inspection command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Long: `Print the configuration after merging defaults, the config file, .env
and DOPINGPLOT_* environment variables. The output is a valid config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return cfg.Write(cmd.OutOrStdout())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to " + config.FileName,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName
			if c.configPath != "" {
				path = c.configPath
			}
			f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := config.Default().Write(f); err != nil {
				return err
			}
			printSuccess("Wrote %s", path)
			printNextStep("Render with it", "dopingplot render --config "+path)
			return nil
		},
	})

	return cmd
}
