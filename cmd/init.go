/*
Copyright © 2026 JACOB ARTHURS
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacobarthurs/pgplandot/internal/profile"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with example template",
	Long: `Create the pgplandot config file with an example template.

The config file stores named database connection profiles so you don't need
to pass connection strings on every invocation, and render defaults for the
dot and serve commands. If a config file already exists, it will not be
overwritten unless --force is given.`,
	Example: `  # Create default config
  pgplandot init

  # Overwrite existing config
  pgplandot init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		path, err := profile.Init(force)
		if errors.Is(err, profile.ErrConfigExists) {
			fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at %s. Use --force to overwrite.\n", path)
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created config at %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolP("force", "f", false, "Overwrite existing config file")
}
