package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aseptiq/fillsched/config"
)

var initConfigForce bool

var initConfigCmd = &cobra.Command{
	Use:   "init-config <path>",
	Short: "Write the default configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if !initConfigForce {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	initConfigCmd.Flags().BoolVarP(&initConfigForce, "force", "f", false, "overwrite an existing file")
	rootCmd.AddCommand(initConfigCmd)
}
