package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	var yes bool
	var removeCmd = &cobra.Command{
		Use:     "remove <version|major|latest>",
		Aliases: []string{"uninstall"},
		Short:   "Delete an installed version",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := getManager()
			if err != nil {
				return err
			}
			v, err := m.Remove(cmd.Context(), args[0], !yes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "node %s removed\n", v)
			return nil
		},
	}
	removeCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(removeCmd)
}
