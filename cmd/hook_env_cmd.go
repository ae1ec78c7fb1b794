package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kira1928/nodeswitch/pkg/shellhook"
)

func init() {
	var hookEnvCmd = &cobra.Command{
		Use:    "hook-env",
		Short:  "Print the PATH change for the current directory (used by the shell hook)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := getManager()
			if err != nil {
				return err
			}
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			res, err := m.HookEnv(cmd.Context(), cwd, currentPath())
			if err != nil {
				return err
			}
			if !res.Changed {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "nodeswitch: using node %s from %s\n", res.Version, res.Marker)
			fmt.Fprintln(cmd.OutOrStdout(), shellhook.ExportPath(res.Path))
			return nil
		},
	}
	rootCmd.AddCommand(hookEnvCmd)
}
