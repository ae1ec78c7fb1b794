package main

import (
	"os"

	"github.com/spf13/cobra"
)

func currentPath() string {
	return os.Getenv("PATH")
}

func init() {
	var useExport, setExport bool

	var useCmd = &cobra.Command{
		Use:   "use <version|major|latest>",
		Short: "Select an installed version for the current shell",
		Long: `Prints the bin directory of the selected version. Through the shell hook
installed by "nodeswitch init" the current shell's PATH is updated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := getManager()
			if err != nil {
				return err
			}
			sel, err := m.Use(cmd.Context(), args[0], currentPath())
			if err != nil {
				return err
			}
			printSelection(cmd, sel, useExport)
			return nil
		},
	}
	useCmd.Flags().BoolVar(&useExport, "export", false, "Print a shell statement instead of the bin directory")

	var setCmd = &cobra.Command{
		Use:   "set <version|major|latest>",
		Short: "Make an installed version the default for new shells",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := getManager()
			if err != nil {
				return err
			}
			sel, err := m.Set(cmd.Context(), args[0], currentPath())
			if err != nil {
				return err
			}
			printSelection(cmd, sel, setExport)
			return nil
		},
	}
	setCmd.Flags().BoolVar(&setExport, "export", false, "Print a shell statement instead of the bin directory")

	rootCmd.AddCommand(useCmd, setCmd)
}
