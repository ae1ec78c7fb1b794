package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kira1928/nodeswitch/pkg/shellhook"
)

func init() {
	var printScript bool
	var shell string

	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Install the shell hook into your shell profile",
		Long: `Appends one line to ~/.bashrc or ~/.zshrc that loads the nodeswitch shell
integration. Running it again does nothing. With --print the integration
script is written to stdout instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := getManager()
			if err != nil {
				return err
			}
			if printScript {
				if shell == "" {
					if shell, err = shellhook.DetectShell(os.Getenv("SHELL")); err != nil {
						return err
					}
				}
				exe, err := os.Executable()
				if err != nil {
					return err
				}
				script, err := shellhook.Script(shell, exe, m.DefaultBin())
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), script)
				return nil
			}

			wrote, err := m.Init()
			if err != nil {
				return err
			}
			if wrote {
				fmt.Fprintln(cmd.ErrOrStderr(), "Shell hook installed. Restart your shell to load it.")
			} else {
				fmt.Fprintln(cmd.ErrOrStderr(), "Shell hook already installed.")
			}
			return nil
		},
	}
	initCmd.Flags().BoolVar(&printScript, "print", false, "Print the integration script instead of installing it")
	initCmd.Flags().StringVar(&shell, "shell", "", "Shell to render the script for (bash or zsh, default from $SHELL)")
	rootCmd.AddCommand(initCmd)
}
