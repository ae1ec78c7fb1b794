package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kira1928/nodeswitch/pkg/picker"
	"github.com/kira1928/nodeswitch/pkg/store"
)

func init() {
	var installCmd = &cobra.Command{
		Use:   "install <version|major|latest|pick>",
		Short: "Download and install a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := getManager()
			if err != nil {
				return err
			}
			token := args[0]
			if token == "pick" {
				releases, err := m.Available(cmd.Context())
				if err != nil {
					return err
				}
				items := make([]picker.Item, len(releases))
				for i, r := range releases {
					detail := r.Date
					if r.LTS != "" {
						detail += "  LTS " + r.LTS
					}
					items[i] = picker.Item{Value: r.Version.String(), Detail: detail}
				}
				chosen, err := picker.Pick("Install version", items)
				if err != nil {
					return err
				}
				token = chosen.Value
			}

			inst, err := m.Install(cmd.Context(), token)
			if err != nil {
				return err
			}
			reportInstalled(cmd, inst)
			return nil
		},
	}

	var latestCmd = &cobra.Command{
		Use:   "latest",
		Short: "Install the newest published version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := getManager()
			if err != nil {
				return err
			}
			inst, err := m.Latest(cmd.Context())
			if err != nil {
				return err
			}
			reportInstalled(cmd, inst)
			return nil
		},
	}
	rootCmd.AddCommand(installCmd, latestCmd)
}

func reportInstalled(cmd *cobra.Command, inst store.Installed) {
	fmt.Fprintf(cmd.ErrOrStderr(), "node %s installed in %s\n", inst.Version, inst.Dir)
	fmt.Fprintf(cmd.ErrOrStderr(), "Run `nodeswitch use %s` to switch to it.\n", inst.Version)
}
