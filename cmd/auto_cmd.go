package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kira1928/nodeswitch/pkg/manager"
)

func init() {
	var autoCmd = &cobra.Command{
		Use:       "auto [on|off]",
		Short:     "Show or change automatic switching by .nvmrc / .node-version",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := getManager()
			if err != nil {
				return err
			}
			var st manager.AutoState
			switch {
			case len(args) == 0:
				st, err = m.AutoStatus()
			case args[0] == "on":
				st, err = m.SetAuto(true)
			case args[0] == "off":
				st, err = m.SetAuto(false)
			default:
				return fmt.Errorf("unknown argument %q, expected on or off", args[0])
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "auto switch: %s\n", onOff(st.Enabled))
			fmt.Fprintf(out, "shell hook:  %s\n", installedText(st.HookInstalled))
			if st.Enabled && !st.HookInstalled {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: auto switch is on but the shell hook is missing, run `nodeswitch init`")
			}
			return nil
		},
	}
	rootCmd.AddCommand(autoCmd)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func installedText(b bool) string {
	if b {
		return "installed"
	}
	return "not installed"
}
