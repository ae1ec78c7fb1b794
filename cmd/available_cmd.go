package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var ltsStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))

func init() {
	var availableCmd = &cobra.Command{
		Use:   "available",
		Short: "Show releases of the most recent major versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := getManager()
			if err != nil {
				return err
			}
			releases, err := m.Available(cmd.Context())
			if err != nil {
				return err
			}
			for _, r := range releases {
				line := fmt.Sprintf("%-10s %s", r.Version, r.Date)
				if r.LTS != "" {
					line += "  " + ltsStyle.Render("LTS "+r.LTS)
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	rootCmd.AddCommand(availableCmd)
}
