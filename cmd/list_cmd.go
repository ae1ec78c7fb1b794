package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kira1928/nodeswitch/pkg/picker"
)

var (
	defaultMark = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED"))
	activeMark  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
)

func init() {
	var export bool
	var listCmd = &cobra.Command{
		Use:       "list [pick]",
		Short:     "List installed versions, or pick one to use in this shell",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"pick"},
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := getManager()
			if err != nil {
				return err
			}
			entries, err := m.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(args) == 1 {
				if args[0] != "pick" {
					return fmt.Errorf("unknown argument %q, expected \"pick\"", args[0])
				}
				items := make([]picker.Item, len(entries))
				for i, e := range entries {
					items[i] = picker.Item{Value: e.Version.String(), Detail: annotation(e.IsDefault, e.IsActive)}
				}
				chosen, err := picker.Pick("Use installed version", items)
				if err != nil {
					return err
				}
				sel, err := m.Use(cmd.Context(), chosen.Value, currentPath())
				if err != nil {
					return err
				}
				printSelection(cmd, sel, export)
				return nil
			}

			if len(entries) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No versions installed. Try: nodeswitch install latest")
				return nil
			}
			for _, e := range entries {
				line := "  " + e.Version.String()
				if note := annotation(e.IsDefault, e.IsActive); note != "" {
					line += "  " + note
				}
				if e.IsActive {
					line = activeMark.Render("*" + line[1:])
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	listCmd.Flags().BoolVar(&export, "export", false, "With pick, print a shell statement instead of the bin directory")
	rootCmd.AddCommand(listCmd)
}

func annotation(isDefault, isActive bool) string {
	switch {
	case isDefault && isActive:
		return defaultMark.Render("(default, active)")
	case isDefault:
		return defaultMark.Render("(default)")
	case isActive:
		return "(active)"
	}
	return ""
}
