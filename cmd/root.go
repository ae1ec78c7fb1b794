package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kira1928/nodeswitch"
	"github.com/kira1928/nodeswitch/pkg/manager"
	"github.com/kira1928/nodeswitch/pkg/shellhook"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:     "nodeswitch",
	Short:   "Install and switch between Node.js versions",
	Version: nodeswitch.Version,
	Long: `nodeswitch installs Node.js releases under a single root directory and switches
between them per shell, per project (.nvmrc / .node-version) or by default link.

Run "nodeswitch init" once to install the shell hook.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetFlags(0)
		log.SetPrefix("nodeswitch: ")
		if verbose {
			log.SetOutput(os.Stderr)
		} else {
			log.SetOutput(io.Discard)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func getManager() (*manager.Manager, error) {
	return nodeswitch.Get()
}

// printSelection 默认输出 bin 目录；--export 时输出供 shell eval 的语句
func printSelection(cmd *cobra.Command, sel manager.Selection, export bool) {
	if export {
		fmt.Fprintln(cmd.OutOrStdout(), shellhook.ExportPath(sel.Path))
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), sel.BinDir)
}
