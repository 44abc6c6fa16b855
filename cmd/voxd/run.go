package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/voxd/internal/daemon"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the daemon in the foreground",
	Long: `Run the voxd daemon in the foreground, attached to the terminal.

The daemon listens for the configured hotkey and exits on SIGINT or
SIGTERM. Use "voxd start" to launch it in the background instead.`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mgr := daemon.New(cfg, globalOpts.configPath, logger)
	if err := mgr.Run(ctx); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			fmt.Fprintf(os.Stderr, "voxd: %v\n", err)
			os.Exit(1)
		}
		return err
	}
	return nil
}
