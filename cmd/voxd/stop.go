package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/voxd/internal/daemon"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	mgr := daemon.New(cfg, globalOpts.configPath, logger)

	if err := mgr.Stop(); err != nil {
		if errors.Is(err, daemon.ErrNotRunning) {
			fmt.Fprintln(os.Stderr, "voxd: daemon is not running")
			os.Exit(1)
		}
		return err
	}

	fmt.Println("voxd stopped")
	return nil
}
