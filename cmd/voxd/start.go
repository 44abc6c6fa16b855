package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/voxd/internal/daemon"
)

var startOpts struct {
	background bool
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon",
	Long: `Start the voxd daemon.

By default the daemon runs attached to the terminal, like "voxd run".
With --background it detaches; the command returns once the daemon has
claimed its instance marker and is ready for hotkey input.`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().BoolVar(&startOpts.background, "background", false,
		"Detach and run in the background")
}

func runStart(cmd *cobra.Command, args []string) error {
	if !startOpts.background {
		return runDaemon(cmd, args)
	}

	mgr := daemon.New(cfg, globalOpts.configPath, logger)

	pid, err := mgr.StartBackground()
	if err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			fmt.Fprintf(os.Stderr, "voxd: %v\n", err)
			os.Exit(1)
		}
		return err
	}

	fmt.Printf("voxd started (pid %d)\n", pid)
	return nil
}
