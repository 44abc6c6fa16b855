package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/voxd/internal/daemon"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the daemon is running",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	mgr := daemon.New(cfg, globalOpts.configPath, logger)

	s, err := mgr.Status()
	if err != nil {
		return err
	}

	if !s.Running {
		fmt.Println("voxd is not running")
		return nil
	}

	if s.Uptime != "" {
		fmt.Printf("voxd is running (pid %d, started %s)\n", s.PID, s.Uptime)
	} else {
		fmt.Printf("voxd is running (pid %d)\n", s.PID)
	}
	return nil
}
