package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	cfgStateDir    string
	cfgToken       string
	cfgAppID       string
	cfgGuildIDs    []string
	cfgOwnerID     string
	cfgLogLevel    string
	cfgMetricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "slashd",
	Short: "Discord application-command dispatch layer",
	Long:  `slashd registers declared application commands with Discord and routes inbound interactions through a check/hook/error pipeline.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgStateDir, "state-dir", defaultStateDir(), "Directory for logs and state")
}

// defaultStateDir returns XDG_STATE_HOME/slashd or ~/.local/state/slashd.
func defaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "slashd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".slashd", "state")
	}
	return filepath.Join(home, ".local", "state", "slashd")
}
