package main

import (
	"log"
	"os"

	"github.com/phinze/swipedeck/internal/config"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "swipedeck",
	Short: "Recognize swipes on the Stream Deck touch strip",
	Long: `swipedeck runs a daemon that recognizes taps and swipes on a Stream Deck
touch strip and shows them on the gesture HUD. Gesture settings come from
` + "`~/.config/swipedeck/config.yaml`" + ` and SWIPEDECK_* environment variables.`,
	RunE:          runDaemon,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.DefaultConfigPath()+")")
	rootCmd.AddCommand(runCmd, statusCmd, setupCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the daemon (default)",
	RunE:  runDaemon,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

// loadConfig reads the --config file, or the default location.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

// resolvedConfigPath is the file setup writes and status inspects.
func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}
