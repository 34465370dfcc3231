/*
Package main is the entry point of WhatsGram.

The root command runs the terminal messaging client. The devserver subcommand runs the
in-memory development backend the client can talk to locally.
*/
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"whatsgram/internal/configs"
)

var rootCmd = &cobra.Command{
	Use:           "whatsgram",
	Short:         "Terminal messaging client",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runClient,
}

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run the in-memory development backend",
	RunE:  runDevServer,
}

var (
	flagEnvironment  string
	flagAPIBaseURL   string
	flagPresenceURL  string
	flagDataDir      string
	flagPollInterval time.Duration
	flagPort         int
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagEnvironment, "env", "", "environment: development or production (env ENVIRONMENT)")
	flags.StringVar(&flagAPIBaseURL, "api", "", "backend base URL (env API_BASE_URL)")
	flags.StringVar(&flagPresenceURL, "presence", "", "presence websocket URL, derived from --api when empty (env PRESENCE_URL)")
	flags.StringVar(&flagDataDir, "data-dir", "", "directory for local storage and logs (env DATA_DIR)")
	flags.DurationVar(&flagPollInterval, "poll-interval", 0, "message refresh interval (env POLL_INTERVAL)")

	devserverCmd.Flags().IntVar(&flagPort, "port", 0, "listen port (env PORT)")

	rootCmd.AddCommand(devserverCmd)
}

// loadConfig reads the layered configuration and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*configs.AppConfig, error) {
	cfg, err := configs.LoadConfig()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("env") {
		cfg.Environment = flagEnvironment
	}
	if flags.Changed("api") {
		cfg.APIBaseURL = flagAPIBaseURL
		if !flags.Changed("presence") {
			cfg.PresenceURL = ""
		}
	}
	if flags.Changed("presence") {
		cfg.PresenceURL = flagPresenceURL
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = flagDataDir
	}
	if flags.Changed("poll-interval") {
		cfg.PollInterval = flagPollInterval
	}
	if flags.Changed("port") {
		cfg.Port = flagPort
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}
