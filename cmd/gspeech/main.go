// gspeech transcribes audio chunks with Google Speech-to-Text backends.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/satriahrh/gspeech/internal/config"
)

var (
	// Global flags
	configFile string
	backend    string
	language   string
	logLevel   string
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "gspeech",
		Short: "Google Speech-to-Text client for audio chunks",
		Long: `gspeech sends audio chunks to Google Speech-to-Text and prints the transcripts.

Backends:
  - speech_v2     legacy Speech V2 endpoint (API key)
  - cloud_rest    V1P1Beta1 REST endpoint (API key)
  - cloud_client  V1P1Beta1 client library (service account)
  - mock          local placeholder`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVarP(&backend, "backend", "b", "", "Backend to use (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&language, "language", "l", "", "Language code (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides config)")

	rootCmd.AddCommand(transcribeCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the global flags
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, err
	}

	if backend != "" {
		cfg.Backend = backend
	}
	if language != "" {
		cfg.Language = language
		cfg.Recognition.LanguageCode = ""
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	return cfg, nil
}
