// Package main runs the tokimonster agent: the X/Twitter interaction poller,
// the DEPLOY_TOKEN action and the operator HTTP endpoints.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose       bool
	characterPath string
	logger        *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "agent",
	Short: "tokimonster X/Twitter agent",
	Long: `agent polls X/Twitter for mentions and posts by target users, decides
whether to answer, replies in character, and deploys tokens on Aptos when a
reply requests it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&characterPath, "character", "c",
		envOr("CHARACTER_PATH", "characters/tokimonster.yaml"), "Path to the character YAML file")

	rootCmd.AddCommand(runCmd, checkCmd, reportCmd)
}

func main() {
	// A missing .env is fine; the process environment is used as is.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
