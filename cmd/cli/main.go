package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/emmett/aquestalk/internal/config"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	configFile string
	voiceRoot  string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "aquestalk",
	Short: "AquesTalk speech synthesis",
	Long: `aquestalk synthesizes Japanese phonetic text with the AquesTalk
voice libraries and manages the per-voice library layout.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadWithFallback(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
			cfg = config.DefaultConfig()
		}
		if voiceRoot != "" {
			cfg.Voice.Root = voiceRoot
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}

		logger, err = cfg.NewLogger(os.Stderr)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration file (default: ~/.aquestalkrc or /etc/aquestalk/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&voiceRoot, "root", "", "Voice library root (default: $AQUESTALK_ROOT or the executable's directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(synthCmd)
	rootCmd.AddCommand(voicesCmd)
	rootCmd.AddCommand(installedCmd)
	rootCmd.AddCommand(identifyCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(setDefaultCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
