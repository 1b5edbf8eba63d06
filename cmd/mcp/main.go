package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/emmett/aquestalk/internal/app"
	"github.com/emmett/aquestalk/internal/config"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file (default: ~/.aquestalkrc or /etc/aquestalk/config.yaml)")
	voiceRoot   = flag.String("root", "", "Voice library root (default: $AQUESTALK_ROOT or the executable's directory)")
	voiceName   = flag.String("voice", "", "Default voice (default: from config, f1)")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("AquesTalk MCP v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Branch:  %s\n", GitBranch)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	cfg, err := config.LoadWithFallback(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
		cfg = config.DefaultConfig()
	}
	if *voiceRoot != "" {
		cfg.Voice.Root = *voiceRoot
	}
	if *voiceName != "" {
		cfg.Voice.Default = *voiceName
	}

	// stdout carries the protocol, so logs go to stderr
	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	handler := app.NewMCPHandler(cfg, logger, Version, GitCommit)
	if err := handler.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}
