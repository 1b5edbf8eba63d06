package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/emmett/aquestalk/internal/app"
	"github.com/emmett/aquestalk/internal/config"
	grpcserver "github.com/emmett/aquestalk/internal/server/grpc"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file (default: ~/.aquestalkrc or /etc/aquestalk/config.yaml)")
	host        = flag.String("host", "", "Listen host (default: from config, localhost)")
	port        = flag.Int("port", 0, "gRPC server port (default: from config, 50051)")
	voiceRoot   = flag.String("root", "", "Voice library root (default: $AQUESTALK_ROOT or the executable's directory)")
	voiceName   = flag.String("voice", "", "Default voice (default: from config, f1)")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("AquesTalk gRPC Server v%s\n", Version)
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
	applyFlags(cfg)

	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("starting AquesTalk gRPC server", "version", Version, "commit", GitCommit)

	engineCfg, err := app.EngineConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("voice library", "root", engineCfg.VoiceRoot, "default", engineCfg.DefaultVoice, "verify", engineCfg.Verify)

	server, err := grpcserver.NewServer(grpcserver.Config{
		Host:   cfg.Server.Host,
		Port:   cfg.Server.Port,
		Engine: engineCfg,
		Logger: logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutting down")
		server.Stop()
		os.Exit(0)
	}()

	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func applyFlags(cfg *config.Config) {
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *voiceRoot != "" {
		cfg.Voice.Root = *voiceRoot
	}
	if *voiceName != "" {
		cfg.Voice.Default = *voiceName
	}
}
