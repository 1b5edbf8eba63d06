package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/emmett/aquestalk/internal/config"
	"github.com/emmett/aquestalk/internal/server/mcp"
)

// MCPHandler handles MCP server operations
type MCPHandler struct {
	config    *config.Config
	logger    *slog.Logger
	version   string
	gitCommit string
}

// NewMCPHandler creates a new MCP handler
func NewMCPHandler(cfg *config.Config, logger *slog.Logger, version, gitCommit string) *MCPHandler {
	return &MCPHandler{
		config:    cfg,
		logger:    logger,
		version:   version,
		gitCommit: gitCommit,
	}
}

// Run starts the MCP server on stdio. All diagnostics go to stderr.
func (h *MCPHandler) Run() error {
	fmt.Fprintf(os.Stderr, "Starting MCP server...\n")
	fmt.Fprintf(os.Stderr, "Protocol: Model Context Protocol (stdio transport)\n")
	fmt.Fprintf(os.Stderr, "Version: %s (commit: %s)\n\n", h.version, h.gitCommit)

	ec, err := EngineConfig(h.config)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Voice root: %s\n", ec.VoiceRoot)
	fmt.Fprintf(os.Stderr, "Default voice: %s\n\n", ec.DefaultVoice)

	execPath, err := os.Executable()
	if err != nil {
		execPath = "./build/aquestalk-mcp"
	}

	// Print MCP client configuration
	type MCPServerConfig struct {
		Command string            `json:"command"`
		Args    []string          `json:"args"`
		Env     map[string]string `json:"env,omitempty"`
	}
	type MCPClientConfig struct {
		MCPServers map[string]MCPServerConfig `json:"mcpServers"`
	}

	clientConfig := MCPClientConfig{
		MCPServers: map[string]MCPServerConfig{
			"aquestalk": {
				Command: execPath,
				Args:    []string{},
				Env:     map[string]string{"AQUESTALK_ROOT": ec.VoiceRoot},
			},
		},
	}
	if configJSON, err := json.MarshalIndent(clientConfig, "", "  "); err == nil {
		fmt.Fprintf(os.Stderr, "MCP Client Configuration:\n%s\n\n", string(configJSON))
	}

	server, err := mcp.NewServer(mcp.Config{
		ServerName:    "aquestalk-mcp",
		ServerVersion: h.version,
		Engine:        ec,
		Logger:        h.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "MCP server ready. Listening on stdin/stdout...\n")
	if err := server.Start(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
