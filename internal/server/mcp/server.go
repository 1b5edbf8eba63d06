package mcp

import (
	"context"
	"fmt"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emmett/aquestalk/internal/tts"
	"github.com/emmett/aquestalk/internal/voices"
)

type Config struct {
	ServerName    string
	ServerVersion string
	Engine        tts.Config
	Logger        *slog.Logger

	// EngineOptions are passed to the AquesTalk engine
	EngineOptions []tts.EngineOption
}

type Server struct {
	config    Config
	mcpServer *sdk.Server
	ttsEngine tts.Engine
	voices    *voices.Manager
	logger    *slog.Logger
}

func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		config: cfg,
		logger: logger,
	}

	// Initialize TTS engine
	opts := append([]tts.EngineOption{tts.WithLogger(logger)}, cfg.EngineOptions...)
	engine := tts.NewAquesTalkEngine(opts...)
	if err := engine.Initialize(cfg.Engine); err != nil {
		return nil, fmt.Errorf("failed to initialize TTS engine: %w", err)
	}
	s.ttsEngine = engine

	mgr, err := voices.NewManager(cfg.Engine.VoiceRoot)
	if err != nil {
		engine.Close()
		return nil, err
	}
	s.voices = mgr

	// Create MCP server
	s.mcpServer = sdk.NewServer(&sdk.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}, nil)

	// Register tools
	s.registerTools()

	return s, nil
}

// Start serves over stdio until ctx is done or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	return s.Run(ctx, &sdk.StdioTransport{})
}

// Run serves over t until ctx is done or the client disconnects
func (s *Server) Run(ctx context.Context, t sdk.Transport) error {
	return s.mcpServer.Run(ctx, t)
}

// Connect starts a session over t without blocking
func (s *Server) Connect(ctx context.Context, t sdk.Transport) (*sdk.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

func (s *Server) Stop() error {
	if s.ttsEngine != nil {
		return s.ttsEngine.Close()
	}
	return nil
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "synthesize",
		Description: "Synthesize Japanese phonetic text (koe) with AquesTalk and return a WAV clip",
	}, s.handleSynthesize)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "list_voices",
		Description: "List AquesTalk voice variants and whether each is installed",
	}, s.handleListVoices)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "identify_library",
		Description: "Fingerprint an AquesTalk binary and report which voice it implements",
	}, s.handleIdentifyLibrary)
}
