package grpc

import (
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"

	"github.com/emmett/aquestalk/internal/tts"
)

// Server wraps the gRPC server and services
type Server struct {
	grpcServer *grpc.Server
	ttsEngine  tts.Engine
	host       string
	port       int
	logger     *slog.Logger
}

// Config holds server configuration
type Config struct {
	Host   string
	Port   int
	Engine tts.Config
	Logger *slog.Logger

	// EngineOptions are passed to the AquesTalk engine
	EngineOptions []tts.EngineOption
}

// NewServer creates a new gRPC server
func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Initialize TTS engine
	opts := append([]tts.EngineOption{tts.WithLogger(logger)}, cfg.EngineOptions...)
	engine := tts.NewAquesTalkEngine(opts...)
	if err := engine.Initialize(cfg.Engine); err != nil {
		return nil, fmt.Errorf("failed to initialize TTS engine: %w", err)
	}

	s := &Server{
		grpcServer: grpc.NewServer(),
		ttsEngine:  engine,
		host:       cfg.Host,
		port:       cfg.Port,
		logger:     logger,
	}

	// Register services
	RegisterTTSServer(s.grpcServer, NewTTSService(engine, logger))

	return s, nil
}

// Start starts the gRPC server
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.host, s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	return s.Serve(lis)
}

// Serve accepts connections on lis
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC server listening", "addr", lis.Addr().String())
	return s.grpcServer.Serve(lis)
}

// Stop gracefully stops the server
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
	s.ttsEngine.Close()
}
