package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/emmett/aquestalk/internal/config"
	"github.com/emmett/aquestalk/internal/output"
	grpcserver "github.com/emmett/aquestalk/internal/server/grpc"
	"github.com/emmett/aquestalk/internal/tts"
	"github.com/emmett/aquestalk/pkg/aquestalk"
)

// SynthesizerConfig holds one synthesis job
type SynthesizerConfig struct {
	Text  string
	Voice string

	// Speed in percent, 0 for the configured default
	Speed int

	// OutputFile receives the WAV; empty or "-" means Stdout
	OutputFile   string
	OutputFormat string

	// Server, when set, synthesizes on a remote gRPC server instead of
	// loading a library in-process
	Server string
}

// Synthesizer runs a synthesis job and writes the clip
type Synthesizer struct {
	config SynthesizerConfig
	cfg    *config.Config
	logger *slog.Logger

	// Stdout receives the WAV when no output file is given; Report receives
	// the formatted result
	Stdout io.Writer
	Report io.Writer

	// EngineOptions are passed to the in-process engine
	EngineOptions []tts.EngineOption
}

// NewSynthesizer creates a new Synthesizer
func NewSynthesizer(job SynthesizerConfig, cfg *config.Config, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		config: job,
		cfg:    cfg,
		logger: logger,
		Stdout: os.Stdout,
		Report: os.Stderr,
	}
}

// Run synthesizes the text and writes the result
func (s *Synthesizer) Run(ctx context.Context) error {
	if s.config.Text == "" {
		return fmt.Errorf("no text to synthesize")
	}

	formatter, err := output.New(s.config.OutputFormat, s.Report)
	if err != nil {
		return err
	}
	defer formatter.Close()

	req := tts.SynthesizeRequest{
		Text:  s.config.Text,
		Voice: s.config.Voice,
		Speed: float32(s.config.Speed) / 100,
	}

	var (
		wav   []byte
		voice string
	)
	if s.config.Server != "" {
		wav, voice, err = s.remote(ctx, req)
	} else {
		wav, voice, err = s.local(ctx, req)
	}
	if err != nil {
		return err
	}

	a, err := aquestalk.ParseWave(wav)
	if err != nil {
		return err
	}

	if err := s.write(wav); err != nil {
		return err
	}

	speed := s.config.Speed
	if speed == 0 {
		speed = s.cfg.Synthesis.Speed
	}
	if req.Voice != "" && voice != "" && voice != req.Voice {
		msg := fmt.Sprintf("requested %s, library fingerprint is %s", req.Voice, voice)
		if err := formatter.WriteEvent("voice_override", msg); err != nil {
			return err
		}
	}
	if voice == "" {
		voice = req.Voice
	}
	return formatter.WriteResult(output.SynthesisResult{
		Text:       s.config.Text,
		Voice:      voice,
		Speed:      speed,
		Output:     s.config.OutputFile,
		Bytes:      len(wav),
		SampleRate: a.SampleRate,
		Duration:   a.Duration,
		Timestamp:  time.Now(),
	})
}

func (s *Synthesizer) local(ctx context.Context, req tts.SynthesizeRequest) ([]byte, string, error) {
	ec, err := EngineConfig(s.cfg)
	if err != nil {
		return nil, "", err
	}

	opts := append([]tts.EngineOption{tts.WithLogger(s.logger)}, s.EngineOptions...)
	engine := tts.NewAquesTalkEngine(opts...)
	if err := engine.Initialize(ec); err != nil {
		return nil, "", fmt.Errorf("failed to initialize TTS engine: %w", err)
	}
	defer engine.Close()

	var (
		wav   []byte
		voice string
	)
	err = engine.Synthesize(ctx, req, func(chunk tts.AudioChunk) error {
		wav = append(wav, chunk.Data...)
		voice = chunk.Voice
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return wav, voice, nil
}

func (s *Synthesizer) remote(ctx context.Context, req tts.SynthesizeRequest) ([]byte, string, error) {
	client, err := grpcserver.Dial(s.config.Server)
	if err != nil {
		return nil, "", err
	}
	defer client.Close()

	s.logger.Debug("synthesizing remotely", "server", s.config.Server)
	return client.Synthesize(ctx, req)
}

func (s *Synthesizer) write(wav []byte) error {
	if s.config.OutputFile == "" || s.config.OutputFile == "-" {
		_, err := s.Stdout.Write(wav)
		return err
	}
	if err := os.WriteFile(s.config.OutputFile, wav, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
