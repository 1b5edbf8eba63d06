package tts

import (
	"context"
	"time"
)

// Engine defines the interface for text-to-speech engines
type Engine interface {
	// Initialize sets up the TTS engine with the given config
	Initialize(config Config) error

	// Synthesize converts text to audio, streaming chunks via callback
	Synthesize(ctx context.Context, req SynthesizeRequest, callback AudioCallback) error

	// ListVoices returns available voices
	ListVoices() []Voice

	// DefaultVoice returns the voice used when a request names none
	DefaultVoice() string

	// Close releases resources
	Close() error

	// IsInitialized returns true if engine is ready
	IsInitialized() bool
}

// Config holds TTS engine configuration
type Config struct {
	// VoiceRoot is the directory holding one subdirectory per voice
	VoiceRoot string

	// DefaultVoice is used when a request names no voice
	DefaultVoice string

	// Verify fingerprints libraries on load and trusts the fingerprint
	Verify bool

	// DefaultSpeed is the speaking rate in percent when a request gives none
	DefaultSpeed int

	// CacheDir enables the wave cache when non-empty
	CacheDir string

	// CacheTTL expires cached waves; zero keeps them
	CacheTTL time.Duration
}

// SynthesizeRequest contains text-to-speech parameters
type SynthesizeRequest struct {
	Text  string
	Voice string
	Speed float32 // 1.0 = normal, 0.5 = half speed, 2.0 = double
}

// AudioChunk represents a chunk of synthesized audio
type AudioChunk struct {
	// Data is a complete WAV container
	Data       []byte
	SampleRate int
	Channels   int
	BitDepth   int

	// Voice is the variant that produced the audio. It differs from the
	// requested voice when fingerprint verification overrode it.
	Voice string
}

// AudioCallback is called for each audio chunk during synthesis
type AudioCallback func(chunk AudioChunk) error

// Voice represents an available TTS voice
type Voice struct {
	ID        string
	Name      string
	Language  string
	Gender    string
	Installed bool
}

// DefaultConfig returns default TTS configuration
func DefaultConfig(voiceRoot string) Config {
	return Config{
		VoiceRoot:    voiceRoot,
		DefaultVoice: "f1",
		Verify:       true,
		DefaultSpeed: 100,
	}
}
