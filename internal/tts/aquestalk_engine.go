package tts

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/emmett/aquestalk/internal/cache"
	"github.com/emmett/aquestalk/internal/voices"
	"github.com/emmett/aquestalk/pkg/aquestalk"
)

// SessionLoader opens a synthesis session for a voice. *aquestalk.Loader
// implements it.
type SessionLoader interface {
	Load(voice aquestalk.VoiceType, verify bool) (*aquestalk.Session, error)
}

// EngineOption configures an AquesTalkEngine
type EngineOption func(*AquesTalkEngine)

// WithLoader replaces the loader built from Config.VoiceRoot
func WithLoader(l SessionLoader) EngineOption {
	return func(e *AquesTalkEngine) { e.loader = l }
}

// WithCache sets the wave cache. The engine does not close it.
func WithCache(c *cache.Store) EngineOption {
	return func(e *AquesTalkEngine) { e.cache = c }
}

// WithLogger sets the engine logger
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *AquesTalkEngine) { e.logger = l }
}

// AquesTalkEngine implements the Engine interface on top of the AquesTalk
// binding. One session is loaded per voice, on first use.
type AquesTalkEngine struct {
	config      Config
	mu          sync.Mutex
	initialized bool
	loader      SessionLoader
	sessions    map[aquestalk.VoiceType]*aquestalk.Session
	cache       *cache.Store
	ownsCache   bool
	logger      *slog.Logger
}

// NewAquesTalkEngine creates a new AquesTalk TTS engine
func NewAquesTalkEngine(opts ...EngineOption) *AquesTalkEngine {
	e := &AquesTalkEngine{
		sessions: make(map[aquestalk.VoiceType]*aquestalk.Session),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Initialize sets up the engine
func (e *AquesTalkEngine) Initialize(config Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return fmt.Errorf("engine already initialized")
	}

	if config.DefaultVoice != "" {
		if _, err := aquestalk.ParseVoiceType(config.DefaultVoice); err != nil {
			return fmt.Errorf("invalid default voice: %w", err)
		}
	}
	if config.DefaultSpeed == 0 {
		config.DefaultSpeed = aquestalk.DefaultSpeed
	}

	if e.loader == nil {
		e.loader = &aquestalk.Loader{Root: config.VoiceRoot, Logger: e.logger}
	}
	if e.cache == nil && config.CacheDir != "" {
		store, err := cache.Open(cache.Options{Dir: config.CacheDir, TTL: config.CacheTTL, Logger: e.logger})
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		e.cache = store
		e.ownsCache = true
	}

	e.config = config
	e.initialized = true
	return nil
}

// Synthesize converts text to a single WAV chunk
func (e *AquesTalkEngine) Synthesize(ctx context.Context, req SynthesizeRequest, callback AudioCallback) error {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return fmt.Errorf("engine not initialized")
	}
	config, store := e.config, e.cache
	e.mu.Unlock()

	// A foreign call cannot be interrupted, so only check before starting it.
	if err := ctx.Err(); err != nil {
		return err
	}

	name := req.Voice
	if name == "" {
		name = config.DefaultVoice
	}
	voice, err := aquestalk.ParseVoiceType(name)
	if err != nil {
		return err
	}
	speed, err := speedPercent(req.Speed, config.DefaultSpeed)
	if err != nil {
		return err
	}

	// With verification on, the loaded library may be a different voice than
	// the one asked for, so the cache is keyed by the session's voice.
	session, err := e.session(voice)
	if err != nil {
		return err
	}
	voice = session.VoiceType()

	var key []byte
	if store != nil {
		key = cache.Key(string(voice), speed, req.Text)
		raw, ok, err := store.Get(key)
		if err != nil {
			e.logger.Warn("cache lookup failed", "error", err)
		} else if ok {
			a, err := aquestalk.ParseWave(raw)
			if err == nil {
				e.logger.Debug("cache hit", "voice", string(voice), "speed", speed)
				return callback(chunkFromAudio(a, voice))
			}
			e.logger.Warn("discarding corrupt cache entry", "error", err)
		}
	}

	a, err := session.Synthesize(req.Text, speed)
	if err != nil {
		return err
	}

	if key != nil {
		if err := store.Set(key, a.Raw); err != nil {
			e.logger.Warn("cache store failed", "error", err)
		}
	}
	return callback(chunkFromAudio(a, voice))
}

// session returns the loaded session for voice, loading it if needed
func (e *AquesTalkEngine) session(voice aquestalk.VoiceType) (*aquestalk.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s, ok := e.sessions[voice]; ok {
		return s, nil
	}
	s, err := e.loader.Load(voice, e.config.Verify)
	if err != nil {
		return nil, fmt.Errorf("failed to load voice %s: %w", voice, err)
	}
	e.sessions[voice] = s
	return s, nil
}

// speedPercent converts a rate multiplier to AquesTalk's percent scale. Only
// an exact 0 selects the fallback.
func speedPercent(speed float32, fallback int) (int, error) {
	if speed == 0 {
		return fallback, nil
	}
	f := math.Round(float64(speed) * 100)
	if !(f >= aquestalk.MinSpeed && f <= aquestalk.MaxSpeed) {
		return 0, fmt.Errorf("%w: rate %v is %v%%, want %d-%d%%", aquestalk.ErrSpeedOutOfRange, speed, f, aquestalk.MinSpeed, aquestalk.MaxSpeed)
	}
	return int(f), nil
}

func chunkFromAudio(a *aquestalk.Audio, voice aquestalk.VoiceType) AudioChunk {
	return AudioChunk{
		Data:       a.Raw,
		SampleRate: a.SampleRate,
		Channels:   a.Channels,
		BitDepth:   a.BitDepth,
		Voice:      string(voice),
	}
}

// ListVoices returns all voice variants, marking those installed under the root
func (e *AquesTalkEngine) ListVoices() []Voice {
	e.mu.Lock()
	root := e.config.VoiceRoot
	e.mu.Unlock()

	var mgr *voices.Manager
	if m, err := voices.NewManager(root); err == nil {
		mgr = m
	}

	out := make([]Voice, 0, len(voices.Available))
	for _, v := range voices.Available {
		installed := false
		if mgr != nil {
			installed, _ = mgr.IsInstalled(v.Type)
		}
		out = append(out, Voice{
			ID:        string(v.Type),
			Name:      v.Name,
			Language:  "ja-JP",
			Gender:    v.Gender,
			Installed: installed,
		})
	}
	return out
}

// DefaultVoice returns the configured default voice
func (e *AquesTalkEngine) DefaultVoice() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config.DefaultVoice
}

// Close releases resources. Loaded libraries stay mapped for the life of the
// process.
func (e *AquesTalkEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil
	}

	var err error
	if e.ownsCache && e.cache != nil {
		err = e.cache.Close()
		e.cache = nil
	}
	e.sessions = make(map[aquestalk.VoiceType]*aquestalk.Session)
	e.initialized = false
	return err
}

// IsInitialized returns true if engine is ready
func (e *AquesTalkEngine) IsInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}
