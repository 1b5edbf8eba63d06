package aquestalk

import (
	"bytes"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
)

// Speed bounds, in percent of normal speaking rate.
const (
	MinSpeed     = 50
	MaxSpeed     = 300
	DefaultSpeed = 100
)

// Session synthesizes speech with one loaded library.
type Session struct {
	lib    Library
	voice  VoiceType
	path   string
	logger *slog.Logger

	// mu is shared by every session over the same Library; AquesTalk is
	// not documented as reentrant.
	mu *sync.Mutex
}

// libraryLocks holds one mutex per Library value. Libraries are never
// unloaded, so entries are never removed.
var libraryLocks sync.Map

// lockFor returns the mutex guarding lib. Library implementations that are
// not comparable get a private mutex.
func lockFor(lib Library) *sync.Mutex {
	if lib == nil || !reflect.TypeOf(lib).Comparable() {
		return new(sync.Mutex)
	}
	mu, _ := libraryLocks.LoadOrStore(lib, new(sync.Mutex))
	return mu.(*sync.Mutex)
}

// NewSession wraps an already opened library.
func NewSession(lib Library, voice VoiceType, path string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		lib:    lib,
		voice:  voice,
		path:   path,
		logger: logger.With("voice", string(voice)),
		mu:     lockFor(lib),
	}
}

// VoiceType returns the voice the session was loaded as.
func (s *Session) VoiceType() VoiceType {
	return s.voice
}

// Path returns the file the library was loaded from.
func (s *Session) Path() string {
	return s.path
}

// SynthesizeRaw converts a phonetic string to WAV bytes. A speed of 0
// selects DefaultSpeed.
func (s *Session) SynthesizeRaw(koe string, speed int) ([]byte, error) {
	if speed == 0 {
		speed = DefaultSpeed
	}
	if speed < MinSpeed || speed > MaxSpeed {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrSpeedOutOfRange, speed, MinSpeed, MaxSpeed)
	}

	enc, err := EncodeKoe(koe)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.synthe(enc, speed)
}

// synthe performs one foreign call. The returned slice never aliases
// foreign memory. s.mu must be held.
func (s *Session) synthe(koe []byte, speed int) ([]byte, error) {
	w, n := s.lib.Synthe(koe, speed)
	if w == nil {
		err := NewError(n)
		s.logger.Debug("synthe failed", "speed", speed, "code", err.Code, "message", err.Message)
		return nil, err
	}
	defer s.lib.FreeWave(w)

	raw := bytes.Clone(w.Bytes())
	s.logger.Debug("synthe", "speed", speed, "bytes", len(raw))
	return raw, nil
}

// Synthesize converts a phonetic string to decoded audio.
func (s *Session) Synthesize(koe string, speed int) (*Audio, error) {
	raw, err := s.SynthesizeRaw(koe, speed)
	if err != nil {
		return nil, err
	}
	return ParseWave(raw)
}
