// Package aquestalktest provides an in-process stand-in for an AquesTalk
// binary, for tests that must not depend on the proprietary library.
package aquestalktest

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/emmett/aquestalk/pkg/aquestalk"
)

// Library implements aquestalk.Library in Go memory. It tracks every buffer
// it hands out so tests can check release discipline.
type Library struct {
	// Wave is returned (as a fresh copy) by every successful call.
	Wave []byte

	// Code, when non-zero, makes Synthe fail with that vendor error code.
	Code int

	// Hook, if set, runs at the start of every Synthe call.
	Hook func(koe []byte, speed int)

	mu          sync.Mutex
	calls       int
	frees       int
	doubleFrees int
	live        map[*wave]bool
	lastKoe     []byte
	lastSpeed   int
}

// New returns a Library that answers every call with wav.
func New(wav []byte) *Library {
	return &Library{Wave: wav}
}

// Failing returns a Library that fails every call with code.
func Failing(code int) *Library {
	return &Library{Code: code}
}

type wave struct {
	data []byte
}

func (w *wave) Bytes() []byte { return w.data }

func (l *Library) Synthe(koe []byte, speed int) (aquestalk.Wave, int) {
	if l.Hook != nil {
		l.Hook(koe, speed)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.lastKoe = bytes.Clone(koe)
	l.lastSpeed = speed

	if l.Code != 0 {
		return nil, l.Code
	}
	w := &wave{data: bytes.Clone(l.Wave)}
	if l.live == nil {
		l.live = make(map[*wave]bool)
	}
	l.live[w] = true
	return w, len(w.data)
}

// FreeWave releases a buffer. The buffer's bytes are overwritten so that a
// caller still holding the view would observe garbage.
func (l *Library) FreeWave(aw aquestalk.Wave) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := aw.(*wave)
	if !ok || !l.live[w] {
		l.doubleFrees++
		return
	}
	delete(l.live, w)
	l.frees++
	for i := range w.data {
		w.data[i] = 0xff
	}
}

// Calls returns the number of Synthe calls.
func (l *Library) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// Frees returns the number of successful FreeWave calls.
func (l *Library) Frees() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frees
}

// DoubleFrees counts FreeWave calls on buffers that were not live.
func (l *Library) DoubleFrees() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doubleFrees
}

// Outstanding returns the number of buffers handed out and not freed.
func (l *Library) Outstanding() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.live)
}

// LastCall returns the arguments of the most recent Synthe call.
func (l *Library) LastCall() (koe []byte, speed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return bytes.Clone(l.lastKoe), l.lastSpeed
}

// Opener returns a Loader.Open function that hands out lib for any path.
func Opener(lib aquestalk.Library) func(string) (aquestalk.Library, error) {
	return func(string) (aquestalk.Library, error) {
		return lib, nil
	}
}

// Wave encodes mono 16-bit PCM samples as a WAV container, in the format
// AquesTalk produces.
func Wave(samples []int, sampleRate int) ([]byte, error) {
	f, err := os.CreateTemp("", "aquestalktest-*.wav")
	if err != nil {
		return nil, err
	}
	defer os.Remove(f.Name())
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("encode wave: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode wave: %w", err)
	}
	return os.ReadFile(f.Name())
}

// Tone returns n samples of a square wave, enough to make a non-trivial WAV.
func Tone(n int) []int {
	s := make([]int, n)
	for i := range s {
		if (i/8)%2 == 0 {
			s[i] = 8000
		} else {
			s[i] = -8000
		}
	}
	return s
}
