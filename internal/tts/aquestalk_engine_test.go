package tts

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/emmett/aquestalk/internal/cache"
	"github.com/emmett/aquestalk/pkg/aquestalk"
	"github.com/emmett/aquestalk/pkg/aquestalk/aquestalktest"
)

type fakeLoader struct {
	mu    sync.Mutex
	libs  map[aquestalk.VoiceType]*aquestalktest.Library
	loads map[aquestalk.VoiceType]int
}

func newFakeLoader(t *testing.T, vs ...aquestalk.VoiceType) *fakeLoader {
	t.Helper()
	wav, err := aquestalktest.Wave(aquestalktest.Tone(400), 8000)
	if err != nil {
		t.Fatal(err)
	}
	l := &fakeLoader{
		libs:  make(map[aquestalk.VoiceType]*aquestalktest.Library),
		loads: make(map[aquestalk.VoiceType]int),
	}
	for _, v := range vs {
		l.libs[v] = aquestalktest.New(wav)
	}
	return l
}

func (l *fakeLoader) Load(v aquestalk.VoiceType, verify bool) (*aquestalk.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lib, ok := l.libs[v]
	if !ok {
		return nil, &aquestalk.LoadError{Path: string(v), Op: "open", Err: os.ErrNotExist}
	}
	l.loads[v]++
	return aquestalk.NewSession(lib, v, string(v), nil), nil
}

func newEngine(t *testing.T, loader SessionLoader, opts ...EngineOption) *AquesTalkEngine {
	t.Helper()
	e := NewAquesTalkEngine(append([]EngineOption{WithLoader(loader)}, opts...)...)
	if err := e.Initialize(DefaultConfig(t.TempDir())); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func collect(t *testing.T, e Engine, req SynthesizeRequest) []AudioChunk {
	t.Helper()
	var chunks []AudioChunk
	err := e.Synthesize(context.Background(), req, func(c AudioChunk) error {
		chunks = append(chunks, c)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return chunks
}

func TestEngineSynthesize(t *testing.T) {
	loader := newFakeLoader(t, aquestalk.F1, aquestalk.M1)
	e := newEngine(t, loader)

	chunks := collect(t, e, SynthesizeRequest{Text: "a", Voice: "m1", Speed: 1.5})
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d, want 1", len(chunks))
	}
	c := chunks[0]
	if !bytes.HasPrefix(c.Data, []byte("RIFF")) {
		t.Error("chunk is not a WAV container")
	}
	if c.SampleRate != 8000 || c.Channels != 1 || c.BitDepth != 16 {
		t.Errorf("format = %+v", c)
	}
	if c.Voice != "m1" {
		t.Errorf("Voice = %q, want m1", c.Voice)
	}
	if _, speed := loader.libs[aquestalk.M1].LastCall(); speed != 150 {
		t.Errorf("speed = %d, want 150", speed)
	}
}

func TestEngineDefaultVoiceAndSpeed(t *testing.T) {
	loader := newFakeLoader(t, aquestalk.F1)
	e := newEngine(t, loader)

	collect(t, e, SynthesizeRequest{Text: "a"})
	if _, speed := loader.libs[aquestalk.F1].LastCall(); speed != 100 {
		t.Errorf("speed = %d, want 100", speed)
	}
}

func TestEngineLoadsEachVoiceOnce(t *testing.T) {
	loader := newFakeLoader(t, aquestalk.F1, aquestalk.F2)
	e := newEngine(t, loader)

	for i := 0; i < 3; i++ {
		collect(t, e, SynthesizeRequest{Text: "a", Voice: "f1"})
		collect(t, e, SynthesizeRequest{Text: "a", Voice: "f2"})
	}
	if loader.loads[aquestalk.F1] != 1 || loader.loads[aquestalk.F2] != 1 {
		t.Errorf("loads = %v", loader.loads)
	}
}

func TestEngineCacheHitSkipsForeignCall(t *testing.T) {
	store, err := cache.Open(cache.Options{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	loader := newFakeLoader(t, aquestalk.F1)
	e := newEngine(t, loader, WithCache(store))

	first := collect(t, e, SynthesizeRequest{Text: "a", Voice: "f1"})
	second := collect(t, e, SynthesizeRequest{Text: "a", Voice: "f1"})

	if calls := loader.libs[aquestalk.F1].Calls(); calls != 1 {
		t.Errorf("foreign calls = %d, want 1", calls)
	}
	if !bytes.Equal(first[0].Data, second[0].Data) {
		t.Error("cached wave differs")
	}

	collect(t, e, SynthesizeRequest{Text: "b", Voice: "f1"})
	if calls := loader.libs[aquestalk.F1].Calls(); calls != 2 {
		t.Errorf("foreign calls = %d, want 2", calls)
	}
}

func TestEngineErrors(t *testing.T) {
	loader := newFakeLoader(t, aquestalk.F1)
	loader.libs[aquestalk.F2] = aquestalktest.Failing(111)
	e := newEngine(t, loader)
	noop := func(AudioChunk) error { return nil }
	ctx := context.Background()

	if err := e.Synthesize(ctx, SynthesizeRequest{Text: "a", Voice: "x9"}, noop); !errors.Is(err, aquestalk.ErrUnknownVoice) {
		t.Errorf("unknown voice: err = %v", err)
	}

	var loadErr *aquestalk.LoadError
	if err := e.Synthesize(ctx, SynthesizeRequest{Text: "a", Voice: "m2"}, noop); !errors.As(err, &loadErr) {
		t.Errorf("missing voice: err = %v", err)
	}

	var synErr *aquestalk.Error
	if err := e.Synthesize(ctx, SynthesizeRequest{Text: "a", Voice: "f2"}, noop); !errors.As(err, &synErr) || synErr.Code != 111 {
		t.Errorf("foreign failure: err = %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := e.Synthesize(cancelled, SynthesizeRequest{Text: "a"}, noop); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: err = %v", err)
	}
	if calls := loader.libs[aquestalk.F1].Calls(); calls != 0 {
		t.Errorf("foreign calls = %d, want 0", calls)
	}
}

func TestEngineCallbackError(t *testing.T) {
	e := newEngine(t, newFakeLoader(t, aquestalk.F1))
	want := errors.New("client gone")
	err := e.Synthesize(context.Background(), SynthesizeRequest{Text: "a"}, func(AudioChunk) error { return want })
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}

func TestEngineLifecycle(t *testing.T) {
	e := NewAquesTalkEngine(WithLoader(newFakeLoader(t)))
	if e.IsInitialized() {
		t.Error("initialized before Initialize")
	}
	err := e.Synthesize(context.Background(), SynthesizeRequest{Text: "a"}, func(AudioChunk) error { return nil })
	if err == nil {
		t.Error("expected error before Initialize")
	}

	if err := e.Initialize(DefaultConfig("")); err != nil {
		t.Fatal(err)
	}
	if err := e.Initialize(DefaultConfig("")); err == nil {
		t.Error("second Initialize should fail")
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if e.IsInitialized() {
		t.Error("initialized after Close")
	}
}

func TestEngineRejectsBadDefaultVoice(t *testing.T) {
	e := NewAquesTalkEngine()
	cfg := DefaultConfig("")
	cfg.DefaultVoice = "nope"
	if err := e.Initialize(cfg); err == nil {
		t.Error("expected error for invalid default voice")
	}
}

func TestListVoices(t *testing.T) {
	root := t.TempDir()
	lib := aquestalk.LibraryPath(root, aquestalk.R1)
	if err := os.MkdirAll(filepath.Dir(lib), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(lib, []byte("r1"), 0644); err != nil {
		t.Fatal(err)
	}

	e := NewAquesTalkEngine(WithLoader(newFakeLoader(t)))
	if err := e.Initialize(DefaultConfig(root)); err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	vs := e.ListVoices()
	if len(vs) != 8 {
		t.Fatalf("voices = %d, want 8", len(vs))
	}
	for _, v := range vs {
		if want := v.ID == "r1"; v.Installed != want {
			t.Errorf("%s installed = %v, want %v", v.ID, v.Installed, want)
		}
		if v.Language != "ja-JP" {
			t.Errorf("%s language = %q", v.ID, v.Language)
		}
	}
	if e.DefaultVoice() != "f1" {
		t.Errorf("DefaultVoice() = %q", e.DefaultVoice())
	}
}

func TestSpeedPercent(t *testing.T) {
	tests := []struct {
		in      float32
		want    int
		wantErr bool
	}{
		{in: 0, want: 100},
		{in: 1, want: 100},
		{in: 0.5, want: 50},
		{in: 2.25, want: 225},
		{in: 3, want: 300},
		{in: -1, wantErr: true},
		{in: -0.5, wantErr: true},
		{in: 0.004, wantErr: true},
		{in: 0.49, wantErr: true},
		{in: 3.01, wantErr: true},
		{in: float32(math.NaN()), wantErr: true},
		{in: float32(math.Inf(1)), wantErr: true},
	}
	for _, tt := range tests {
		got, err := speedPercent(tt.in, 100)
		if tt.wantErr {
			if !errors.Is(err, aquestalk.ErrSpeedOutOfRange) {
				t.Errorf("speedPercent(%v) err = %v, want ErrSpeedOutOfRange", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("speedPercent(%v): %v", tt.in, err)
		} else if got != tt.want {
			t.Errorf("speedPercent(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestEngineRejectsBadSpeed(t *testing.T) {
	store, err := cache.Open(cache.Options{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	loader := newFakeLoader(t, aquestalk.F1)
	e := newEngine(t, loader, WithCache(store))
	noop := func(AudioChunk) error { return nil }

	for _, speed := range []float32{-0.5, -5, 0.004} {
		err := e.Synthesize(context.Background(), SynthesizeRequest{Text: "a", Speed: speed}, noop)
		if !errors.Is(err, aquestalk.ErrSpeedOutOfRange) {
			t.Errorf("speed %v: err = %v, want ErrSpeedOutOfRange", speed, err)
		}
	}
	if calls := loader.libs[aquestalk.F1].Calls(); calls != 0 {
		t.Errorf("foreign calls = %d, want 0", calls)
	}
}

// overridingLoader loads every voice as the voice named by its fingerprint,
// the way a verifying Loader does when a binary is mislabelled.
type overridingLoader struct {
	*fakeLoader
	as aquestalk.VoiceType
}

func (l overridingLoader) Load(v aquestalk.VoiceType, verify bool) (*aquestalk.Session, error) {
	s, err := l.fakeLoader.Load(v, verify)
	if err != nil {
		return nil, err
	}
	return aquestalk.NewSession(l.libs[v], l.as, s.Path(), nil), nil
}

func TestEngineReportsResolvedVoice(t *testing.T) {
	store, err := cache.Open(cache.Options{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	loader := overridingLoader{fakeLoader: newFakeLoader(t, aquestalk.F1), as: aquestalk.F2}
	e := newEngine(t, loader, WithCache(store))

	chunks := collect(t, e, SynthesizeRequest{Text: "a", Voice: "f1"})
	if chunks[0].Voice != "f2" {
		t.Errorf("Voice = %q, want f2", chunks[0].Voice)
	}

	// The cached wave is filed under the voice that produced it.
	if _, ok, err := store.Get(cache.Key("f2", 100, "a")); err != nil || !ok {
		t.Errorf("no cache entry under f2 (ok=%v, err=%v)", ok, err)
	}
	if _, ok, _ := store.Get(cache.Key("f1", 100, "a")); ok {
		t.Error("cache entry filed under the requested voice")
	}

	chunks = collect(t, e, SynthesizeRequest{Text: "a", Voice: "f1"})
	if chunks[0].Voice != "f2" {
		t.Errorf("cached Voice = %q, want f2", chunks[0].Voice)
	}
	if calls := loader.libs[aquestalk.F1].Calls(); calls != 1 {
		t.Errorf("foreign calls = %d, want 1", calls)
	}
}
