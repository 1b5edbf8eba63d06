package aquestalk_test

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/emmett/aquestalk/pkg/aquestalk"
	"github.com/emmett/aquestalk/pkg/aquestalk/aquestalktest"
)

// writeLibrary writes a fake binary and returns its path and MD5.
func writeLibrary(t *testing.T, dir string, content string) (string, string) {
	t.Helper()
	path := filepath.Join(dir, aquestalk.LibraryFileName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	sum := md5.Sum([]byte(content))
	return path, hex.EncodeToString(sum[:])
}

func TestLoadFromPathVerifyOverridesDeclaredVoice(t *testing.T) {
	path, sum := writeLibrary(t, t.TempDir(), "f1 binary")
	l := &aquestalk.Loader{
		Open:         aquestalktest.Opener(aquestalktest.New(nil)),
		Fingerprints: map[string]aquestalk.VoiceType{sum: aquestalk.F1},
	}

	s, err := l.LoadFromPath(path, aquestalk.F2, true)
	if err != nil {
		t.Fatal(err)
	}
	if s.VoiceType() != aquestalk.F1 {
		t.Errorf("VoiceType() = %v, want f1", s.VoiceType())
	}
}

func TestLoadFromPathVerifyUnknownFingerprintKeepsHint(t *testing.T) {
	path, _ := writeLibrary(t, t.TempDir(), "unregistered binary")
	l := &aquestalk.Loader{
		Open:         aquestalktest.Opener(aquestalktest.New(nil)),
		Fingerprints: map[string]aquestalk.VoiceType{},
	}

	s, err := l.LoadFromPath(path, aquestalk.F2, true)
	if err != nil {
		t.Fatal(err)
	}
	if s.VoiceType() != aquestalk.F2 {
		t.Errorf("VoiceType() = %v, want f2", s.VoiceType())
	}
}

func TestLoadFromPathWithoutVerifyTrustsHint(t *testing.T) {
	path, sum := writeLibrary(t, t.TempDir(), "f1 binary")
	l := &aquestalk.Loader{
		Open:         aquestalktest.Opener(aquestalktest.New(nil)),
		Fingerprints: map[string]aquestalk.VoiceType{sum: aquestalk.F1},
	}

	s, err := l.LoadFromPath(path, aquestalk.M2, false)
	if err != nil {
		t.Fatal(err)
	}
	if s.VoiceType() != aquestalk.M2 {
		t.Errorf("VoiceType() = %v, want m2", s.VoiceType())
	}
	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
}

func TestLoadFromPathVerifyMissingFile(t *testing.T) {
	l := &aquestalk.Loader{Open: aquestalktest.Opener(aquestalktest.New(nil))}
	_, err := l.LoadFromPath(filepath.Join(t.TempDir(), "missing.dll"), aquestalk.F1, true)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

func TestLoadFromPathOpenError(t *testing.T) {
	want := &aquestalk.LoadError{Path: "x", Op: "open", Err: errors.New("bad ELF")}
	l := &aquestalk.Loader{
		Open: func(string) (aquestalk.Library, error) { return nil, want },
	}
	_, err := l.LoadFromPath("x", aquestalk.F1, false)
	var loadErr *aquestalk.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("err = %v, want *LoadError", err)
	}
}

func TestLoadFromPathUnknownVoice(t *testing.T) {
	l := &aquestalk.Loader{Open: aquestalktest.Opener(aquestalktest.New(nil))}
	_, err := l.LoadFromPath("x", aquestalk.VoiceType("f9"), false)
	if !errors.Is(err, aquestalk.ErrUnknownVoice) {
		t.Errorf("err = %v, want ErrUnknownVoice", err)
	}
}

func TestLoadUsesVoiceDirectory(t *testing.T) {
	root := t.TempDir()
	want, _ := writeLibrary(t, filepath.Join(root, "m1"), "m1 binary")

	var opened string
	l := &aquestalk.Loader{
		Root: root,
		Open: func(path string) (aquestalk.Library, error) {
			opened = path
			return aquestalktest.New(nil), nil
		},
	}
	s, err := l.LoadName("m1", false)
	if err != nil {
		t.Fatal(err)
	}
	if opened != want {
		t.Errorf("opened %q, want %q", opened, want)
	}
	if s.VoiceType() != aquestalk.M1 {
		t.Errorf("VoiceType() = %v, want m1", s.VoiceType())
	}
}

func TestLoadNameRejectsUnknown(t *testing.T) {
	l := &aquestalk.Loader{Root: t.TempDir()}
	if _, err := l.LoadName("nope", false); !errors.Is(err, aquestalk.ErrUnknownVoice) {
		t.Errorf("err = %v, want ErrUnknownVoice", err)
	}
}

func TestLoaderPathFromEnv(t *testing.T) {
	root := t.TempDir()
	t.Setenv(aquestalk.RootEnv, root)

	var l aquestalk.Loader
	got, err := l.Path(aquestalk.R1)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(root, "r1", aquestalk.LibraryFileName); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}
