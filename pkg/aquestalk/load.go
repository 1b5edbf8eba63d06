package aquestalk

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// RootEnv names the environment variable that overrides the voice root.
const RootEnv = "AQUESTALK_ROOT"

// Loader resolves, fingerprints and opens AquesTalk binaries.
// The zero value is ready to use.
type Loader struct {
	// Root is the directory holding one subdirectory per voice. Empty means
	// $AQUESTALK_ROOT, or the directory of the running executable.
	Root string

	// Open opens a library. Nil means OpenLibrary.
	Open func(path string) (Library, error)

	// Fingerprints overrides the built-in fingerprint table.
	Fingerprints map[string]VoiceType

	Logger *slog.Logger
}

// DefaultLoader backs the package-level Load functions.
var DefaultLoader = &Loader{}

// Load opens the library for voice from the default root.
func Load(voice VoiceType, verify bool) (*Session, error) {
	return DefaultLoader.Load(voice, verify)
}

// LoadName opens the library for the voice with the given name.
func LoadName(name string, verify bool) (*Session, error) {
	return DefaultLoader.LoadName(name, verify)
}

// LoadFromPath opens the library at path as voice.
func LoadFromPath(path string, voice VoiceType, verify bool) (*Session, error) {
	return DefaultLoader.LoadFromPath(path, voice, verify)
}

// DefaultRoot returns the voice root used when Loader.Root is empty.
func DefaultRoot() (string, error) {
	if root := os.Getenv(RootEnv); root != "" {
		return root, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("aquestalk: resolve voice root: %w", err)
	}
	return filepath.Dir(exe), nil
}

// LibraryPath returns <root>/<voice>/<LibraryFileName>.
func LibraryPath(root string, voice VoiceType) string {
	return filepath.Join(root, string(voice), LibraryFileName)
}

// Path returns where Load looks for voice.
func (l *Loader) Path(voice VoiceType) (string, error) {
	root := l.Root
	if root == "" {
		var err error
		if root, err = DefaultRoot(); err != nil {
			return "", err
		}
	}
	return LibraryPath(root, voice), nil
}

// Load opens the library for voice from the loader's root.
func (l *Loader) Load(voice VoiceType, verify bool) (*Session, error) {
	if !voice.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVoice, string(voice))
	}
	path, err := l.Path(voice)
	if err != nil {
		return nil, err
	}
	return l.LoadFromPath(path, voice, verify)
}

// LoadName opens the library for the voice with the given name.
func (l *Loader) LoadName(name string, verify bool) (*Session, error) {
	voice, err := ParseVoiceType(name)
	if err != nil {
		return nil, err
	}
	return l.Load(voice, verify)
}

// LoadFromPath opens the library at path as voice.
//
// With verify set, the file is fingerprinted first. A recognized fingerprint
// replaces voice, even when it disagrees; an unrecognized one leaves voice as
// given.
func (l *Loader) LoadFromPath(path string, voice VoiceType, verify bool) (*Session, error) {
	if !voice.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVoice, string(voice))
	}
	logger := l.logger()

	if verify {
		actual, err := l.resolve(path, voice)
		if err != nil {
			return nil, err
		}
		voice = actual
	}

	open := l.Open
	if open == nil {
		open = OpenLibrary
	}
	lib, err := open(path)
	if err != nil {
		return nil, err
	}

	logger.Info("aquestalk library loaded", "path", path, "voice", string(voice))
	return NewSession(lib, voice, path, logger), nil
}

// resolve returns the voice implemented by the binary at path, falling back
// to declared when the fingerprint is unknown.
func (l *Loader) resolve(path string, declared VoiceType) (VoiceType, error) {
	table := l.Fingerprints
	if table == nil {
		table = knownFingerprints
	}
	actual, ok, err := identify(path, table)
	if err != nil {
		return "", err
	}
	if !ok {
		l.logger().Debug("unknown library fingerprint", "path", path, "voice", string(declared))
		return declared, nil
	}
	if actual != declared {
		l.logger().Info("library fingerprint overrides declared voice",
			"path", path, "declared", string(declared), "actual", string(actual))
	}
	return actual, nil
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}
