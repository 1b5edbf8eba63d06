package voices

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/emmett/aquestalk/pkg/aquestalk"
)

// ErrNotInstalled is returned when a voice has no library under the root.
var ErrNotInstalled = errors.New("voice not installed")

// ErrMismatch is returned by Install when the source binary fingerprints as
// a different voice than requested.
var ErrMismatch = errors.New("library fingerprint does not match voice")

// Voice describes a known voice variant
type Voice struct {
	Type        aquestalk.VoiceType
	Name        string
	Gender      string
	Description string
}

// Available lists the voices AquesTalk ships
var Available = []Voice{
	{Type: aquestalk.F1, Name: "Female 1", Gender: "female", Description: "Standard female voice"},
	{Type: aquestalk.F2, Name: "Female 2", Gender: "female", Description: "Alternate female voice"},
	{Type: aquestalk.M1, Name: "Male 1", Gender: "male", Description: "Standard male voice"},
	{Type: aquestalk.M2, Name: "Male 2", Gender: "male", Description: "Alternate male voice"},
	{Type: aquestalk.R1, Name: "Robot 1", Gender: "", Description: "Robotic voice"},
	{Type: aquestalk.DVD, Name: "DVD", Gender: "male", Description: "Low male voice"},
	{Type: aquestalk.JGR, Name: "JGR", Gender: "male", Description: "Elderly male voice"},
	{Type: aquestalk.IMD1, Name: "IMD1", Gender: "", Description: "Androgynous voice"},
}

// Find returns the description of a voice type
func Find(v aquestalk.VoiceType) *Voice {
	for _, voice := range Available {
		if voice.Type == v {
			return &voice
		}
	}
	return nil
}

// Installed describes a library found under the root
type Installed struct {
	Type        aquestalk.VoiceType
	Path        string
	Fingerprint string

	// Identified is the voice the fingerprint belongs to, if known.
	Identified aquestalk.VoiceType
}

// Known reports whether the fingerprint was recognized.
func (i Installed) Known() bool { return i.Identified != "" }

// Match reports whether the fingerprint agrees with the directory, treating
// unknown fingerprints as agreeing.
func (i Installed) Match() bool { return !i.Known() || i.Identified == i.Type }

// Manager manages the <root>/<voice>/<library> layout
type Manager struct {
	Root string
}

// NewManager creates a manager for root. An empty root resolves to the
// binding's default root.
func NewManager(root string) (*Manager, error) {
	if root == "" {
		var err error
		if root, err = aquestalk.DefaultRoot(); err != nil {
			return nil, err
		}
	}
	return &Manager{Root: root}, nil
}

// LibraryPath returns where the library for v lives
func (m *Manager) LibraryPath(v aquestalk.VoiceType) string {
	return aquestalk.LibraryPath(m.Root, v)
}

// IsInstalled checks if a library exists for v
func (m *Manager) IsInstalled(v aquestalk.VoiceType) (bool, error) {
	info, err := os.Stat(m.LibraryPath(v))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// GetLibraryPath returns the library path for v, failing if it is missing
func (m *Manager) GetLibraryPath(v aquestalk.VoiceType) (string, error) {
	installed, err := m.IsInstalled(v)
	if err != nil {
		return "", err
	}
	if !installed {
		return "", fmt.Errorf("%w: %s", ErrNotInstalled, v)
	}
	return m.LibraryPath(v), nil
}

// Installed lists all installed voices in canonical order
func (m *Manager) Installed() ([]Installed, error) {
	var out []Installed
	for _, v := range aquestalk.VoiceTypes() {
		ok, err := m.IsInstalled(v)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		path := m.LibraryPath(v)
		sum, err := aquestalk.Fingerprint(path)
		if err != nil {
			return nil, err
		}
		identified, _ := aquestalk.LookupFingerprint(sum)
		out = append(out, Installed{
			Type:        v,
			Path:        path,
			Fingerprint: sum,
			Identified:  identified,
		})
	}
	return out, nil
}

// Install copies the library at src into the layout. The voice is taken from
// the fingerprint when it is known, otherwise from hint. A known fingerprint
// that disagrees with a non-empty hint is refused unless force is set, in
// which case hint wins.
func (m *Manager) Install(src string, hint aquestalk.VoiceType, force bool) (Installed, error) {
	sum, err := aquestalk.Fingerprint(src)
	if err != nil {
		return Installed{}, err
	}
	identified, known := aquestalk.LookupFingerprint(sum)

	target := hint
	switch {
	case known && hint == "":
		target = identified
	case known && hint != identified && !force:
		return Installed{}, fmt.Errorf("%w: %s is %s, not %s", ErrMismatch, src, identified, hint)
	case !known && hint == "":
		return Installed{}, fmt.Errorf("unrecognized library %s: a voice must be given", src)
	}
	if !target.IsValid() {
		return Installed{}, fmt.Errorf("%w: %q", aquestalk.ErrUnknownVoice, string(target))
	}

	dst := m.LibraryPath(target)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return Installed{}, fmt.Errorf("failed to create voice directory: %w", err)
	}
	if err := copyFile(src, dst); err != nil {
		return Installed{}, fmt.Errorf("failed to install library: %w", err)
	}

	return Installed{Type: target, Path: dst, Fingerprint: sum, Identified: identified}, nil
}

// DefaultVoice returns the configured default voice, or fallback if none is set
func (m *Manager) DefaultVoice(fallback aquestalk.VoiceType) (aquestalk.VoiceType, error) {
	data, err := os.ReadFile(filepath.Join(m.Root, ".default_voice"))
	if err != nil {
		if os.IsNotExist(err) {
			return fallback, nil
		}
		return fallback, err
	}

	name := strings.TrimSpace(string(data))
	if name == "" {
		return fallback, nil
	}
	return aquestalk.ParseVoiceType(name)
}

// SetDefaultVoice sets the default voice
func (m *Manager) SetDefaultVoice(v aquestalk.VoiceType) error {
	if !v.IsValid() {
		return fmt.Errorf("%w: %q", aquestalk.ErrUnknownVoice, string(v))
	}

	if err := os.MkdirAll(m.Root, 0755); err != nil {
		return fmt.Errorf("failed to create voice root: %w", err)
	}

	err := os.WriteFile(filepath.Join(m.Root, ".default_voice"), []byte(v), 0644)
	if err != nil {
		return fmt.Errorf("failed to save default voice: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
