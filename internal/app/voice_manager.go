package app

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/emmett/aquestalk/internal/voices"
	"github.com/emmett/aquestalk/pkg/aquestalk"
)

// VoiceManager prints and edits the voice library layout
type VoiceManager struct {
	mgr *voices.Manager
	out io.Writer
}

// NewVoiceManager creates a VoiceManager for root, writing to out
func NewVoiceManager(root string, out io.Writer) (*VoiceManager, error) {
	mgr, err := voices.NewManager(root)
	if err != nil {
		return nil, err
	}
	return &VoiceManager{mgr: mgr, out: out}, nil
}

// Root returns the voice root being managed
func (m *VoiceManager) Root() string {
	return m.mgr.Root
}

// ListVoices prints every voice variant and whether it is installed
func (m *VoiceManager) ListVoices(fallback aquestalk.VoiceType) error {
	def, err := m.mgr.DefaultVoice(fallback)
	if err != nil {
		return fmt.Errorf("error reading default voice: %w", err)
	}

	fmt.Fprintln(m.out, "AquesTalk voices:")
	fmt.Fprintln(m.out)
	for i, v := range voices.Available {
		fmt.Fprintf(m.out, "%d. %s", i+1, v.Type)
		if v.Type == def {
			fmt.Fprint(m.out, " [DEFAULT]")
		}
		fmt.Fprintln(m.out)
		fmt.Fprintf(m.out, "   Name:     %s\n", v.Name)
		fmt.Fprintf(m.out, "   Info:     %s\n", v.Description)

		installed, _ := m.mgr.IsInstalled(v.Type)
		if installed {
			fmt.Fprintf(m.out, "   Status:   ✓ Installed\n")
		} else {
			fmt.Fprintf(m.out, "   Status:   Not installed\n")
		}
		fmt.Fprintln(m.out)
	}

	fmt.Fprintln(m.out, "To install a voice library, use:")
	fmt.Fprintln(m.out, "  aquestalk install <path> [--voice <voice>]")
	return nil
}

// ListInstalled prints the libraries found under the root
func (m *VoiceManager) ListInstalled() error {
	installed, err := m.mgr.Installed()
	if err != nil {
		return fmt.Errorf("error listing voices: %w", err)
	}

	if len(installed) == 0 {
		fmt.Fprintf(m.out, "No voices installed under %s.\n", m.mgr.Root)
		fmt.Fprintln(m.out)
		fmt.Fprintln(m.out, "Use 'aquestalk install <path>' to install a library")
		return nil
	}

	fmt.Fprintf(m.out, "Installed voices (%d):\n", len(installed))
	fmt.Fprintln(m.out)
	for i, in := range installed {
		writeInstalled(m.out, i+1, in)
	}
	return nil
}

func writeInstalled(w io.Writer, n int, in voices.Installed) {
	fmt.Fprintf(w, "%d. %s\n", n, in.Type)
	fmt.Fprintf(w, "   Path: %s", in.Path)
	if info, err := os.Stat(in.Path); err == nil {
		fmt.Fprintf(w, " (%s)", humanize.Bytes(uint64(info.Size())))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "   MD5:  %s\n", in.Fingerprint)
	switch {
	case !in.Known():
		fmt.Fprintln(w, "   Build: unrecognized")
	case !in.Match():
		fmt.Fprintf(w, "   Build: %s, installed as %s (loads as %s when verifying)\n", in.Identified, in.Type, in.Identified)
	}
}

// Identify prints which voice the library at path implements
func (m *VoiceManager) Identify(path string) error {
	sum, err := aquestalk.Fingerprint(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(m.out, "%s\n", path)
	fmt.Fprintf(m.out, "  MD5:   %s\n", sum)
	if v, ok := aquestalk.LookupFingerprint(sum); ok {
		fmt.Fprintf(m.out, "  Voice: %s\n", v)
	} else {
		fmt.Fprintln(m.out, "  Voice: unknown build")
	}
	return nil
}

// Install copies a library into the layout
func (m *VoiceManager) Install(path, voice string, force bool) error {
	var hint aquestalk.VoiceType
	if voice != "" {
		v, err := aquestalk.ParseVoiceType(voice)
		if err != nil {
			return err
		}
		hint = v
	}

	in, err := m.mgr.Install(path, hint, force)
	if errors.Is(err, voices.ErrMismatch) {
		fmt.Fprintln(m.out, "Use --force to install it under the requested voice anyway.")
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(m.out, "✓ Installed %s\n", in.Type)
	fmt.Fprintf(m.out, "  Location: %s\n", in.Path)
	return nil
}

// SetDefault records the default voice under the root
func (m *VoiceManager) SetDefault(name string) error {
	v, err := aquestalk.ParseVoiceType(name)
	if err != nil {
		return err
	}
	if err := m.mgr.SetDefaultVoice(v); err != nil {
		return fmt.Errorf("error setting default voice: %w", err)
	}

	fmt.Fprintf(m.out, "✓ Default voice set to: %s\n", v)
	installed, _ := m.mgr.IsInstalled(v)
	if !installed {
		fmt.Fprintln(m.out)
		fmt.Fprintln(m.out, "Note: This voice is not installed yet.")
	}
	return nil
}

// DefaultVoice returns the recorded default voice, or fallback
func (m *VoiceManager) DefaultVoice(fallback aquestalk.VoiceType) (aquestalk.VoiceType, error) {
	return m.mgr.DefaultVoice(fallback)
}
