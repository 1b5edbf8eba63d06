package aquestalk

import (
	"errors"
	"fmt"
)

// ErrUnknownVoice is returned when a name is not one of the known voice types.
var ErrUnknownVoice = errors.New("aquestalk: unknown voice type")

// VoiceType identifies one AquesTalk voice variant.
type VoiceType string

const (
	F1   VoiceType = "f1"
	F2   VoiceType = "f2"
	M1   VoiceType = "m1"
	M2   VoiceType = "m2"
	R1   VoiceType = "r1"
	DVD  VoiceType = "dvd"
	JGR  VoiceType = "jgr"
	IMD1 VoiceType = "imd1"
)

var voiceTypes = [...]VoiceType{F1, F2, M1, M2, R1, DVD, JGR, IMD1}

// VoiceTypes returns all known voice types in canonical order.
func VoiceTypes() []VoiceType {
	out := make([]VoiceType, len(voiceTypes))
	copy(out, voiceTypes[:])
	return out
}

// ParseVoiceType returns the voice type with the given name.
func ParseVoiceType(name string) (VoiceType, error) {
	v := VoiceType(name)
	if !v.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownVoice, name)
	}
	return v, nil
}

// IsValid reports whether v is one of the known voice types.
func (v VoiceType) IsValid() bool {
	for _, known := range voiceTypes {
		if v == known {
			return true
		}
	}
	return false
}

func (v VoiceType) String() string {
	return string(v)
}
