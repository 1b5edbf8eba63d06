package aquestalk

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Audio is a decoded WAV container.
type Audio struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration

	// PCM holds the decoded samples.
	PCM *audio.IntBuffer

	// Raw is the container exactly as the library produced it.
	Raw []byte
}

// ParseWave decodes a WAV container. Errors wrap ErrContractViolation since
// the only source of these bytes is a library call that reported success.
func ParseWave(raw []byte) (*Audio, error) {
	dec := wav.NewDecoder(bytes.NewReader(raw))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE container (%d bytes)", ErrContractViolation, len(raw))
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContractViolation, err)
	}

	a := &Audio{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		PCM:        buf,
		Raw:        raw,
	}
	if a.SampleRate > 0 && a.Channels > 0 {
		frames := len(buf.Data) / a.Channels
		a.Duration = time.Duration(frames) * time.Second / time.Duration(a.SampleRate)
	}
	return a, nil
}
