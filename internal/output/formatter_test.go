package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestPlainTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewPlainTextFormatter(&buf)

	err := f.WriteResult(SynthesisResult{
		Voice:      "f1",
		Speed:      100,
		Output:     "out.wav",
		Bytes:      2048,
		SampleRate: 8000,
		Duration:   1500 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	want := "out.wav: 2.0 kB, voice f1, speed 100, 8000 Hz, 1.5s\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(&buf)

	in := SynthesisResult{Text: "a", Voice: "m2", Speed: 150, Bytes: 44}
	if err := f.WriteResult(in); err != nil {
		t.Fatal(err)
	}

	var out SynthesisResult
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Voice != "m2" || out.Speed != 150 || out.Bytes != 44 {
		t.Errorf("decoded %+v", out)
	}
	if len(f.GetResults()) != 1 {
		t.Errorf("results = %d, want 1", len(f.GetResults()))
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	if _, err := New("xml", &buf); err == nil {
		t.Error("expected error for unknown format")
	}
	f, err := New("text", &buf)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.WriteEvent("voice", "override"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "[voice] override") {
		t.Errorf("event = %q", buf.String())
	}
}
