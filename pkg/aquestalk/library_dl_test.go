//go:build cgo && !windows

package aquestalk

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// buildFake compiles testdata/fakeaquestalk.c into a shared library in a
// fresh directory, so each test gets its own image and free counter.
func buildFake(t *testing.T, defines ...string) string {
	t.Helper()
	cc := os.Getenv("CC")
	if cc == "" {
		cc = "cc"
	}
	if _, err := exec.LookPath(cc); err != nil {
		t.Skipf("no C compiler: %v", err)
	}

	out := filepath.Join(t.TempDir(), LibraryFileName)
	args := []string{"-shared", "-fPIC", "-o", out}
	for _, d := range defines {
		args = append(args, "-D"+d)
	}
	args = append(args, filepath.Join("testdata", "fakeaquestalk.c"))

	if b, err := exec.Command(cc, args...).CombinedOutput(); err != nil {
		t.Fatalf("%s %v: %v\n%s", cc, args, err, b)
	}
	return out
}

func TestDLRoundTrip(t *testing.T) {
	lib, err := OpenLibrary(buildFake(t))
	if err != nil {
		t.Fatal(err)
	}

	// Bytes past len must not reach the library: it reads up to the NUL.
	koe := []byte("abcXYZ")[:3]
	w, n := lib.Synthe(koe, 100)
	if w == nil {
		t.Fatalf("Synthe failed with code %d", n)
	}
	if n != 5 {
		t.Fatalf("size = %d, want 5", n)
	}
	got := bytes.Clone(w.Bytes())
	if want := []byte{'a', 'b', 'c', 100, 0}; !bytes.Equal(got, want) {
		t.Errorf("wave = % x, want % x", got, want)
	}

	lib.FreeWave(w)
	if w.(*dlWave).ptr != nil {
		t.Error("pointer not cleared after FreeWave")
	}
	if w.Bytes() != nil {
		t.Error("Bytes() after FreeWave should be nil")
	}
	lib.FreeWave(w)

	w, _ = lib.Synthe([]byte("x"), 150)
	if w == nil {
		t.Fatal("second Synthe failed")
	}
	defer lib.FreeWave(w)
	b := w.Bytes()
	if b[1] != 150 {
		t.Errorf("speed byte = %d, want 150", b[1])
	}
	if b[2] != 1 {
		t.Errorf("library saw %d frees, want exactly 1", b[2])
	}
}

func TestDLFailureCode(t *testing.T) {
	lib, err := OpenLibrary(buildFake(t))
	if err != nil {
		t.Fatal(err)
	}
	w, code := lib.Synthe(nil, 100)
	if w != nil {
		t.Fatal("expected nil wave")
	}
	if code != 111 {
		t.Errorf("code = %d, want 111", code)
	}
}

func TestDLSession(t *testing.T) {
	lib, err := OpenLibrary(buildFake(t))
	if err != nil {
		t.Fatal(err)
	}
	s := NewSession(lib, F1, "", nil)

	for i := 0; i < 3; i++ {
		raw, err := s.SynthesizeRaw("a", 120)
		if err != nil {
			t.Fatal(err)
		}
		if want := []byte{'a', 120, byte(i)}; !bytes.Equal(raw, want) {
			t.Errorf("call %d: raw = % x, want % x", i, raw, want)
		}
	}

	_, err = s.SynthesizeRaw("", 100)
	var synErr *Error
	if !errors.As(err, &synErr) || synErr.Code != 111 {
		t.Errorf("err = %v, want code 111", err)
	}
}

func TestDLSamePathSharesLibrary(t *testing.T) {
	path := buildFake(t)
	l1, err := OpenLibrary(path)
	if err != nil {
		t.Fatal(err)
	}
	l2, err := OpenLibrary(path)
	if err != nil {
		t.Fatal(err)
	}
	if l1 != l2 {
		t.Error("opening one path twice returned distinct libraries")
	}
	if lockFor(l1) != lockFor(l2) {
		t.Error("libraries over one handle do not share a lock")
	}
}

func TestDLMissingSymbol(t *testing.T) {
	_, err := OpenLibrary(buildFake(t, "OMIT_FREE_WAVE"))
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("err = %v, want *LoadError", err)
	}
	if want := "resolve " + symFreeWave; loadErr.Op != want {
		t.Errorf("Op = %q, want %q", loadErr.Op, want)
	}
}

func TestDLMissingFile(t *testing.T) {
	_, err := OpenLibrary(filepath.Join(t.TempDir(), LibraryFileName))
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Op != "open" {
		t.Fatalf("err = %v, want open *LoadError", err)
	}
}
