//go:build cgo && !windows

package aquestalk

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>

typedef unsigned char *(*synthe_fn)(const char *koe, int speed, int *size);
typedef void (*free_wave_fn)(unsigned char *wav);

static unsigned char *call_synthe(void *fn, const char *koe, int speed, int *size) {
	return ((synthe_fn)fn)(koe, speed, size);
}

static void call_free_wave(void *fn, unsigned char *wav) {
	((free_wave_fn)fn)(wav);
}
*/
import "C"

import (
	"errors"
	"runtime"
	"sync"
	"unsafe"
)

// LibraryFileName is the conventional binary name inside a voice directory.
var LibraryFileName = func() string {
	if runtime.GOOS == "darwin" {
		return "libAquesTalk.dylib"
	}
	return "libAquesTalk.so"
}()

// opened maps dlopen handles to their Library so a binary opened twice
// shares one value, and so one lock.
var (
	openedMu sync.Mutex
	opened   = make(map[unsafe.Pointer]*dlLibrary)
)

type dlLibrary struct {
	handle   unsafe.Pointer
	synthe   unsafe.Pointer
	freeWave unsafe.Pointer
}

type dlWave struct {
	ptr  *C.uchar
	size int
}

func (w *dlWave) Bytes() []byte {
	if w.ptr == nil || w.size <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(w.ptr)), w.size)
}

func openLibrary(path string) (Library, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	openedMu.Lock()
	defer openedMu.Unlock()

	handle := C.dlopen(cPath, C.RTLD_NOW|C.RTLD_LOCAL)
	if handle == nil {
		return nil, &LoadError{Path: path, Op: "open", Err: dlError()}
	}
	if lib, ok := opened[handle]; ok {
		// dlopen counted a second reference to the same image.
		C.dlclose(handle)
		return lib, nil
	}

	synthe, err := dlSym(handle, symSynthe)
	if err != nil {
		C.dlclose(handle)
		return nil, &LoadError{Path: path, Op: "resolve " + symSynthe, Err: err}
	}
	freeWave, err := dlSym(handle, symFreeWave)
	if err != nil {
		C.dlclose(handle)
		return nil, &LoadError{Path: path, Op: "resolve " + symFreeWave, Err: err}
	}

	lib := &dlLibrary{handle: handle, synthe: synthe, freeWave: freeWave}
	opened[handle] = lib
	return lib, nil
}

func dlSym(handle unsafe.Pointer, name string) (unsafe.Pointer, error) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	C.dlerror()
	sym := C.dlsym(handle, cName)
	if sym == nil {
		return nil, dlError()
	}
	return sym, nil
}

func dlError() error {
	msg := C.dlerror()
	if msg == nil {
		return errors.New("unknown dl error")
	}
	return errors.New(C.GoString(msg))
}

func (l *dlLibrary) Synthe(koe []byte, speed int) (Wave, int) {
	// C.CBytes does not terminate; the library expects a C string.
	cKoe := (*C.char)(C.CBytes(append(koe[:len(koe):len(koe)], 0)))
	defer C.free(unsafe.Pointer(cKoe))

	var size C.int
	ptr := C.call_synthe(l.synthe, cKoe, C.int(speed), &size)
	if ptr == nil {
		return nil, int(size)
	}
	return &dlWave{ptr: ptr, size: int(size)}, int(size)
}

func (l *dlLibrary) FreeWave(w Wave) {
	dw, ok := w.(*dlWave)
	if !ok || dw.ptr == nil {
		return
	}
	C.call_free_wave(l.freeWave, dw.ptr)
	dw.ptr = nil
}
