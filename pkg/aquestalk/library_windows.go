//go:build windows

package aquestalk

import (
	"sync"
	"syscall"
	"unsafe"
)

// LibraryFileName is the conventional binary name inside a voice directory.
var LibraryFileName = "AquesTalk.dll"

// opened maps module handles to their Library so a DLL loaded twice shares
// one value, and so one lock.
var (
	openedMu sync.Mutex
	opened   = make(map[syscall.Handle]*dllLibrary)
)

type dllLibrary struct {
	dll      *syscall.DLL
	synthe   *syscall.Proc
	freeWave *syscall.Proc
}

type dllWave struct {
	ptr  uintptr
	size int
}

func (w *dllWave) Bytes() []byte {
	if w.ptr == 0 || w.size <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(w.ptr)), w.size)
}

func openLibrary(path string) (Library, error) {
	openedMu.Lock()
	defer openedMu.Unlock()

	dll, err := syscall.LoadDLL(path)
	if err != nil {
		return nil, &LoadError{Path: path, Op: "open", Err: err}
	}
	if lib, ok := opened[dll.Handle]; ok {
		dll.Release()
		return lib, nil
	}

	synthe, err := dll.FindProc(symSynthe)
	if err != nil {
		dll.Release()
		return nil, &LoadError{Path: path, Op: "resolve " + symSynthe, Err: err}
	}
	freeWave, err := dll.FindProc(symFreeWave)
	if err != nil {
		dll.Release()
		return nil, &LoadError{Path: path, Op: "resolve " + symFreeWave, Err: err}
	}

	lib := &dllLibrary{dll: dll, synthe: synthe, freeWave: freeWave}
	opened[dll.Handle] = lib
	return lib, nil
}

func (l *dllLibrary) Synthe(koe []byte, speed int) (Wave, int) {
	cKoe := make([]byte, len(koe)+1)
	copy(cKoe, koe)

	var size int32
	ptr, _, _ := l.synthe.Call(
		uintptr(unsafe.Pointer(&cKoe[0])),
		uintptr(speed),
		uintptr(unsafe.Pointer(&size)),
	)
	if ptr == 0 {
		return nil, int(size)
	}
	return &dllWave{ptr: ptr, size: int(size)}, int(size)
}

func (l *dllLibrary) FreeWave(w Wave) {
	dw, ok := w.(*dllWave)
	if !ok || dw.ptr == 0 {
		return
	}
	l.freeWave.Call(dw.ptr)
	dw.ptr = 0
}
