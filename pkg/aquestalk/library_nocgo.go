//go:build !cgo && !windows

package aquestalk

// LibraryFileName is the conventional binary name inside a voice directory.
var LibraryFileName = "libAquesTalk.so"

func openLibrary(path string) (Library, error) {
	return nil, &LoadError{Path: path, Op: "open", Err: ErrNativeUnsupported}
}
