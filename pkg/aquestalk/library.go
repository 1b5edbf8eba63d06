package aquestalk

// Exported symbol names.
const (
	symSynthe   = "AquesTalk_Synthe"
	symFreeWave = "AquesTalk_FreeWave"
)

// Library is a loaded AquesTalk binary.
//
// Implementations keep raw foreign pointers to themselves; callers only see
// Wave values.
type Library interface {
	// Synthe runs AquesTalk_Synthe on a Shift_JIS phonetic string. On
	// success it returns the foreign wave buffer and its size. On failure it
	// returns a nil Wave and the vendor error code.
	Synthe(koe []byte, speed int) (Wave, int)

	// FreeWave runs AquesTalk_FreeWave on a buffer returned by Synthe.
	FreeWave(w Wave)
}

// Wave is a buffer allocated by the library.
type Wave interface {
	// Bytes returns a view of the buffer. The view is invalid once the
	// wave has been freed.
	Bytes() []byte
}

// OpenLibrary loads the AquesTalk binary at path and resolves both exports.
// Libraries are never unloaded.
func OpenLibrary(path string) (Library, error) {
	return openLibrary(path)
}
