package aquestalk

import (
	"errors"
	"strings"

	"golang.org/x/text/encoding/japanese"
)

// ErrEmbeddedNUL is wrapped by the EncodingError for text containing U+0000,
// which would silently truncate the C string the library reads.
var ErrEmbeddedNUL = errors.New("embedded NUL")

// EncodeKoe converts a phonetic string to the Shift_JIS bytes AquesTalk reads.
func EncodeKoe(koe string) ([]byte, error) {
	if strings.IndexByte(koe, 0) >= 0 {
		return nil, &EncodingError{Text: koe, Err: ErrEmbeddedNUL}
	}
	b, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(koe))
	if err != nil {
		return nil, &EncodingError{Text: koe, Err: err}
	}
	return b, nil
}
