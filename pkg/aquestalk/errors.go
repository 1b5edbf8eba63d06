package aquestalk

import (
	"errors"
	"fmt"
)

var (
	// ErrContractViolation is wrapped by errors returned when the library
	// reports success but hands back bytes that are not a WAV container.
	ErrContractViolation = errors.New("aquestalk: library returned a malformed wave")

	// ErrSpeedOutOfRange is returned for speeds outside [MinSpeed, MaxSpeed].
	ErrSpeedOutOfRange = errors.New("aquestalk: speed out of range")

	// ErrNativeUnsupported is returned by OpenLibrary on builds that cannot
	// load native libraries.
	ErrNativeUnsupported = errors.New("aquestalk: native loading not supported by this build")
)

// unknownErrorMessage is used for codes missing from errorMessages.
const unknownErrorMessage = "unknown error"

var errorMessages = map[int]string{
	100: "other error",
	101: "out of memory",
	102: "undefined reading symbol in phonetic string",
	103: "negative duration in prosody data",
	104: "internal error (undefined delimiter code)",
	105: "undefined reading symbol in phonetic string",
	106: "invalid tag in phonetic string",
	107: "tag too long (or closing '>' not found)",
	108: "invalid value in tag",
	109: "cannot play wave (sound driver problem)",
	110: "cannot play wave (sound driver problem, asynchronous playback)",
	111: "nothing to speak",
	200: "phonetic string too long",
	201: "too many reading symbols in one phrase",
	202: "phonetic string too long (internal buffer overflow 1)",
	203: "out of heap memory",
	204: "phonetic string too long (internal buffer overflow 1)",
}

// Error is a failure reported by AquesTalk_Synthe.
type Error struct {
	Code    int
	Message string
}

// NewError translates a vendor error code.
func NewError(code int) *Error {
	return &Error{Code: code, Message: ErrorMessage(code)}
}

// ErrorMessage returns the diagnostic for a vendor error code.
func ErrorMessage(code int) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return unknownErrorMessage
}

func (e *Error) Error() string {
	return fmt.Sprintf("aquestalk: %s (%d)", e.Message, e.Code)
}

// EncodingError reports text that has no Shift_JIS representation or that
// cannot be passed as a C string.
type EncodingError struct {
	Text string
	Err  error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("aquestalk: cannot encode %q as Shift_JIS: %v", e.Text, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// LoadError reports a library that could not be opened or bound.
type LoadError struct {
	Path string
	Op   string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("aquestalk: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
