// Package aquestalk binds the AquesTalk speech synthesis library.
//
// AquesTalk ships as a closed native library (one binary per voice) exporting
// two functions: AquesTalk_Synthe, which turns a phonetic string into a WAV
// container allocated by the library, and AquesTalk_FreeWave, which releases
// it. This package loads such a binary, copies every returned buffer into Go
// memory and releases the foreign buffer before returning to the caller.
//
// # Usage
//
//	s, err := aquestalk.Load(aquestalk.F1, true)
//	if err != nil {
//		return err
//	}
//
//	wav, err := s.SynthesizeRaw("ゆっくりしていってね", aquestalk.DefaultSpeed)
//
// # Voices
//
// Each voice variant ([VoiceType]) lives in its own directory under a root,
// as <root>/<voice>/<LibraryFileName>. Binaries can be recognized by content
// with [Identify]; with verification enabled the loader trusts the
// fingerprint over the caller's declared voice.
//
// # Errors
//
// Load failures are [*LoadError]. Text that cannot be encoded as Shift_JIS is
// an [*EncodingError]. Failures reported by the library are [*Error] carrying
// the vendor error code. A buffer reported as successful that is not a valid
// WAV container wraps [ErrContractViolation].
//
// # Thread Safety
//
// Calls into one library handle are serialized, including calls from
// different sessions over the same binary: [OpenLibrary] returns the same
// [Library] for a path it has already opened. Sessions over different
// libraries may run concurrently.
package aquestalk
