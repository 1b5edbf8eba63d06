package aquestalk

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"maps"
	"os"
)

// knownFingerprints maps the MD5 of every published AquesTalk binary to the
// voice it implements. Source: http://blog-yama.a-quest.com/?eid=970181
var knownFingerprints = map[string]VoiceType{
	"d09ba89e04fc6a848377cb695b7c227a": F1,
	"23bd3bbfe89e7bb0f92e5e3ed841cec4": F1,
	"f97a031451220238b21ada12dd2ba6b7": F1,
	"8bfacc9e1c9d6f1a1f6803739a9ed7d6": F2,
	"950cb2c4a9493ff3af7906fdb02b523b": M1,
	"d4491b6ff6aab7e6f3a19dad369d0432": M2,
	"1a69c64175f46271f9f491890b265762": R1,
	"cd431c8c86c1566e73cbbb166047b8a9": DVD,
	"54f15b467cbf215884d29a0ad39a9df3": JGR,
	"e352165e9da54e255c3c25a33cb85aaa": IMD1,
}

// KnownFingerprints returns a copy of the built-in fingerprint table.
func KnownFingerprints() map[string]VoiceType {
	return maps.Clone(knownFingerprints)
}

// LookupFingerprint returns the voice registered for a hex MD5 digest.
func LookupFingerprint(sum string) (VoiceType, bool) {
	v, ok := knownFingerprints[sum]
	return v, ok
}

// Fingerprint returns the lowercase hex MD5 digest of the file at path.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("aquestalk: fingerprint: %w", err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("aquestalk: fingerprint %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Identify fingerprints the binary at path and reports which voice it is.
// An unrecognized fingerprint returns ok == false and a nil error.
func Identify(path string) (v VoiceType, ok bool, err error) {
	return identify(path, knownFingerprints)
}

func identify(path string, table map[string]VoiceType) (VoiceType, bool, error) {
	sum, err := Fingerprint(path)
	if err != nil {
		return "", false, err
	}
	v, ok := table[sum]
	return v, ok, nil
}
