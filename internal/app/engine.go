package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/emmett/aquestalk/internal/config"
	"github.com/emmett/aquestalk/internal/tts"
	"github.com/emmett/aquestalk/pkg/aquestalk"
)

// EngineConfig builds the TTS engine configuration from cfg. A default voice
// recorded under the voice root takes precedence over the config file.
func EngineConfig(cfg *config.Config) (tts.Config, error) {
	vm, err := NewVoiceManager(cfg.Voice.Root, io.Discard)
	if err != nil {
		return tts.Config{}, err
	}

	fallback, err := aquestalk.ParseVoiceType(cfg.Voice.Default)
	if err != nil {
		return tts.Config{}, fmt.Errorf("invalid default voice in config: %w", err)
	}
	def, err := vm.DefaultVoice(fallback)
	if err != nil {
		return tts.Config{}, err
	}

	ec := tts.DefaultConfig(vm.Root())
	ec.DefaultVoice = string(def)
	ec.Verify = cfg.Voice.Verify
	if cfg.Synthesis.Speed != 0 {
		ec.DefaultSpeed = cfg.Synthesis.Speed
	}
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			base, err := os.UserCacheDir()
			if err != nil {
				return tts.Config{}, fmt.Errorf("cache enabled without a directory: %w", err)
			}
			dir = filepath.Join(base, "aquestalk")
		}
		ec.CacheDir = dir
		ec.CacheTTL = cfg.Cache.TTL
	}
	return ec, nil
}
