package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emmett/aquestalk/internal/app"
	"github.com/emmett/aquestalk/pkg/aquestalk"
)

var (
	synthVoice  string
	synthSpeed  int
	synthOutput string
	synthFormat string
	synthVerify bool
	synthServer string
)

var synthCmd = &cobra.Command{
	Use:   "synth [flags] text...",
	Short: "Synthesize phonetic text to a WAV file",
	Example: `  aquestalk synth -o hello.wav こんにちわ
  aquestalk synth -v m1 -s 150 -o - ゆっくりしていってね > out.wav`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("verify") {
			cfg.Voice.Verify = synthVerify
		}
		s := app.NewSynthesizer(app.SynthesizerConfig{
			Text:         strings.Join(args, " "),
			Voice:        synthVoice,
			Speed:        synthSpeed,
			OutputFile:   synthOutput,
			OutputFormat: synthFormat,
			Server:       synthServer,
		}, cfg, logger)
		return s.Run(cmd.Context())
	},
}

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List AquesTalk voice variants",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		vm, err := app.NewVoiceManager(cfg.Voice.Root, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		fallback, err := aquestalk.ParseVoiceType(cfg.Voice.Default)
		if err != nil {
			return err
		}
		return vm.ListVoices(fallback)
	},
}

var installedCmd = &cobra.Command{
	Use:   "installed",
	Short: "List installed voice libraries with their fingerprints",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		vm, err := app.NewVoiceManager(cfg.Voice.Root, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return vm.ListInstalled()
	},
}

var identifyCmd = &cobra.Command{
	Use:   "identify <path>...",
	Short: "Fingerprint AquesTalk binaries",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vm, err := app.NewVoiceManager(cfg.Voice.Root, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		for _, path := range args {
			if err := vm.Identify(path); err != nil {
				return err
			}
		}
		return nil
	},
}

var (
	installVoice string
	installForce bool
)

var installCmd = &cobra.Command{
	Use:   "install <path>",
	Short: "Copy a library into the voice root",
	Long: `install copies an AquesTalk binary to <root>/<voice>/. The voice is
taken from the binary's fingerprint when it is recognized; otherwise --voice
is required. A recognized binary that disagrees with --voice is refused
unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vm, err := app.NewVoiceManager(cfg.Voice.Root, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return vm.Install(args[0], installVoice, installForce)
	},
}

var setDefaultCmd = &cobra.Command{
	Use:       "set-default <voice>",
	Short:     "Set the default voice for this voice root",
	Args:      cobra.ExactArgs(1),
	ValidArgs: voiceNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		vm, err := app.NewVoiceManager(cfg.Voice.Root, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return vm.SetDefault(args[0])
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "AquesTalk CLI v%s\n", Version)
		fmt.Fprintf(out, "  Commit:  %s\n", GitCommit)
		fmt.Fprintf(out, "  Branch:  %s\n", GitBranch)
		fmt.Fprintf(out, "  Built:   %s\n", BuildTime)
	},
}

func voiceNames() []string {
	var names []string
	for _, v := range aquestalk.VoiceTypes() {
		names = append(names, string(v))
	}
	return names
}

func init() {
	f := synthCmd.Flags()
	f.StringVarP(&synthVoice, "voice", "v", "", "Voice: "+strings.Join(voiceNames(), ", ")+" (default: configured voice)")
	f.IntVarP(&synthSpeed, "speed", "s", 0, fmt.Sprintf("Speed in percent, %d-%d (default: configured speed)", aquestalk.MinSpeed, aquestalk.MaxSpeed))
	f.StringVarP(&synthOutput, "output", "o", "", "Output WAV file, - for stdout (default: stdout)")
	f.StringVar(&synthFormat, "format", "text", "Report format on stderr: text, json")
	f.BoolVar(&synthVerify, "verify", true, "Fingerprint the library and trust the fingerprint over --voice")
	f.StringVar(&synthServer, "server", "", "Synthesize on a remote gRPC server (host:port)")

	installCmd.Flags().StringVar(&installVoice, "voice", "", "Voice to install as when the binary is unrecognized")
	installCmd.Flags().BoolVar(&installForce, "force", false, "Install under --voice even if the fingerprint disagrees")
}
