package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emmett/aquestalk/internal/tts"
	"github.com/emmett/aquestalk/pkg/aquestalk"
)

type SynthesizeArgs struct {
	Text  string  `json:"text" jsonschema:"Japanese phonetic text to speak"`
	Voice string  `json:"voice,omitempty" jsonschema:"Voice variant such as f1 or m2 (default: server default)"`
	Speed float64 `json:"speed,omitempty" jsonschema:"Speaking rate multiplier 0.5-3.0 (default: 1.0)"`
}

type ListVoicesArgs struct{}

type IdentifyArgs struct {
	Path string `json:"path" jsonschema:"Path to an AquesTalk shared library"`
}

func (s *Server) handleSynthesize(ctx context.Context, req *sdk.CallToolRequest, args SynthesizeArgs) (*sdk.CallToolResult, any, error) {
	if args.Text == "" {
		return nil, nil, fmt.Errorf("text is required")
	}

	var chunk tts.AudioChunk
	err := s.ttsEngine.Synthesize(ctx, tts.SynthesizeRequest{
		Text:  args.Text,
		Voice: args.Voice,
		Speed: float32(args.Speed),
	}, func(c tts.AudioChunk) error {
		chunk = c
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("synthesis failed: %w", err)
	}

	return &sdk.CallToolResult{
		Content: []sdk.Content{
			&sdk.AudioContent{Data: chunk.Data, MIMEType: "audio/wav"},
			&sdk.TextContent{Text: fmt.Sprintf("voice %s, %d Hz, %d-bit, %s",
				chunk.Voice, chunk.SampleRate, chunk.BitDepth, humanize.Bytes(uint64(len(chunk.Data))))},
		},
	}, nil, nil
}

func (s *Server) handleListVoices(ctx context.Context, req *sdk.CallToolRequest, args ListVoicesArgs) (*sdk.CallToolResult, any, error) {
	list := s.ttsEngine.ListVoices()

	var b strings.Builder
	fmt.Fprintf(&b, "Voices (%d, default %s):\n", len(list), s.ttsEngine.DefaultVoice())
	for _, v := range list {
		mark := " "
		if v.Installed {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %-5s %s (%s)\n", mark, v.ID, v.Name, v.Gender)
	}

	installed, err := s.voices.Installed()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list installed voices: %w", err)
	}
	for _, in := range installed {
		if !in.Match() {
			fmt.Fprintf(&b, "warning: %s holds the %s library\n", in.Type, in.Identified)
		}
	}

	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: b.String()}},
	}, nil, nil
}

func (s *Server) handleIdentifyLibrary(ctx context.Context, req *sdk.CallToolRequest, args IdentifyArgs) (*sdk.CallToolResult, any, error) {
	if args.Path == "" {
		return nil, nil, fmt.Errorf("path is required")
	}
	sum, err := aquestalk.Fingerprint(args.Path)
	if err != nil {
		return nil, nil, err
	}

	text := fmt.Sprintf("%s: unknown build (md5 %s)", args.Path, sum)
	if v, ok := aquestalk.LookupFingerprint(sum); ok {
		text = fmt.Sprintf("%s: %s (md5 %s)", args.Path, v, sum)
	}
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: text}},
	}, nil, nil
}
