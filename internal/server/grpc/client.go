package grpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/emmett/aquestalk/internal/tts"
)

// Client calls a remote aquestalk.v1.TTS service
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to addr without transport security
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// Synthesize returns the WAV container for req and the voice that produced it
func (c *Client) Synthesize(ctx context.Context, req tts.SynthesizeRequest) ([]byte, string, error) {
	in, err := structpb.NewStruct(map[string]any{
		"text":  req.Text,
		"voice": req.Voice,
		"speed": float64(req.Speed),
	})
	if err != nil {
		return nil, "", err
	}

	stream, err := c.conn.NewStream(ctx, &TTSServiceDesc.Streams[0], synthesizeMethod)
	if err != nil {
		return nil, "", err
	}
	if err := stream.SendMsg(in); err != nil {
		return nil, "", err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, "", err
	}

	var out bytes.Buffer
	for {
		chunk := new(wrapperspb.BytesValue)
		err := stream.RecvMsg(chunk)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, "", err
		}
		out.Write(chunk.GetValue())
	}

	var voice string
	if md, err := stream.Header(); err == nil {
		if v := md.Get(voiceHeader); len(v) > 0 {
			voice = v[0]
		}
	}
	return out.Bytes(), voice, nil
}

// ListVoices returns the voices the server knows about and its default voice
func (c *Client) ListVoices(ctx context.Context) ([]tts.Voice, string, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, listVoicesMethod, &emptypb.Empty{}, out); err != nil {
		return nil, "", err
	}

	fields := out.GetFields()
	var voices []tts.Voice
	for _, v := range fields["voices"].GetListValue().GetValues() {
		f := v.GetStructValue().GetFields()
		voices = append(voices, tts.Voice{
			ID:        f["id"].GetStringValue(),
			Name:      f["name"].GetStringValue(),
			Language:  f["language"].GetStringValue(),
			Gender:    f["gender"].GetStringValue(),
			Installed: f["installed"].GetBoolValue(),
		})
	}
	return voices, fields["default_voice"].GetStringValue(), nil
}
