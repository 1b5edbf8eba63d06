package grpc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/emmett/aquestalk/internal/tts"
	"github.com/emmett/aquestalk/pkg/aquestalk"
)

// TTSServer is the server API for the aquestalk.v1.TTS service
type TTSServer interface {
	// Synthesize takes a Struct {text, voice, speed} and streams the WAV
	Synthesize(*structpb.Struct, grpc.ServerStreamingServer[wrapperspb.BytesValue]) error
	// ListVoices returns a Struct {voices: [...], default_voice}
	ListVoices(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// TTSService implements the gRPC TTS service
type TTSService struct {
	engine tts.Engine
	logger *slog.Logger
}

// NewTTSService creates a new TTS service
func NewTTSService(engine tts.Engine, logger *slog.Logger) *TTSService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TTSService{engine: engine, logger: logger}
}

// Synthesize handles text-to-speech synthesis with streaming audio output
func (s *TTSService) Synthesize(req *structpb.Struct, stream grpc.ServerStreamingServer[wrapperspb.BytesValue]) error {
	ctx := stream.Context()
	fields := req.GetFields()

	ttsReq := tts.SynthesizeRequest{
		Text:  fields["text"].GetStringValue(),
		Voice: fields["voice"].GetStringValue(),
		Speed: float32(fields["speed"].GetNumberValue()),
	}
	if ttsReq.Text == "" {
		return status.Error(codes.InvalidArgument, "text is required")
	}

	logger := s.logger.With("request_id", uuid.NewString(), "voice", ttsReq.Voice)
	logger.Debug("synthesize", "speed", ttsReq.Speed, "chars", len([]rune(ttsReq.Text)))

	// Stream audio chunks as they're generated. The header carries the
	// voice that actually spoke, which verification may have changed.
	sentHeader := false
	err := s.engine.Synthesize(ctx, ttsReq, func(chunk tts.AudioChunk) error {
		if !sentHeader {
			if chunk.Voice != ttsReq.Voice && ttsReq.Voice != "" {
				logger.Info("voice overridden by fingerprint", "loaded", chunk.Voice)
			}
			if err := stream.SetHeader(metadata.Pairs(voiceHeader, chunk.Voice)); err != nil {
				return err
			}
			sentHeader = true
		}
		return stream.Send(wrapperspb.Bytes(chunk.Data))
	})
	if err != nil {
		logger.Warn("synthesize failed", "error", err)
		return toStatus(err)
	}
	return nil
}

// ListVoices returns available TTS voices
func (s *TTSService) ListVoices(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	voices := s.engine.ListVoices()
	list := make([]any, len(voices))
	for i, v := range voices {
		list[i] = map[string]any{
			"id":        v.ID,
			"name":      v.Name,
			"language":  v.Language,
			"gender":    v.Gender,
			"installed": v.Installed,
		}
	}

	result, err := structpb.NewStruct(map[string]any{
		"voices":        list,
		"default_voice": s.engine.DefaultVoice(),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return result, nil
}

// toStatus maps binding errors onto gRPC status codes. Vendor codes for
// memory exhaustion and internal faults are not the caller's fault; the rest
// reject the input.
func toStatus(err error) error {
	var (
		synErr  *aquestalk.Error
		encErr  *aquestalk.EncodingError
		loadErr *aquestalk.LoadError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.As(err, &synErr):
		switch synErr.Code {
		case 101, 203:
			return status.Error(codes.ResourceExhausted, err.Error())
		case 100, 104:
			return status.Error(codes.Internal, err.Error())
		}
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.As(err, &encErr),
		errors.Is(err, aquestalk.ErrSpeedOutOfRange),
		errors.Is(err, aquestalk.ErrUnknownVoice):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.As(err, &loadErr):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func _TTS_Synthesize_Handler(srv any, stream grpc.ServerStream) error {
	m := new(structpb.Struct)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(TTSServer).Synthesize(m, &grpc.GenericServerStream[structpb.Struct, wrapperspb.BytesValue]{ServerStream: stream})
}

func _TTS_ListVoices_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TTSServer).ListVoices(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: listVoicesMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TTSServer).ListVoices(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

const (
	serviceName      = "aquestalk.v1.TTS"
	synthesizeMethod = "/" + serviceName + "/Synthesize"
	listVoicesMethod = "/" + serviceName + "/ListVoices"

	// voiceHeader names the response header holding the voice that produced
	// a Synthesize stream
	voiceHeader = "aquestalk-voice"
)

// TTSServiceDesc describes the aquestalk.v1.TTS service
var TTSServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*TTSServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListVoices",
			Handler:    _TTS_ListVoices_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Synthesize",
			Handler:       _TTS_Synthesize_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "aquestalk/v1/tts.proto",
}

// RegisterTTSServer registers the TTS service with s
func RegisterTTSServer(s grpc.ServiceRegistrar, srv TTSServer) {
	s.RegisterService(&TTSServiceDesc, srv)
}
