// Package grpc implements the gRPC transport for interviewcoach.
//
// The Coach service (interviewcoach.v1.Coach) exposes Analyze and ListStages
// with JSON-encoded messages; clients call it with the "json" content
// subtype. The standard grpc.health.v1 service is registered alongside.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"path"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/message"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/questions"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/transport"
)

// ServiceName is the fully-qualified Coach service name.
const ServiceName = "interviewcoach.v1.Coach"

// AnalyzeRequest is the request message of Coach/Analyze.
type AnalyzeRequest struct {
	Stage            string `json:"stage"`
	QuestionIndex    int    `json:"question_index"`
	Text             string `json:"text"`
	APIKey           string `json:"api_key"`
	Audio            []byte `json:"audio,omitempty"`
	AudioContentType string `json:"audio_content_type,omitempty"`
}

// ListStagesRequest is the request message of Coach/ListStages.
type ListStagesRequest struct{}

// ListStagesResponse is the response message of Coach/ListStages.
type ListStagesResponse struct {
	Context      questions.JobContext `json:"context"`
	Stages       []message.Stage      `json:"stages"`
	AnswerPolicy string               `json:"answer_policy"`
}

// coachServer is the HandlerType of the service descriptor.
type coachServer interface {
	Analyze(ctx context.Context, req *AnalyzeRequest) (*message.AnalysisResult, error)
	ListStages(ctx context.Context, req *ListStagesRequest) (*ListStagesResponse, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*coachServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Analyze",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				in := new(AnalyzeRequest)
				if err := dec(in); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(coachServer).Analyze(ctx, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Analyze"}
				return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
					return srv.(coachServer).Analyze(ctx, req.(*AnalyzeRequest))
				})
			},
		},
		{
			MethodName: "ListStages",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				in := new(ListStagesRequest)
				if err := dec(in); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(coachServer).ListStages(ctx, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/ListStages"}
				return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
					return srv.(coachServer).ListStages(ctx, req.(*ListStagesRequest))
				})
			},
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "interviewcoach/v1/coach.proto",
}

// service adapts a transport.Handler to coachServer.
type service struct {
	handler transport.Handler
}

func (s *service) Analyze(ctx context.Context, req *AnalyzeRequest) (*message.AnalysisResult, error) {
	sub := &message.Submission{
		StageID:       req.Stage,
		QuestionIndex: req.QuestionIndex,
		Text:          req.Text,
		APIKey:        req.APIKey,
	}
	if len(req.Audio) > 0 {
		sub.Audio = &message.AudioClip{Data: req.Audio, ContentType: req.AudioContentType}
	}
	res, err := s.handler.Analyze(ctx, sub)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return res, nil
}

func (s *service) ListStages(ctx context.Context, _ *ListStagesRequest) (*ListStagesResponse, error) {
	kit := s.handler.Kit()
	return &ListStagesResponse{
		Context:      kit.Context,
		Stages:       kit.Stages,
		AnswerPolicy: s.handler.AnswerPolicy(),
	}, nil
}

// loggingInterceptor logs each call with its method, duration, and status.
func loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	st := status.Convert(err)
	attrs := []any{
		"method", path.Base(info.FullMethod),
		"duration", time.Since(start),
		"status", st.Code().String(),
	}
	if err != nil {
		slog.Info("grpc call failed", append(attrs, "error", st.Message())...)
	} else {
		slog.Debug("grpc call completed", attrs...)
	}
	return resp, err
}

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port   int
	server *grpc.Server
	health *health.Server
	ready  chan struct{}
}

// New creates a new gRPC transport on the given port.
func New(port int) *Transport {
	return &Transport{port: port, ready: make(chan struct{})}
}

// Ready is closed once the listener is bound.
func (t *Transport) Ready() <-chan struct{} { return t.ready }

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Register builds the server and registers the Coach and health services.
func (t *Transport) Register(handler transport.Handler) *grpc.Server {
	t.server = grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor))
	t.server.RegisterService(&serviceDesc, &service{handler: handler})

	t.health = health.NewServer()
	healthpb.RegisterHealthServer(t.server, t.health)
	t.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	t.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return t.server
}

// Listen starts the gRPC server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	srv := t.Register(handler)
	close(t.ready)
	slog.Info("grpc transport listening", "addr", lis.Addr().String(), "service", ServiceName)

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		t.health.Shutdown()
		srv.GracefulStop()
	}()

	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Close gracefully stops the gRPC server.
func (t *Transport) Close() error {
	if t.health != nil {
		t.health.Shutdown()
	}
	if t.server != nil {
		t.server.GracefulStop()
	}
	return nil
}
