package grpc

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/capture"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/config"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/message"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/questions"
)

type fakeHandler struct {
	kit  *questions.Kit
	last *message.Submission
}

func (f *fakeHandler) Analyze(ctx context.Context, sub *message.Submission) (*message.AnalysisResult, error) {
	f.last = sub
	_, q, err := f.kit.Question(sub.StageID, sub.QuestionIndex)
	if err != nil {
		return nil, err
	}
	return &message.AnalysisResult{
		Stage:    sub.StageID,
		Question: q,
		Answer:   sub.Text,
		Feedback: &message.Feedback{Text: "### 🟢 What You Did Well"},
	}, nil
}

func (f *fakeHandler) Transcribe(ctx context.Context, clip *message.AudioClip) message.Transcript {
	return message.Transcript{}
}

func (f *fakeHandler) Listen(ctx context.Context, src capture.Source) message.Transcript {
	return message.Transcript{}
}

func (f *fakeHandler) Kit() *questions.Kit { return f.kit }

func (f *fakeHandler) AnswerPolicy() string { return config.PolicyPreferAudio }

func newTestClient(t *testing.T) (*grpc.ClientConn, *fakeHandler) {
	t.Helper()
	kit, err := questions.Default()
	if err != nil {
		t.Fatal(err)
	}
	h := &fakeHandler{kit: kit}

	lis := bufconn.Listen(1 << 20)
	tr := New(0)
	srv := tr.Register(h)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() { _ = tr.Close() })

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, h
}

func TestAnalyze(t *testing.T) {
	conn, h := newTestClient(t)

	req := &AnalyzeRequest{Stage: "recruiter", QuestionIndex: 0, Text: "I like robots", APIKey: "k"}
	var res message.AnalysisResult
	err := conn.Invoke(t.Context(), "/"+ServiceName+"/Analyze", req, &res, grpc.CallContentSubtype(codecName))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Answer != "I like robots" || !strings.HasPrefix(res.Question, "Tell me about yourself") {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Feedback == nil || res.Feedback.Text != "### 🟢 What You Did Well" {
		t.Errorf("unexpected feedback %+v", res.Feedback)
	}
	if h.last.APIKey != "k" {
		t.Errorf("expected api key to reach the handler, got %q", h.last.APIKey)
	}
}

func TestAnalyze_InvalidArgument(t *testing.T) {
	conn, _ := newTestClient(t)

	var res message.AnalysisResult
	err := conn.Invoke(t.Context(), "/"+ServiceName+"/Analyze",
		&AnalyzeRequest{Stage: "sales"}, &res, grpc.CallContentSubtype(codecName))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestListStages(t *testing.T) {
	conn, _ := newTestClient(t)

	var res ListStagesResponse
	err := conn.Invoke(t.Context(), "/"+ServiceName+"/ListStages",
		&ListStagesRequest{}, &res, grpc.CallContentSubtype(codecName))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Stages) != 3 || res.Context.Company == "" {
		t.Errorf("unexpected stages response %+v", res)
	}
}

func TestHealth(t *testing.T) {
	conn, _ := newTestClient(t)

	resp, err := healthpb.NewHealthClient(conn).Check(t.Context(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("expected SERVING, got %v", resp.GetStatus())
	}
}

func TestTransport_ReadyAfterBind(t *testing.T) {
	kit, err := questions.Default()
	if err != nil {
		t.Fatal(err)
	}
	tr := New(0)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- tr.Listen(ctx, &fakeHandler{kit: kit}) }()

	select {
	case <-tr.Ready():
	case err := <-done:
		t.Fatalf("listen returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("transport never became ready")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("listen did not return after cancel")
	}
}
