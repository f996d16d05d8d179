// Interviewcoach serves an interview-practice coach: a fixed question bank in
// three stages, typed or spoken answers, speech transcription, and feedback
// from an OpenAI-compatible chat completions API.
//
// Usage:
//
//	interviewcoach [flags]
//	interviewcoach --config /path/to/interviewcoach.yaml
//
// @title       Interview Coach API
// @version     1.0
// @description Interview practice coach: fixed question bank, speech transcription, and LLM feedback.
// @BasePath    /
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/capture"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/coach"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/config"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/dispatch"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/health"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/questions"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/telemetry"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/transcriber"
	localstt "github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/transcriber/local"
	openaistt "github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/transcriber/openai"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/transport"
	grpctransport "github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/transport/grpc"
	httptransport "github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/transport/http"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/tts"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/tts/piper"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/interviewcoach.yaml)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("interviewcoach %s\n", version)
		os.Exit(0)
	}

	// A .env file is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	config.SetupLogging(cfg.Logging)
	slog.Info("interviewcoach starting",
		"version", version,
		"capture_mode", cfg.UI.CaptureMode,
		"answer_policy", cfg.UI.AnswerPolicy)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, version)
	if err != nil {
		slog.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()

	kit, err := questions.Load(cfg.UI.KitFile)
	if err != nil {
		slog.Error("failed to load interview kit", "error", err)
		os.Exit(1)
	}
	slog.Info("interview kit loaded", "company", kit.Context.Company, "stages", len(kit.Stages))

	var stt transcriber.Transcriber
	switch cfg.Transcriber.Backend {
	case "openai":
		stt = openaistt.New(cfg.Transcriber.OpenAI, cfg.Transcriber.Language)
		slog.Info("using OpenAI transcriber", "model", cfg.Transcriber.OpenAI.Model)
	case "local":
		stt = localstt.New(cfg.Transcriber.Local, cfg.Transcriber.Language)
		slog.Info("using local transcriber", "endpoint", cfg.Transcriber.Local.Endpoint)
	default:
		slog.Error("unknown transcriber backend", "backend", cfg.Transcriber.Backend)
		os.Exit(1)
	}
	defer stt.Close()

	feedback, err := coach.New(cfg.Coach, kit.Context)
	if err != nil {
		slog.Error("failed to build coach", "error", err)
		os.Exit(1)
	}
	defer feedback.Close()
	slog.Info("using coach", "base_url", cfg.Coach.BaseURL, "model", feedback.Model())

	opts := dispatch.Options{
		AnswerPolicy: cfg.UI.AnswerPolicy,
		Language:     cfg.Transcriber.Language,
	}
	if cfg.UI.CaptureMode == config.CaptureLive {
		opts.Listener = capture.New(cfg.Capture)
	}
	dispatcher := dispatch.New(kit, stt, feedback, opts)

	var narrator tts.Synthesizer
	if cfg.TTS.Enabled {
		narrator = piper.New(cfg.TTS)
		defer narrator.Close()
		slog.Info("question narration enabled", "endpoint", cfg.TTS.Endpoint, "voice", cfg.TTS.Voice)
	}

	var transports []transport.Transport
	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(cfg.Transports.HTTP.Port, httptransport.Options{
			CaptureMode: cfg.UI.CaptureMode,
			SampleRate:  cfg.Capture.SampleRate,
			Narrator:    narrator,
		}))
	}
	if cfg.Transports.GRPC.Enabled {
		transports = append(transports, grpctransport.New(cfg.Transports.GRPC.Port))
	}

	healthServer := health.New(cfg.Server.HealthPort)
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	var wg sync.WaitGroup
	for _, t := range transports {
		healthServer.SetComponent(t.Name(), false)
		go func(t transport.Transport) {
			select {
			case <-t.Ready():
				healthServer.SetComponent(t.Name(), true)
			case <-ctx.Done():
			}
		}(t)
		wg.Add(1)
		go func(t transport.Transport) {
			defer wg.Done()
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx, dispatcher); err != nil {
				slog.Error("transport failed", "name", t.Name(), "error", err)
				healthServer.SetComponent(t.Name(), false)
			}
		}(t)
	}

	healthServer.SetReady(true)
	slog.Info("interviewcoach ready",
		"transports", len(transports),
		"health_port", cfg.Server.HealthPort)

	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")
	healthServer.SetReady(false)

	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	wg.Wait()
	slog.Info("interviewcoach stopped")
}
