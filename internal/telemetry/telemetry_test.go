package telemetry

import (
	"strings"
	"testing"

	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/config"
)

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(t.Context(), config.TelemetryConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(t.Context()); err != nil {
		t.Errorf("noop shutdown returned %v", err)
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		desc := Sampler(tt.rate).Description()
		if !strings.Contains(desc, tt.want) {
			t.Errorf("rate %v: expected description containing %q, got %q", tt.rate, tt.want, desc)
		}
	}
}
