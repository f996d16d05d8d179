package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/config"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/questions"
	"github.com/MatDawit/GrayMatterSystemsInterviewPrep/internal/transport"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// pageData feeds templates/index.html.tmpl.
type pageData struct {
	Kit          *questions.Kit
	Live         bool
	ManualAccept bool
	SampleRate   int
	Narration    bool
}

// ui renders the single-page practice interface. The kit is immutable, so
// the page is rendered once.
type ui struct {
	page []byte
}

func newUI(handler transport.Handler, opts Options) (*ui, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/index.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing ui template: %w", err)
	}

	data := pageData{
		Kit:          handler.Kit(),
		Live:         opts.CaptureMode == config.CaptureLive,
		ManualAccept: handler.AnswerPolicy() == config.PolicyManualAccept,
		SampleRate:   opts.SampleRate,
		Narration:    opts.Narrator != nil,
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering ui: %w", err)
	}
	return &ui{page: buf.Bytes()}, nil
}

func (u *ui) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(u.page); err != nil {
		slog.Debug("writing ui page", "error", err)
	}
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}
