// Package web serves the translation form.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/valpere/transcritic/internal/logger"
	"github.com/valpere/transcritic/internal/orchestrator"
)

// DefaultLanguage is used when the form omits the language field.
const DefaultLanguage = "English"

// Languages offered in the form.
var Languages = []string{
	"English", "French", "German", "Spanish", "Italian",
	"Ukrainian", "Russian", "Chinese", "Japanese",
}

// maxFormBytes bounds the POST body.
const maxFormBytes = 1 << 20

//go:embed templates/index.html
var templates embed.FS

// Processor runs the translate-then-critique pipeline.
type Processor interface {
	Process(ctx context.Context, text, language string) *orchestrator.Result
}

type page struct {
	Text      string
	Language  string
	Languages []string
	Result    *orchestrator.Result
}

type handler struct {
	proc Processor
	tmpl *template.Template
	log  *zap.Logger
}

// NewHandler builds the HTTP handler for the form page and the health probe.
func NewHandler(proc Processor, log *zap.Logger) (http.Handler, error) {
	if proc == nil {
		return nil, fmt.Errorf("web: processor is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	tmpl, err := template.ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("web: parse templates: %w", err)
	}

	h := &handler{proc: proc, tmpl: tmpl, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("POST /{$}", h.submit)
	mux.HandleFunc("GET /healthz", healthz)
	return mux, nil
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, page{Language: DefaultLanguage, Languages: Languages})
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	text := strings.TrimSpace(r.PostForm.Get("text"))
	language := strings.TrimSpace(r.PostForm.Get("language"))
	if language == "" {
		language = DefaultLanguage
	}

	lg := h.log.With(zap.String("remote", r.RemoteAddr))
	ctx := logger.WrapInCtx(r.Context(), lg)
	res := h.proc.Process(ctx, text, language)

	lg.Info("request processed",
		zap.String("run_id", res.ID),
		zap.Stringer("state", res.State),
		zap.Duration("duration", res.Duration),
	)

	h.render(w, r, page{
		Text:      text,
		Language:  language,
		Languages: languagesWith(language),
		Result:    res,
	})
}

// languagesWith keeps a submitted language that is not in the default list
// selectable on the result page.
func languagesWith(language string) []string {
	if slices.Contains(Languages, language) {
		return Languages
	}
	return append(slices.Clone(Languages), language)
}

func (h *handler) render(w http.ResponseWriter, r *http.Request, p page) {
	var buf strings.Builder
	if err := h.tmpl.ExecuteTemplate(&buf, "index.html", p); err != nil {
		logger.FromCtx(r.Context(), h.log).Error("failed to render page", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, buf.String())
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}
