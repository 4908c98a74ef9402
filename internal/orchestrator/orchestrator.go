package orchestrator

import (
	"context"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/valpere/transcritic/internal"
	"github.com/valpere/transcritic/internal/generation"
	"github.com/valpere/transcritic/internal/logger"
	"github.com/valpere/transcritic/internal/markdown"
	"github.com/valpere/transcritic/internal/postprocess"
	"github.com/valpere/transcritic/internal/prompt"
)

// User-facing notices. The specific failure kind is only logged.
const (
	MsgEmptyInput            = "Enter text to translate."
	MsgTranslationFailed     = "Translation failed. Check the connection and try again."
	MsgEvaluationUnavailable = "Could not obtain an evaluation. Try again later."
)

const (
	DefaultTranslatorModel = "Qwen/Qwen3-VL-30B-A3B-Instruct"
	DefaultJudgeModel      = "claude-sonnet-4-5-20250929"
)

type Generator interface {
	Invoke(ctx context.Context, model, prompt string) generation.Outcome
}

type Renderer interface {
	Render(raw string) template.HTML
}

type LanguageChecker interface {
	IsValid(translatedText, targetLanguage string) (bool, error)
}

type Recorder interface {
	SaveRun(ctx context.Context, run internal.Run) error
}

type OrchestratorConfig struct {
	TranslatorModel string
	JudgeModel      string
	// Checker and Recorder are optional.
	Checker  LanguageChecker
	Recorder Recorder
}

// Result is what the view layer renders. Error is empty unless the run was
// rejected or the translation failed.
type Result struct {
	ID               string
	OriginalText     string
	TargetLanguage   string
	TranslatedText   string
	HasTranslation   bool
	Evaluation       template.HTML
	EvaluationRaw    string
	// EvaluationFailed marks a degraded run: the translation stands but the
	// judge call failed and Evaluation holds the fallback notice.
	EvaluationFailed bool
	Error            string
	State            State
	LanguageMismatch bool
	Duration         time.Duration
}

// Orchestrator is immutable after New and safe for concurrent Process calls;
// all per-request state lives in a run.
type Orchestrator struct {
	gen      Generator
	renderer Renderer
	config   OrchestratorConfig
	log      *zap.Logger
}

func New(gen Generator, renderer Renderer, config OrchestratorConfig, log *zap.Logger) *Orchestrator {
	if config.TranslatorModel == "" {
		config.TranslatorModel = DefaultTranslatorModel
	}
	if config.JudgeModel == "" {
		config.JudgeModel = DefaultJudgeModel
	}
	if renderer == nil {
		renderer = markdown.NewRenderer()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		gen:      gen,
		renderer: renderer,
		config:   config,
		log:      log,
	}
}

// Process translates text into language and critiques the translation.
// It makes no generation calls for blank text, one when the translation
// fails and two otherwise. A logger attached to ctx takes precedence over
// the orchestrator's own.
func (o *Orchestrator) Process(ctx context.Context, text, language string) *Result {
	r := &run{
		o:     o,
		state: StateIdle,
		log:   logger.FromCtx(ctx, o.log).With(zap.String("language", language)),
		result: &Result{
			ID:             uuid.New().String(),
			OriginalText:   text,
			TargetLanguage: language,
		},
	}
	r.log = r.log.With(zap.String("run_id", r.result.ID))

	start := time.Now()
	r.execute(ctx)
	r.result.Duration = time.Since(start)
	r.result.State = r.state

	if !r.state.Terminal() {
		r.log.DPanic("run ended in a non-terminal state", zap.Stringer("state", r.state))
	}
	if r.state != StateRejected {
		o.record(ctx, r.result)
	}
	return r.result
}

func (o *Orchestrator) record(ctx context.Context, res *Result) {
	if o.config.Recorder == nil {
		return
	}
	// The history write outlives a client that disconnects mid-request.
	err := o.config.Recorder.SaveRun(context.WithoutCancel(ctx), internal.Run{
		ID:               res.ID,
		OriginalText:     res.OriginalText,
		TargetLanguage:   res.TargetLanguage,
		TranslatedText:   res.TranslatedText,
		EvaluationRaw:    res.EvaluationRaw,
		EvaluationFailed: res.EvaluationFailed,
		State:            string(res.State),
		Error:            res.Error,
		LanguageMismatch: res.LanguageMismatch,
		Timestamp:        time.Now(),
	})
	if err != nil {
		logger.FromCtx(ctx, o.log).Warn("failed to record run", zap.String("run_id", res.ID), zap.Error(err))
	}
}

type run struct {
	o      *Orchestrator
	state  State
	result *Result
	log    *zap.Logger
}

func (r *run) transition(next State) {
	r.log.Debug("pipeline state change", zap.Stringer("from", r.state), zap.Stringer("to", next))
	r.state = next
}

func (r *run) execute(ctx context.Context) {
	res := r.result

	if strings.TrimSpace(res.OriginalText) == "" {
		r.log.Warn("received empty text")
		res.Error = MsgEmptyInput
		r.transition(StateRejected)
		return
	}

	r.transition(StateTranslating)
	r.log.Info("translating", zap.String("model", r.o.config.TranslatorModel))

	out := r.o.gen.Invoke(ctx, r.o.config.TranslatorModel, prompt.Translation(res.OriginalText, res.TargetLanguage))
	if !out.OK() {
		r.log.Warn("translation failed", zap.Error(out.Failure()))
		res.Error = MsgTranslationFailed
		r.transition(StateTranslationFailed)
		return
	}

	res.TranslatedText = postprocess.Clean(out.Text(), res.OriginalText)
	res.HasTranslation = true
	r.checkLanguage()

	r.transition(StateEvaluating)
	r.log.Info("evaluating", zap.String("model", r.o.config.JudgeModel))

	out = r.o.gen.Invoke(ctx, r.o.config.JudgeModel, prompt.Evaluation(res.OriginalText, res.TranslatedText, res.TargetLanguage))
	if !out.OK() {
		r.log.Warn("evaluation unavailable", zap.Error(out.Failure()))
		res.EvaluationFailed = true
		res.Evaluation = template.HTML(template.HTMLEscapeString(MsgEvaluationUnavailable)) //nolint:gosec // escaped constant
	} else {
		res.EvaluationRaw = out.Text()
		res.Evaluation = r.o.renderer.Render(out.Text())
	}
	r.transition(StateDone)
}

func (r *run) checkLanguage() {
	checker := r.o.config.Checker
	if checker == nil || r.result.TranslatedText == "" {
		return
	}
	if ok, err := checker.IsValid(r.result.TranslatedText, r.result.TargetLanguage); !ok {
		r.result.LanguageMismatch = true
		r.log.Warn("translation language mismatch", zap.Error(err))
	}
}
