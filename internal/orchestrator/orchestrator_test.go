package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/valpere/transcritic/internal"
	"github.com/valpere/transcritic/internal/generation"
	"github.com/valpere/transcritic/internal/logger"
	"github.com/valpere/transcritic/internal/markdown"
)

const (
	translatorModel = "translator"
	judgeModel      = "judge"
)

type call struct {
	model  string
	prompt string
}

type mockGenerator struct {
	mu        sync.Mutex
	calls     []call
	callCount atomic.Int32
	translate func(prompt string) generation.Outcome
	evaluate  func(prompt string) generation.Outcome
}

func (m *mockGenerator) Invoke(ctx context.Context, model, prompt string) generation.Outcome {
	m.callCount.Add(1)
	m.mu.Lock()
	m.calls = append(m.calls, call{model: model, prompt: prompt})
	m.mu.Unlock()

	switch model {
	case translatorModel:
		if m.translate != nil {
			return m.translate(prompt)
		}
		return generation.Succeeded("mock translation")
	case judgeModel:
		if m.evaluate != nil {
			return m.evaluate(prompt)
		}
		return generation.Succeeded("**8/10**")
	}
	return generation.Failed(generation.HTTPStatus, 404)
}

func succeed(text string) func(string) generation.Outcome {
	return func(string) generation.Outcome { return generation.Succeeded(text) }
}

func fail(kind generation.ErrorKind) func(string) generation.Outcome {
	return func(string) generation.Outcome { return generation.Failed(kind, 0) }
}

type mockRecorder struct {
	runs    []internal.Run
	ctxErrs []error
	err     error
}

func (m *mockRecorder) SaveRun(ctx context.Context, run internal.Run) error {
	m.runs = append(m.runs, run)
	m.ctxErrs = append(m.ctxErrs, ctx.Err())
	return m.err
}

type mockChecker struct {
	valid bool
	calls int
}

func (m *mockChecker) IsValid(text, lang string) (bool, error) {
	m.calls++
	if m.valid {
		return true, nil
	}
	return false, fmt.Errorf("expected %s", lang)
}

func newOrchestrator(gen Generator, cfg OrchestratorConfig) *Orchestrator {
	cfg.TranslatorModel = translatorModel
	cfg.JudgeModel = judgeModel
	return New(gen, markdown.NewRenderer(), cfg, nil)
}

func TestNew_Defaults(t *testing.T) {
	o := New(&mockGenerator{}, nil, OrchestratorConfig{}, nil)

	require.NotNil(t, o)
	assert.Equal(t, DefaultTranslatorModel, o.config.TranslatorModel)
	assert.Equal(t, DefaultJudgeModel, o.config.JudgeModel)
	assert.NotNil(t, o.renderer)
	assert.NotNil(t, o.log)
}

func TestProcess_Success(t *testing.T) {
	gen := &mockGenerator{translate: succeed("Bonjour"), evaluate: succeed("**9/10**")}
	o := newOrchestrator(gen, OrchestratorConfig{})

	res := o.Process(context.Background(), "Hello", "French")

	assert.Equal(t, "Hello", res.OriginalText)
	assert.Equal(t, "French", res.TargetLanguage)
	assert.True(t, res.HasTranslation)
	assert.Equal(t, "Bonjour", res.TranslatedText)
	assert.Contains(t, string(res.Evaluation), "<strong>9/10</strong>")
	assert.Equal(t, "**9/10**", res.EvaluationRaw)
	assert.Empty(t, res.Error)
	assert.Equal(t, StateDone, res.State)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, int32(2), gen.callCount.Load())

	require.Len(t, gen.calls, 2)
	assert.Equal(t, translatorModel, gen.calls[0].model)
	assert.Contains(t, gen.calls[0].prompt, "Hello")
	assert.Contains(t, gen.calls[0].prompt, "French")
	assert.Equal(t, judgeModel, gen.calls[1].model)
	assert.Contains(t, gen.calls[1].prompt, "Hello")
	assert.Contains(t, gen.calls[1].prompt, "Bonjour")
	assert.Contains(t, gen.calls[1].prompt, "French")
}

func TestProcess_EmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t  \n"} {
		t.Run(fmt.Sprintf("%q", text), func(t *testing.T) {
			gen := &mockGenerator{}
			rec := &mockRecorder{}
			o := newOrchestrator(gen, OrchestratorConfig{Recorder: rec})

			res := o.Process(context.Background(), text, "French")

			assert.Equal(t, MsgEmptyInput, res.Error)
			assert.False(t, res.HasTranslation)
			assert.Empty(t, res.Evaluation)
			assert.Equal(t, StateRejected, res.State)
			assert.Equal(t, int32(0), gen.callCount.Load())
			assert.Empty(t, rec.runs)
		})
	}
}

func TestProcess_TranslationFailure(t *testing.T) {
	kinds := []generation.ErrorKind{
		generation.MissingCredential,
		generation.ConnectionFailure,
		generation.Timeout,
		generation.HTTPStatus,
		generation.ResponseParseFailure,
	}

	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			gen := &mockGenerator{translate: fail(kind)}
			o := newOrchestrator(gen, OrchestratorConfig{})

			res := o.Process(context.Background(), "Hello", "French")

			assert.Equal(t, MsgTranslationFailed, res.Error)
			assert.False(t, res.HasTranslation)
			assert.Empty(t, res.TranslatedText)
			assert.Empty(t, res.Evaluation)
			assert.Equal(t, "Hello", res.OriginalText)
			assert.Equal(t, StateTranslationFailed, res.State)
			assert.Equal(t, int32(1), gen.callCount.Load())
			assert.NotContains(t, res.Error, kind.String())
		})
	}
}

func TestProcess_EvaluationFailureIsDegradedSuccess(t *testing.T) {
	gen := &mockGenerator{translate: succeed("X"), evaluate: fail(generation.Timeout)}
	o := newOrchestrator(gen, OrchestratorConfig{})

	res := o.Process(context.Background(), "Hello", "French")

	assert.True(t, res.HasTranslation)
	assert.Equal(t, "X", res.TranslatedText)
	assert.Equal(t, MsgEvaluationUnavailable, string(res.Evaluation))
	assert.Empty(t, res.EvaluationRaw)
	assert.True(t, res.EvaluationFailed)
	assert.Empty(t, res.Error)
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, int32(2), gen.callCount.Load())
}

func TestProcess_EmptyTranslationStillEvaluated(t *testing.T) {
	gen := &mockGenerator{translate: succeed(""), evaluate: succeed("1/10")}
	o := newOrchestrator(gen, OrchestratorConfig{})

	res := o.Process(context.Background(), "Hello", "French")

	assert.True(t, res.HasTranslation)
	assert.Empty(t, res.TranslatedText)
	assert.Empty(t, res.Error)
	assert.Equal(t, int32(2), gen.callCount.Load())
}

func TestProcess_CleansTranslationArtifacts(t *testing.T) {
	gen := &mockGenerator{translate: succeed("<think>hmm</think>Here is the translation: \"Bonjour\"")}
	o := newOrchestrator(gen, OrchestratorConfig{})

	res := o.Process(context.Background(), "Hello", "French")

	assert.Equal(t, "Bonjour", res.TranslatedText)
	require.Len(t, gen.calls, 2)
	assert.Contains(t, gen.calls[1].prompt, "Translation: Bonjour")
}

func TestProcess_TranslationKeptVerbatim(t *testing.T) {
	tests := []struct {
		name        string
		original    string
		translation string
	}{
		{
			name:        "tag mentioned mid-sentence",
			original:    "Use the <think> tag for reasoning, then answer.",
			translation: "Utilisez la balise <think> pour le raisonnement, puis répondez.",
		},
		{
			name:        "quoted input",
			original:    `"Hello"`,
			translation: `"Bonjour"`,
		},
		{
			name:        "label on the same line",
			original:    "translation into French: hi",
			translation: "translation into French: salut",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{translate: succeed(tt.translation)}
			o := newOrchestrator(gen, OrchestratorConfig{})

			res := o.Process(context.Background(), tt.original, "French")

			assert.Equal(t, tt.translation, res.TranslatedText)
			require.Len(t, gen.calls, 2)
			assert.Contains(t, gen.calls[1].prompt, "Translation: "+tt.translation+"\n")
		})
	}
}

func TestProcess_EmptyVerdictIsNotDegraded(t *testing.T) {
	rec := &mockRecorder{}
	gen := &mockGenerator{translate: succeed("Bonjour"), evaluate: succeed("")}
	o := newOrchestrator(gen, OrchestratorConfig{Recorder: rec})

	res := o.Process(context.Background(), "Hello", "French")

	assert.False(t, res.EvaluationFailed)
	require.Len(t, rec.runs, 1)
	assert.False(t, rec.runs[0].EvaluationFailed)
}

func TestProcess_RecordsDegradedRun(t *testing.T) {
	rec := &mockRecorder{}
	gen := &mockGenerator{translate: succeed("Bonjour"), evaluate: fail(generation.HTTPStatus)}
	o := newOrchestrator(gen, OrchestratorConfig{Recorder: rec})

	o.Process(context.Background(), "Hello", "French")

	require.Len(t, rec.runs, 1)
	assert.True(t, rec.runs[0].EvaluationFailed)
	assert.Equal(t, string(StateDone), rec.runs[0].State)
}

func TestProcess_RecordSurvivesCancelledRequest(t *testing.T) {
	rec := &mockRecorder{}
	gen := &mockGenerator{translate: fail(generation.ConnectionFailure)}
	o := newOrchestrator(gen, OrchestratorConfig{Recorder: rec})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o.Process(ctx, "Hello", "French")

	require.Len(t, rec.runs, 1)
	assert.NoError(t, rec.ctxErrs[0])
}

func TestProcess_EvaluationIsSanitized(t *testing.T) {
	gen := &mockGenerator{evaluate: succeed("Score 7 <script>alert(1)</script>")}
	o := newOrchestrator(gen, OrchestratorConfig{})

	res := o.Process(context.Background(), "Hello", "French")

	assert.NotContains(t, string(res.Evaluation), "<script")
	assert.Contains(t, string(res.Evaluation), "&lt;script&gt;")
}

func TestProcess_Recorder(t *testing.T) {
	rec := &mockRecorder{}
	gen := &mockGenerator{translate: succeed("Bonjour"), evaluate: succeed("9/10")}
	o := newOrchestrator(gen, OrchestratorConfig{Recorder: rec})

	res := o.Process(context.Background(), "Hello", "French")

	require.Len(t, rec.runs, 1)
	run := rec.runs[0]
	assert.Equal(t, res.ID, run.ID)
	assert.Equal(t, "Hello", run.OriginalText)
	assert.Equal(t, "Bonjour", run.TranslatedText)
	assert.Equal(t, "9/10", run.EvaluationRaw)
	assert.Equal(t, string(StateDone), run.State)
}

func TestProcess_RecorderErrorIsIgnored(t *testing.T) {
	rec := &mockRecorder{err: errors.New("disk full")}
	gen := &mockGenerator{translate: fail(generation.ConnectionFailure)}
	o := newOrchestrator(gen, OrchestratorConfig{Recorder: rec})

	res := o.Process(context.Background(), "Hello", "French")

	assert.Equal(t, MsgTranslationFailed, res.Error)
	require.Len(t, rec.runs, 1)
	assert.Equal(t, string(StateTranslationFailed), rec.runs[0].State)
}

func TestProcess_LanguageChecker(t *testing.T) {
	checker := &mockChecker{valid: false}
	gen := &mockGenerator{translate: succeed("Hallo")}
	o := newOrchestrator(gen, OrchestratorConfig{Checker: checker})

	res := o.Process(context.Background(), "Hello", "French")

	assert.Equal(t, 1, checker.calls)
	assert.True(t, res.LanguageMismatch)
	assert.Empty(t, res.Error)
	assert.Equal(t, int32(2), gen.callCount.Load())
}

func TestProcess_LanguageCheckerSkippedWhenTranslationFails(t *testing.T) {
	checker := &mockChecker{valid: true}
	gen := &mockGenerator{translate: fail(generation.Timeout)}
	o := newOrchestrator(gen, OrchestratorConfig{Checker: checker})

	o.Process(context.Background(), "Hello", "French")

	assert.Zero(t, checker.calls)
}

func TestProcess_ConcurrentRunsAreIndependent(t *testing.T) {
	gen := &mockGenerator{
		translate: func(p string) generation.Outcome {
			idx := strings.LastIndex(p, "Text: ")
			return generation.Succeeded("T:" + p[idx+len("Text: "):])
		},
	}
	o := newOrchestrator(gen, OrchestratorConfig{})

	const n = 20
	results := make([]*Result, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = o.Process(context.Background(), fmt.Sprintf("text-%d", i), "French")
		}(i)
	}
	wg.Wait()

	ids := make(map[string]bool)
	for i, res := range results {
		assert.Equal(t, fmt.Sprintf("text-%d", i), res.OriginalText)
		assert.Equal(t, fmt.Sprintf("T:text-%d", i), res.TranslatedText)
		ids[res.ID] = true
	}
	assert.Len(t, ids, n)
	assert.Equal(t, int32(2*n), gen.callCount.Load())
}

func TestProcess_UsesLoggerFromContext(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctx := logger.WrapInCtx(context.Background(), zap.New(core).With(zap.String("remote", "10.0.0.1")))

	o := newOrchestrator(&mockGenerator{}, OrchestratorConfig{})
	o.Process(ctx, "   ", "French")

	entries := logs.FilterMessage("received empty text").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "10.0.0.1", entries[0].ContextMap()["remote"])
	assert.Equal(t, "French", entries[0].ContextMap()["language"])
}

func TestState_Terminal(t *testing.T) {
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateRejected.Terminal())
	assert.True(t, StateTranslationFailed.Terminal())
	assert.False(t, StateIdle.Terminal())
	assert.False(t, StateTranslating.Terminal())
	assert.False(t, StateEvaluating.Terminal())
}
