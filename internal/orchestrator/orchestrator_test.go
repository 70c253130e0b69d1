package orchestrator

import (
	"context"
	"log/slog"
	"reflect"
	"testing"

	"tailorflow/internal/analyzer"
	"tailorflow/internal/backend"
	"tailorflow/internal/config"
	"tailorflow/internal/engine"
	"tailorflow/internal/errors"
	"tailorflow/internal/types"
)

// fakeProvider is a scripted chain member for fallback tests
type fakeProvider struct {
	name   string
	result types.TailoringResult
	err    error
	calls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Tailor(ctx context.Context, resume types.ResumeDocument, job types.JobDescription, opts types.TailoringOptions) (types.TailoringResult, error) {
	f.calls++
	return f.result, f.err
}

func testLogger() *errors.Logger {
	return errors.NewLogger(slog.LevelError)
}

func testResume() types.ResumeDocument {
	return types.ResumeDocument{
		PersonalInfo: types.PersonalInfo{Name: "Jane Doe", Email: "jane@example.com"},
		Summary:      "Backend engineer building services.",
		Experience: []types.ExperienceEntry{
			{
				Title:        "Software Engineer",
				Company:      "Acme",
				Achievements: []string{"Built the Python billing pipeline"},
			},
		},
		Skills: []string{"Python", "SQL"},
	}
}

func testJob() types.JobDescription {
	return types.JobDescription{
		Title:       "Backend Engineer",
		Description: "We need Python and AWS experience to build APIs.",
	}
}

func newTestOrchestrator(providers ...backend.Provider) *Orchestrator {
	an := analyzer.New()
	return New(providers, engine.New(an), an, testLogger())
}

func TestTailorFallsBackToEngineWhenAllBackendsFail(t *testing.T) {
	failure := errors.NewBackendError(errors.ErrCodeBackendFailed, "down", nil)
	first := &fakeProvider{name: "webhook", err: failure}
	second := &fakeProvider{name: "gemini", err: failure}

	o := newTestOrchestrator(first, second)
	got := o.Tailor(context.Background(), testResume(), testJob(), types.DefaultTailoringOptions(types.TemplateModern))

	if first.calls != 1 || second.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", first.calls, second.calls)
	}

	an := analyzer.New()
	want := engine.New(an).Tailor(testResume(), testJob(), types.DefaultTailoringOptions(types.TemplateModern))
	if !reflect.DeepEqual(got, want) {
		t.Errorf("fallback result diverges from the rule-based engine\ngot:  %+v\nwant: %+v", got, want)
	}
}

func TestTailorStopsAtFirstSuccess(t *testing.T) {
	winner := &fakeProvider{
		name: "webhook",
		result: types.TailoringResult{
			TailoredResume: testResume(),
			MatchScore:     80,
			Suggestions:    []string{"keep it up"},
		},
	}
	unused := &fakeProvider{name: "gemini"}

	o := newTestOrchestrator(winner, unused)
	got := o.Tailor(context.Background(), testResume(), testJob(), types.DefaultTailoringOptions(types.TemplateModern))

	if unused.calls != 0 {
		t.Errorf("later provider was called %d times, want 0", unused.calls)
	}
	if got.MatchScore != 80 {
		t.Errorf("matchScore = %d, want 80", got.MatchScore)
	}
	if len(got.Suggestions) != 1 {
		t.Errorf("suggestions were not preserved: %v", got.Suggestions)
	}
}

func TestTailorPostProcessRecomputesLocalFields(t *testing.T) {
	// The backend reports keyword matches that don't exist in the resume;
	// post-processing must replace them with locally-derived values.
	winner := &fakeProvider{
		name: "gemini",
		result: types.TailoringResult{
			TailoredResume: testResume(),
			MatchScore:     150,
			KeywordMatches: []string{"blockchain", "cobol"},
		},
	}

	o := newTestOrchestrator(winner)
	got := o.Tailor(context.Background(), testResume(), testJob(), types.DefaultTailoringOptions(types.TemplateModern))

	for _, kw := range got.KeywordMatches {
		if kw == "blockchain" || kw == "cobol" {
			t.Errorf("backend-reported keyword %q survived post-processing", kw)
		}
	}
	found := false
	for _, kw := range got.KeywordMatches {
		if kw == "python" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected python in recomputed matches, got %v", got.KeywordMatches)
	}
	if got.MatchScore != 100 {
		t.Errorf("matchScore = %d, want clamped to 100", got.MatchScore)
	}
	if got.ImprovementAreas == nil {
		t.Error("improvementAreas must be recomputed, not nil")
	}
}

func TestTailorRejectsEmptyBackendResume(t *testing.T) {
	empty := &fakeProvider{
		name:   "webhook",
		result: types.TailoringResult{MatchScore: 90},
	}

	o := newTestOrchestrator(empty)
	got := o.Tailor(context.Background(), testResume(), testJob(), types.DefaultTailoringOptions(types.TemplateModern))

	// The empty result must be discarded in favor of the engine
	if got.TailoredResume.PersonalInfo.Name != "Jane Doe" {
		t.Errorf("expected engine fallback resume, got %+v", got.TailoredResume.PersonalInfo)
	}
}

func TestNewFromConfigSkipsUnconfiguredBackends(t *testing.T) {
	cfg := &config.BackendsConfig{
		Order: []string{"webhook", "gemini", "mystery"},
		// No credentials configured for either backend
	}

	an := analyzer.New()
	o := NewFromConfig(cfg, engine.New(an), an, testLogger())

	stats := o.Stats()
	chain, ok := stats["chain"].([]string)
	if !ok {
		t.Fatalf("chain has unexpected type: %T", stats["chain"])
	}
	if len(chain) != 1 || chain[0] != "engine" {
		t.Errorf("chain = %v, want [engine]", chain)
	}
}

func TestStatsReportsChainOrder(t *testing.T) {
	o := newTestOrchestrator(
		&fakeProvider{name: "webhook"},
		&fakeProvider{name: "gemini"},
	)

	stats := o.Stats()
	chain := stats["chain"].([]string)
	want := []string{"webhook", "gemini", "engine"}
	if !reflect.DeepEqual(chain, want) {
		t.Errorf("chain = %v, want %v", chain, want)
	}
}
