package backend

import (
	stderrors "errors"
	"strings"
	"testing"

	"tailorflow/internal/errors"
	"tailorflow/internal/types"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "bare object",
			text: `{"a":1}`,
			want: `{"a":1}`,
		},
		{
			name: "fenced object",
			text: "```json\n{\"a\":1}\n```",
			want: `{"a":1}`,
		},
		{
			name: "object in prose",
			text: `Here is the result: {"a":{"b":2}} hope it helps`,
			want: `{"a":{"b":2}}`,
		},
		{
			name: "no object",
			text: "sorry, I cannot help with that",
			want: "",
		},
		{
			name: "empty",
			text: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSONObject(tt.text); got != tt.want {
				t.Errorf("extractJSONObject() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTailoringJSON(t *testing.T) {
	valid := `{
		"tailoredResume": {
			"personalInfo": {"name": "Jane Doe", "email": "jane@example.com"},
			"summary": "Engineer.",
			"skills": ["Go"]
		},
		"matchScore": 86.6,
		"suggestions": ["Add metrics"],
		"keywordMatches": ["go"],
		"improvementAreas": []
	}`

	result, err := parseTailoringJSON(valid)
	if err != nil {
		t.Fatalf("parseTailoringJSON() error = %v", err)
	}
	if result.TailoredResume.PersonalInfo.Name != "Jane Doe" {
		t.Errorf("name = %q, want Jane Doe", result.TailoredResume.PersonalInfo.Name)
	}
	if result.MatchScore != 87 {
		t.Errorf("matchScore = %d, want 87 (rounded)", result.MatchScore)
	}
	if len(result.Suggestions) != 1 || result.Suggestions[0] != "Add metrics" {
		t.Errorf("unexpected suggestions: %v", result.Suggestions)
	}
	if result.ImprovementAreas == nil {
		t.Error("improvementAreas should be an empty slice, not nil")
	}
}

func TestParseTailoringJSONErrors(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantCode string
	}{
		{
			name:     "no JSON at all",
			text:     "the model refused",
			wantCode: errors.ErrCodeMalformedResponse,
		},
		{
			name:     "broken JSON",
			text:     `{"tailoredResume": `,
			wantCode: errors.ErrCodeMalformedResponse,
		},
		{
			name:     "missing matchScore",
			text:     `{"tailoredResume": {"personalInfo": {"name": "A", "email": "a@b.c"}}}`,
			wantCode: errors.ErrCodeSchemaViolation,
		},
		{
			name:     "missing tailoredResume",
			text:     `{"matchScore": 80}`,
			wantCode: errors.ErrCodeSchemaViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseTailoringJSON(tt.text)
			if err == nil {
				t.Fatal("parseTailoringJSON() expected error")
			}
			var appErr *errors.AppError
			if !stderrors.As(err, &appErr) {
				t.Fatalf("error is not *AppError: %v", err)
			}
			if appErr.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", appErr.Code, tt.wantCode)
			}
			if appErr.Type != errors.ErrorTypeBackend {
				t.Errorf("type = %s, want %s", appErr.Type, errors.ErrorTypeBackend)
			}
		})
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		score float64
		want  int
	}{
		{-5, 0},
		{0, 0},
		{67.4, 67},
		{86.6, 87},
		{100, 100},
		{150, 100},
	}

	for _, tt := range tests {
		if got := clampScore(tt.score); got != tt.want {
			t.Errorf("clampScore(%v) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestBuildTailoringPrompt(t *testing.T) {
	resume := types.ResumeDocument{
		PersonalInfo: types.PersonalInfo{Name: "Jane Doe", Email: "jane@example.com"},
		Summary:      "Backend engineer.",
		Skills:       []string{"Go", "PostgreSQL"},
	}
	job := types.JobDescription{
		Title:       "Platform Engineer",
		Description: "Build services in Go.",
	}
	opts := types.DefaultTailoringOptions(types.TemplateModern)

	prompt, err := buildTailoringPrompt(resume, job, opts)
	if err != nil {
		t.Fatalf("buildTailoringPrompt() error = %v", err)
	}

	for _, want := range []string{
		"Jane Doe",
		"Platform Engineer",
		"Build services in Go.",
		"Template: modern",
		"Optimize for ATS: true",
		`"tailoredResume"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// Optional fields fall back to a placeholder instead of empty strings
	if !strings.Contains(prompt, "Company: Not specified") {
		t.Error("prompt should mark missing company as not specified")
	}
}
