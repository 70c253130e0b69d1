package formatters

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"tailorflow/internal/types"
)

func sampleResult() types.TailoringResult {
	return types.TailoringResult{
		TailoredResume: types.ResumeDocument{
			PersonalInfo: types.PersonalInfo{
				Name:     "Dana Smith",
				Email:    "dana@example.com",
				Phone:    "555-0100",
				Location: "Berlin",
			},
			Summary: "Backend engineer with platform experience.",
			Experience: []types.ExperienceEntry{
				{
					Title:        "Senior Engineer",
					Company:      "Acme",
					Duration:     "2020-2024",
					Achievements: []string{"Led the migration to event-driven ingestion"},
				},
			},
			Education: []types.EducationEntry{
				{Degree: "BSc Computer Science", School: "TU Berlin", Year: "2016"},
			},
			Skills: []string{"go", "kubernetes"},
		},
		MatchScore:       82,
		Suggestions:      []string{"Quantify achievements with concrete metrics"},
		KeywordMatches:   []string{"go"},
		ImprovementAreas: []string{"Consider adding: terraform"},
	}
}

func TestFormatJSON(t *testing.T) {
	registry := NewFormatterRegistry()

	output, err := registry.Format(sampleResult(), "json")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	var decoded types.TailoringResult
	if err := json.Unmarshal([]byte(output), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.MatchScore != 82 {
		t.Errorf("expected match score 82, got %d", decoded.MatchScore)
	}
}

func TestFormatTailoringText(t *testing.T) {
	registry := NewFormatterRegistry()

	output, err := registry.Format(sampleResult(), "text")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	for _, want := range []string{
		"=== TAILORED RESUME ===",
		"Dana Smith",
		"Match Score: 82/100",
		"- go",
		"Consider adding: terraform",
		"1. Quantify achievements with concrete metrics",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("text output missing %q:\n%s", want, output)
		}
	}
}

func TestFormatTailoringMarkdown(t *testing.T) {
	registry := NewFormatterRegistry()

	output, err := registry.Format(sampleResult(), "markdown")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	for _, want := range []string{
		"# Tailored Resume",
		"## Dana Smith",
		"**Match Score:** 82/100",
		"### Matched Keywords",
		"### Experience",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("markdown output missing %q:\n%s", want, output)
		}
	}
}

func TestFormatWorkflowRecord(t *testing.T) {
	registry := NewFormatterRegistry()
	result := sampleResult()
	record := types.WorkflowRecord{
		ID:        "wf-1",
		Status:    types.WorkflowCompleted,
		Progress:  100,
		Result:    &result,
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 3, 1, 10, 0, 5, 0, time.UTC),
	}

	output, err := registry.Format(record, "text")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	for _, want := range []string{"ID: wf-1", "Status: completed", "Progress: 100% (Complete!)", "Match Score: 82/100"} {
		if !strings.Contains(output, want) {
			t.Errorf("workflow text output missing %q:\n%s", want, output)
		}
	}

	markdown, err := registry.Format(record, "markdown")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(markdown, "# Workflow Status") {
		t.Errorf("markdown output missing header:\n%s", markdown)
	}
}

func TestFormatFailedWorkflowIncludesError(t *testing.T) {
	registry := NewFormatterRegistry()
	record := types.WorkflowRecord{
		ID:       "wf-2",
		Status:   types.WorkflowFailed,
		Progress: 40,
		Error:    "Workflow timeout",
	}

	output, err := registry.Format(record, "text")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(output, "Error: Workflow timeout") {
		t.Errorf("expected error line in output:\n%s", output)
	}
}

func TestFormatUnknownFormat(t *testing.T) {
	registry := NewFormatterRegistry()

	if _, err := registry.Format(sampleResult(), "yaml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestUnknownTypeFallsBackToJSON(t *testing.T) {
	registry := NewFormatterRegistry()

	output, err := registry.Format(map[string]int{"a": 1}, "json")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(output, "\"a\": 1") {
		t.Errorf("unexpected JSON fallback output: %s", output)
	}
}
