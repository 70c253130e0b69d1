package backend

import (
	"encoding/json"
	"fmt"
	"strings"

	"tailorflow/internal/errors"
	"tailorflow/internal/types"
)

const tailoringPromptTemplate = `You are an expert resume writer and career coach. Your task is to tailor a resume for a specific job application.

ORIGINAL RESUME:
%s

TARGET JOB:
Title: %s
Company: %s
Description: %s
Requirements: %s

TAILORING OPTIONS:
Template: %s
Focus Areas: %s
Industry Keywords: %s
Optimize for ATS: %t

INSTRUCTIONS:
1. Tailor the resume to match the job requirements while keeping all information truthful
2. Optimize the professional summary to highlight relevant experience for this specific role
3. Reorder and enhance experience bullet points to emphasize achievements relevant to the target job
4. Adjust skills section to prioritize skills mentioned in the job description
5. Use keywords from the job description naturally throughout the resume
6. Maintain the original structure but optimize content for maximum impact
7. Provide a match score (0-100) indicating how well the tailored resume matches the job
8. Suggest 3-5 specific improvements
9. List keyword matches found between the resume and job description

Respond with a single JSON object containing the keys "tailoredResume", "matchScore", "suggestions", "keywordMatches" and "improvementAreas". The "tailoredResume" value must use the same structure as the original resume. Ensure the response is valid JSON and all fields are properly filled.`

// buildTailoringPrompt renders the full-resume prompt sent to the model
func buildTailoringPrompt(resume types.ResumeDocument, job types.JobDescription, opts types.TailoringOptions) (string, error) {
	resumeJSON, err := json.MarshalIndent(resume, "", "  ")
	if err != nil {
		return "", errors.NewInternalError(errors.ErrCodeInvalidInput, "Failed to serialize resume for prompt", err)
	}

	return fmt.Sprintf(tailoringPromptTemplate,
		string(resumeJSON),
		job.Title,
		orPlaceholder(job.Company),
		job.Description,
		orPlaceholder(strings.Join(job.Requirements, ", ")),
		opts.Template,
		orPlaceholder(strings.Join(opts.FocusAreas, ", ")),
		orPlaceholder(strings.Join(opts.IndustryKeywords, ", ")),
		opts.OptimizeForATS,
	), nil
}

func orPlaceholder(s string) string {
	if s == "" {
		return "Not specified"
	}
	return s
}

// extractJSONObject returns the outermost JSON object embedded in free
// text, or "" when no object is present. Models occasionally wrap the
// payload in prose or code fences even when asked for bare JSON.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// parseTailoringJSON decodes a backend response into a TailoringResult.
// tailoredResume and matchScore are required; the remaining fields
// default to empty slices. The score is clamped into [0,100].
func parseTailoringJSON(text string) (types.TailoringResult, error) {
	raw := extractJSONObject(text)
	if raw == "" {
		return types.TailoringResult{}, errors.NewBackendError(errors.ErrCodeMalformedResponse,
			"No JSON object found in backend response", nil)
	}

	var parsed struct {
		TailoredResume   *types.ResumeDocument `json:"tailoredResume"`
		MatchScore       *float64              `json:"matchScore"`
		Suggestions      []string              `json:"suggestions"`
		KeywordMatches   []string              `json:"keywordMatches"`
		ImprovementAreas []string              `json:"improvementAreas"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return types.TailoringResult{}, errors.NewBackendError(errors.ErrCodeMalformedResponse,
			"Failed to parse backend response", err)
	}

	if parsed.TailoredResume == nil || parsed.MatchScore == nil {
		return types.TailoringResult{}, errors.NewBackendError(errors.ErrCodeSchemaViolation,
			"Backend response is missing tailoredResume or matchScore", nil)
	}

	return types.TailoringResult{
		TailoredResume:   *parsed.TailoredResume,
		MatchScore:       clampScore(*parsed.MatchScore),
		Suggestions:      orEmpty(parsed.Suggestions),
		KeywordMatches:   orEmpty(parsed.KeywordMatches),
		ImprovementAreas: orEmpty(parsed.ImprovementAreas),
	}, nil
}

func clampScore(score float64) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(score + 0.5)
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
