package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"tailorflow/internal/types"
	"tailorflow/internal/workflow"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "TailoringResult", &TailoringTextFormatter{})
	registry.RegisterFormatter("markdown", "TailoringResult", &TailoringMarkdownFormatter{})
	registry.RegisterFormatter("text", "WorkflowRecord", &WorkflowTextFormatter{})
	registry.RegisterFormatter("markdown", "WorkflowRecord", &WorkflowMarkdownFormatter{})
	registry.RegisterFormatter("text", "KeywordAnalysis", &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "KeywordAnalysis", &AnalysisMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.TailoringResult:
		return "TailoringResult"
	case types.WorkflowRecord:
		return "WorkflowRecord"
	case types.KeywordAnalysis:
		return "KeywordAnalysis"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// TailoringTextFormatter handles text formatting for tailoring results
type TailoringTextFormatter struct{}

func (ttf *TailoringTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.TailoringResult)
	if !ok {
		return "", fmt.Errorf("expected TailoringResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== TAILORED RESUME ===\n\n")
	writeResumeText(&output, &result.TailoredResume)

	output.WriteString("=== MATCH ANALYSIS ===\n")
	output.WriteString(fmt.Sprintf("Match Score: %d/100\n\n", result.MatchScore))

	if len(result.KeywordMatches) > 0 {
		output.WriteString("Matched Keywords:\n")
		for _, keyword := range result.KeywordMatches {
			output.WriteString(fmt.Sprintf("- %s\n", keyword))
		}
		output.WriteString("\n")
	}

	if len(result.ImprovementAreas) > 0 {
		output.WriteString("Improvement Areas:\n")
		for _, area := range result.ImprovementAreas {
			output.WriteString(fmt.Sprintf("- %s\n", area))
		}
		output.WriteString("\n")
	}

	if len(result.Suggestions) > 0 {
		output.WriteString("Suggestions:\n")
		for i, suggestion := range result.Suggestions {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, suggestion))
		}
	}

	return output.String(), nil
}

func (ttf *TailoringTextFormatter) SupportedType() string {
	return "TailoringResult"
}

// TailoringMarkdownFormatter handles markdown formatting for tailoring results
type TailoringMarkdownFormatter struct{}

func (tmf *TailoringMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.TailoringResult)
	if !ok {
		return "", fmt.Errorf("expected TailoringResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Tailored Resume\n\n")
	writeResumeMarkdown(&output, &result.TailoredResume)

	output.WriteString("## Match Analysis\n\n")
	output.WriteString(fmt.Sprintf("**Match Score:** %d/100\n\n", result.MatchScore))

	if len(result.KeywordMatches) > 0 {
		output.WriteString("### Matched Keywords\n")
		for _, keyword := range result.KeywordMatches {
			output.WriteString(fmt.Sprintf("- %s\n", keyword))
		}
		output.WriteString("\n")
	}

	if len(result.ImprovementAreas) > 0 {
		output.WriteString("### Improvement Areas\n")
		for _, area := range result.ImprovementAreas {
			output.WriteString(fmt.Sprintf("- %s\n", area))
		}
		output.WriteString("\n")
	}

	if len(result.Suggestions) > 0 {
		output.WriteString("### Suggestions\n")
		for i, suggestion := range result.Suggestions {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, suggestion))
		}
	}

	return output.String(), nil
}

func (tmf *TailoringMarkdownFormatter) SupportedType() string {
	return "TailoringResult"
}

// WorkflowTextFormatter handles text formatting for workflow status records
type WorkflowTextFormatter struct{}

func (wtf *WorkflowTextFormatter) Format(data any) (string, error) {
	record, ok := data.(types.WorkflowRecord)
	if !ok {
		return "", fmt.Errorf("expected WorkflowRecord, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== WORKFLOW STATUS ===\n\n")
	output.WriteString(fmt.Sprintf("ID: %s\n", record.ID))
	output.WriteString(fmt.Sprintf("Status: %s\n", record.Status))
	output.WriteString(fmt.Sprintf("Progress: %d%% (%s)\n", record.Progress, workflow.ProgressMessage(record.Progress)))
	output.WriteString(fmt.Sprintf("Created: %s\n", record.CreatedAt.Format("2006-01-02 15:04:05")))
	output.WriteString(fmt.Sprintf("Updated: %s\n", record.UpdatedAt.Format("2006-01-02 15:04:05")))

	if record.Error != "" {
		output.WriteString(fmt.Sprintf("Error: %s\n", record.Error))
	}

	if record.Result != nil {
		output.WriteString("\n")
		body, err := (&TailoringTextFormatter{}).Format(*record.Result)
		if err != nil {
			return "", err
		}
		output.WriteString(body)
	}

	return output.String(), nil
}

func (wtf *WorkflowTextFormatter) SupportedType() string {
	return "WorkflowRecord"
}

// WorkflowMarkdownFormatter handles markdown formatting for workflow status records
type WorkflowMarkdownFormatter struct{}

func (wmf *WorkflowMarkdownFormatter) Format(data any) (string, error) {
	record, ok := data.(types.WorkflowRecord)
	if !ok {
		return "", fmt.Errorf("expected WorkflowRecord, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Workflow Status\n\n")
	output.WriteString(fmt.Sprintf("**ID:** %s\n\n", record.ID))
	output.WriteString(fmt.Sprintf("**Status:** %s\n\n", record.Status))
	output.WriteString(fmt.Sprintf("**Progress:** %d%% (%s)\n\n", record.Progress, workflow.ProgressMessage(record.Progress)))

	if record.Error != "" {
		output.WriteString(fmt.Sprintf("**Error:** %s\n\n", record.Error))
	}

	if record.Result != nil {
		body, err := (&TailoringMarkdownFormatter{}).Format(*record.Result)
		if err != nil {
			return "", err
		}
		output.WriteString(body)
	}

	return output.String(), nil
}

func (wmf *WorkflowMarkdownFormatter) SupportedType() string {
	return "WorkflowRecord"
}

// AnalysisTextFormatter handles text formatting for keyword analysis reports
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.KeywordAnalysis)
	if !ok {
		return "", fmt.Errorf("expected KeywordAnalysis, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== KEYWORD ANALYSIS ===\n\n")
	output.WriteString(fmt.Sprintf("Match Score: %d/100\n\n", result.MatchScore))

	writeKeywordList(&output, "Job Keywords:", result.JobKeywords)
	writeKeywordList(&output, "Matched:", result.MatchedKeywords)
	writeKeywordList(&output, "Missing:", result.MissingKeywords)

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return "KeywordAnalysis"
}

// AnalysisMarkdownFormatter handles markdown formatting for keyword analysis reports
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.KeywordAnalysis)
	if !ok {
		return "", fmt.Errorf("expected KeywordAnalysis, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Keyword Analysis\n\n")
	output.WriteString(fmt.Sprintf("**Match Score:** %d/100\n\n", result.MatchScore))

	writeKeywordList(&output, "## Job Keywords", result.JobKeywords)
	writeKeywordList(&output, "## Matched", result.MatchedKeywords)
	writeKeywordList(&output, "## Missing", result.MissingKeywords)

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return "KeywordAnalysis"
}

func writeKeywordList(output *strings.Builder, heading string, keywords []string) {
	if len(keywords) == 0 {
		return
	}
	output.WriteString(heading)
	output.WriteString("\n")
	for _, keyword := range keywords {
		output.WriteString(fmt.Sprintf("- %s\n", keyword))
	}
	output.WriteString("\n")
}

func writeResumeText(output *strings.Builder, resume *types.ResumeDocument) {
	output.WriteString(resume.PersonalInfo.Name)
	output.WriteString("\n")
	output.WriteString(resume.PersonalInfo.Email)
	if resume.PersonalInfo.Phone != "" {
		output.WriteString(" | " + resume.PersonalInfo.Phone)
	}
	if resume.PersonalInfo.Location != "" {
		output.WriteString(" | " + resume.PersonalInfo.Location)
	}
	output.WriteString("\n\n")

	if resume.Summary != "" {
		output.WriteString("Summary:\n")
		output.WriteString(resume.Summary)
		output.WriteString("\n\n")
	}

	if len(resume.Experience) > 0 {
		output.WriteString("Experience:\n")
		for _, entry := range resume.Experience {
			output.WriteString(fmt.Sprintf("%s, %s (%s)\n", entry.Title, entry.Company, entry.Duration))
			for _, achievement := range entry.Achievements {
				output.WriteString(fmt.Sprintf("  - %s\n", achievement))
			}
		}
		output.WriteString("\n")
	}

	if len(resume.Education) > 0 {
		output.WriteString("Education:\n")
		for _, entry := range resume.Education {
			output.WriteString(fmt.Sprintf("%s, %s (%s)\n", entry.Degree, entry.School, entry.Year))
		}
		output.WriteString("\n")
	}

	if len(resume.Skills) > 0 {
		output.WriteString("Skills: ")
		output.WriteString(strings.Join(resume.Skills, ", "))
		output.WriteString("\n\n")
	}
}

func writeResumeMarkdown(output *strings.Builder, resume *types.ResumeDocument) {
	output.WriteString(fmt.Sprintf("## %s\n\n", resume.PersonalInfo.Name))
	contact := []string{resume.PersonalInfo.Email}
	if resume.PersonalInfo.Phone != "" {
		contact = append(contact, resume.PersonalInfo.Phone)
	}
	if resume.PersonalInfo.Location != "" {
		contact = append(contact, resume.PersonalInfo.Location)
	}
	output.WriteString(strings.Join(contact, " | "))
	output.WriteString("\n\n")

	if resume.Summary != "" {
		output.WriteString("### Summary\n")
		output.WriteString(resume.Summary)
		output.WriteString("\n\n")
	}

	if len(resume.Experience) > 0 {
		output.WriteString("### Experience\n\n")
		for _, entry := range resume.Experience {
			output.WriteString(fmt.Sprintf("**%s**, %s (%s)\n", entry.Title, entry.Company, entry.Duration))
			for _, achievement := range entry.Achievements {
				output.WriteString(fmt.Sprintf("- %s\n", achievement))
			}
			output.WriteString("\n")
		}
	}

	if len(resume.Education) > 0 {
		output.WriteString("### Education\n\n")
		for _, entry := range resume.Education {
			output.WriteString(fmt.Sprintf("- %s, %s (%s)\n", entry.Degree, entry.School, entry.Year))
		}
		output.WriteString("\n")
	}

	if len(resume.Skills) > 0 {
		output.WriteString("### Skills\n\n")
		output.WriteString(strings.Join(resume.Skills, ", "))
		output.WriteString("\n\n")
	}
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
