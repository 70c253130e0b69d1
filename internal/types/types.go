package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance used by the Validate helpers.
var validate = validator.New()

// PersonalInfo holds the contact block of a resume
type PersonalInfo struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone"`
	Location  string `json:"location"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

// ExperienceEntry represents one position on a resume.
// Achievement order carries display priority and must be preserved
// by any transformation that does not explicitly re-rank.
type ExperienceEntry struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Location     string   `json:"location"`
	Duration     string   `json:"duration"`
	Achievements []string `json:"achievements"`
}

// EducationEntry represents one education item on a resume
type EducationEntry struct {
	Degree   string `json:"degree"`
	School   string `json:"school"`
	Location string `json:"location"`
	Year     string `json:"year"`
}

// ResumeDocument is the structured resume consumed and produced by tailoring.
// Skill order is significant: it is used for priority ranking downstream.
type ResumeDocument struct {
	PersonalInfo PersonalInfo      `json:"personalInfo" validate:"required"`
	Summary      string            `json:"summary"`
	Experience   []ExperienceEntry `json:"experience"`
	Education    []EducationEntry  `json:"education"`
	Skills       []string          `json:"skills"`
}

// Validate checks the invariants required for a document to be tailored:
// a non-empty name and a valid email address.
func (r *ResumeDocument) Validate() error {
	return validate.Struct(r)
}

// JobDescription is the target posting a resume is tailored against
type JobDescription struct {
	Title        string   `json:"title" validate:"required"`
	Company      string   `json:"company,omitempty"`
	Description  string   `json:"description" validate:"required"`
	Requirements []string `json:"requirements,omitempty"`
}

// Validate checks that the job description carries the fields every
// tailoring attempt depends on.
func (j *JobDescription) Validate() error {
	return validate.Struct(j)
}

// Template identifies a visual resume template
type Template string

const (
	TemplateModern     Template = "modern"
	TemplateMinimalist Template = "minimalist"
	TemplateCreative   Template = "creative"
)

// Valid reports whether the template is one of the known values
func (t Template) Valid() bool {
	switch t {
	case TemplateModern, TemplateMinimalist, TemplateCreative:
		return true
	}
	return false
}

// TailoringOptions carries advisory tuning input for backends and the
// rule-based engine. No defaults are enforced beyond OptimizeForATS.
type TailoringOptions struct {
	Template         Template `json:"template"`
	FocusAreas       []string `json:"focusAreas"`
	IndustryKeywords []string `json:"industryKeywords"`
	OptimizeForATS   bool     `json:"optimizeForATS"`
}

// DefaultTailoringOptions returns options for the given template with
// ATS optimization enabled.
func DefaultTailoringOptions(template Template) TailoringOptions {
	return TailoringOptions{
		Template:       template,
		OptimizeForATS: true,
	}
}

// TailoringResult is the uniform output of every tailoring source.
// MatchScore is always a finite integer in [0,100].
type TailoringResult struct {
	TailoredResume   ResumeDocument `json:"tailoredResume"`
	MatchScore       int            `json:"matchScore"`
	Suggestions      []string       `json:"suggestions"`
	KeywordMatches   []string       `json:"keywordMatches"`
	ImprovementAreas []string       `json:"improvementAreas"`
}

// KeywordAnalysis reports how a resume covers the keywords derived
// from a job description
type KeywordAnalysis struct {
	JobKeywords     []string `json:"jobKeywords"`
	MatchedKeywords []string `json:"matchedKeywords"`
	MissingKeywords []string `json:"missingKeywords"`
	MatchScore      int      `json:"matchScore"`
}

// WorkflowStatus enumerates the lifecycle states of a tracked workflow
type WorkflowStatus string

const (
	WorkflowPending   WorkflowStatus = "pending"
	WorkflowRunning   WorkflowStatus = "running"
	WorkflowCompleted WorkflowStatus = "completed"
	WorkflowFailed    WorkflowStatus = "failed"
)

// Terminal reports whether the status admits no further transition
func (s WorkflowStatus) Terminal() bool {
	return s == WorkflowCompleted || s == WorkflowFailed
}

// WorkflowRecord is the inspectable state of one tailoring workflow.
// Result is set iff status is completed; Error is set iff status is failed.
// Progress is monotonically non-decreasing until a terminal state.
type WorkflowRecord struct {
	ID        string           `json:"id"`
	Status    WorkflowStatus   `json:"status"`
	Progress  int              `json:"progress"`
	Result    *TailoringResult `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// WorkflowRequest is the input accepted by the workflow manager
type WorkflowRequest struct {
	OriginalResume ResumeDocument   `json:"originalResume"`
	JobDescription JobDescription   `json:"jobDescription"`
	Options        TailoringOptions `json:"options"`
	UserID         string           `json:"userId,omitempty"`
}

// Validate checks the request invariants before a workflow is admitted
func (r *WorkflowRequest) Validate() error {
	if err := r.OriginalResume.Validate(); err != nil {
		return err
	}
	return r.JobDescription.Validate()
}
