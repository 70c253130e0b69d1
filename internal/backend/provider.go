package backend

import (
	"context"

	"tailorflow/internal/types"
)

// Provider is a single source of tailored resumes. Implementations fail
// with *errors.AppError values and never panic; fallback ordering across
// providers is the orchestrator's concern.
type Provider interface {
	// Name identifies the provider in logs, traces and stats.
	Name() string

	// Tailor runs one tailoring attempt against the backend.
	Tailor(ctx context.Context, resume types.ResumeDocument, job types.JobDescription, opts types.TailoringOptions) (types.TailoringResult, error)
}
