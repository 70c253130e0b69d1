// Package analyzer provides keyword extraction and textual match scoring
// for resumes and job descriptions. Matching is heuristic containment
// against a curated vocabulary, not semantic analysis.
package analyzer

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	"tailorflow/internal/types"
)

// MaxKeywords caps the number of keywords extracted from a single text
// to bound downstream prompt and scoring cost.
const MaxKeywords = 50

// Analyzer extracts keywords and computes match scores against a
// vocabulary of known terms. Safe for concurrent use; the vocabulary
// may be swapped at runtime by the file watcher.
type Analyzer struct {
	mu    sync.RWMutex
	terms []string
}

// New creates an Analyzer backed by the built-in vocabulary
func New() *Analyzer {
	return &Analyzer{terms: defaultVocabulary}
}

// LoadVocabularyFile replaces the vocabulary with terms read from path,
// one term per line. Blank lines and lines starting with '#' are skipped.
func (a *Analyzer) LoadVocabularyFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open vocabulary file: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	var terms []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		terms = append(terms, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read vocabulary file: %w", err)
	}
	if len(terms) == 0 {
		return fmt.Errorf("vocabulary file %s contains no terms", path)
	}

	a.mu.Lock()
	a.terms = terms
	a.mu.Unlock()
	return nil
}

// TermCount returns the size of the active vocabulary
func (a *Analyzer) TermCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.terms)
}

// ExtractKeywords returns the vocabulary terms present in text,
// lowercased and deduplicated, in vocabulary order, capped at MaxKeywords.
func (a *Analyzer) ExtractKeywords(text string) []string {
	lower := strings.ToLower(text)

	a.mu.RLock()
	terms := a.terms
	a.mu.RUnlock()

	seen := make(map[string]struct{}, MaxKeywords)
	var keywords []string
	for _, term := range terms {
		lowerTerm := strings.ToLower(term)
		if _, dup := seen[lowerTerm]; dup {
			continue
		}
		if strings.Contains(lower, lowerTerm) {
			seen[lowerTerm] = struct{}{}
			keywords = append(keywords, lowerTerm)
			if len(keywords) == MaxKeywords {
				break
			}
		}
	}
	return keywords
}

// MatchScore computes the percentage of jobKeywords found in resumeText
// as case-insensitive substrings, rounded to the nearest integer.
// An empty keyword set scores 0: the ratio is never a division by zero.
func (a *Analyzer) MatchScore(resumeText string, jobKeywords []string) int {
	if len(jobKeywords) == 0 {
		return 0
	}

	lower := strings.ToLower(resumeText)
	matched := 0
	for _, keyword := range jobKeywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			matched++
		}
	}

	score := int(math.Round(float64(matched) / float64(len(jobKeywords)) * 100))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// KeywordMatches returns the subset of jobKeywords found in resumeText,
// preserving input order.
func (a *Analyzer) KeywordMatches(resumeText string, jobKeywords []string) []string {
	lower := strings.ToLower(resumeText)
	var matches []string
	for _, keyword := range jobKeywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			matches = append(matches, keyword)
		}
	}
	return matches
}

// MissingKeywords returns the subset of jobKeywords absent from resumeText,
// preserving input order.
func (a *Analyzer) MissingKeywords(resumeText string, jobKeywords []string) []string {
	lower := strings.ToLower(resumeText)
	var missing []string
	for _, keyword := range jobKeywords {
		if !strings.Contains(lower, strings.ToLower(keyword)) {
			missing = append(missing, keyword)
		}
	}
	return missing
}

// IsSkillTerm reports whether keyword names a concrete, resume-listable
// skill (exact match against the fixed skill-term set, case-insensitive).
func IsSkillTerm(keyword string) bool {
	for _, term := range skillTerms {
		if strings.EqualFold(term, keyword) {
			return true
		}
	}
	return false
}

// FlattenResume concatenates a resume into one search corpus in a fixed
// order (summary, skills, experience, education) so repeated scoring of
// the same document is reproducible.
func FlattenResume(resume *types.ResumeDocument) string {
	var b strings.Builder
	b.WriteString(resume.Summary)
	b.WriteByte(' ')
	b.WriteString(strings.Join(resume.Skills, " "))
	for _, exp := range resume.Experience {
		b.WriteByte(' ')
		b.WriteString(exp.Title)
		b.WriteByte(' ')
		b.WriteString(exp.Company)
		b.WriteByte(' ')
		b.WriteString(strings.Join(exp.Achievements, " "))
	}
	for _, edu := range resume.Education {
		b.WriteByte(' ')
		b.WriteString(edu.Degree)
		b.WriteByte(' ')
		b.WriteString(edu.School)
	}
	return b.String()
}

// JobText concatenates the searchable fields of a job description
func JobText(job *types.JobDescription) string {
	parts := []string{job.Title, job.Description}
	if len(job.Requirements) > 0 {
		parts = append(parts, strings.Join(job.Requirements, " "))
	}
	return strings.Join(parts, " ")
}
