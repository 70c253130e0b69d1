// Package engine implements deterministic, rule-based resume tailoring.
// It is the terminal fallback of the orchestration chain: it performs no
// network access and never fails for validated input.
package engine

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"tailorflow/internal/analyzer"
	"tailorflow/internal/types"
)

// Markers injected into summaries. Recognizing them on a later pass keeps
// repeated tailoring of the same document from stacking duplicate clauses.
const (
	expertiseMarker   = "with expertise in"
	experiencedMarker = "Experienced with"
)

// placeholderMetric is injected after leading impact verbs in achievements
// that carry no number at all.
const placeholderMetric = "by 25%"

var (
	digitPattern      = regexp.MustCompile(`\d`)
	impactVerbPattern = regexp.MustCompile(`(?i)\b(improved|increased|reduced|enhanced|optimized)\b`)

	// Short words and connectives ignored when deriving expertise from
	// a job title.
	titleStopwords = map[string]struct{}{
		"the": {}, "and": {}, "for": {}, "with": {},
	}
)

// Engine rewrites resumes against a job description using the analyzer's
// keyword heuristics. All methods are pure: same input, same output.
type Engine struct {
	analyzer *analyzer.Analyzer
}

// New creates a rule-based tailoring engine
func New(a *analyzer.Analyzer) *Engine {
	return &Engine{analyzer: a}
}

// Tailor produces a complete TailoringResult from local computation only
func (e *Engine) Tailor(resume types.ResumeDocument, job types.JobDescription, opts types.TailoringOptions) types.TailoringResult {
	jobKeywords := e.JobKeywords(&job, &opts)

	tailored := cloneResume(&resume)
	tailored.Summary = e.TailorSummary(resume.Summary, jobKeywords, job.Title)
	tailored.Experience = e.TailorExperience(resume.Experience, jobKeywords)
	tailored.Skills = e.OptimizeSkills(resume.Skills, jobKeywords)

	resumeText := analyzer.FlattenResume(&tailored)

	return types.TailoringResult{
		TailoredResume:   tailored,
		MatchScore:       e.analyzer.MatchScore(resumeText, jobKeywords),
		Suggestions:      e.Suggestions(&tailored, jobKeywords),
		KeywordMatches:   e.analyzer.KeywordMatches(resumeText, jobKeywords),
		ImprovementAreas: e.ImprovementAreas(&tailored, jobKeywords),
	}
}

// JobKeywords extracts the keyword set for a job, merging in any advisory
// industry keywords from the options, capped at the analyzer's limit.
func (e *Engine) JobKeywords(job *types.JobDescription, opts *types.TailoringOptions) []string {
	keywords := e.analyzer.ExtractKeywords(analyzer.JobText(job))

	if opts == nil {
		return keywords
	}
	seen := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		seen[k] = struct{}{}
	}
	for _, k := range opts.IndustryKeywords {
		lower := strings.ToLower(strings.TrimSpace(k))
		if lower == "" {
			continue
		}
		if _, dup := seen[lower]; dup {
			continue
		}
		if len(keywords) == analyzer.MaxKeywords {
			break
		}
		seen[lower] = struct{}{}
		keywords = append(keywords, lower)
	}
	return keywords
}

// TailorSummary aligns a professional summary with the job title and
// keywords. The transformation is idempotent: summaries that already carry
// an injected expertise or keyword clause are not extended again.
func (e *Engine) TailorSummary(summary string, jobKeywords []string, jobTitle string) string {
	tailored := summary

	lowerSummary := strings.ToLower(tailored)
	if jobTitle != "" &&
		!strings.Contains(lowerSummary, strings.ToLower(jobTitle)) &&
		!strings.Contains(lowerSummary, expertiseMarker) {
		if words := significantTitleWords(jobTitle); len(words) > 0 {
			tailored = injectExpertise(tailored, words)
		}
	}

	if !strings.Contains(tailored, experiencedMarker) {
		lower := strings.ToLower(tailored)
		var missing []string
		for _, keyword := range jobKeywords {
			if !strings.Contains(lower, strings.ToLower(keyword)) {
				missing = append(missing, keyword)
				if len(missing) == 3 {
					break
				}
			}
		}
		if len(missing) > 0 {
			tailored = strings.TrimRight(tailored, " ")
			if tailored != "" {
				tailored += " "
			}
			tailored += fmt.Sprintf("%s %s.", experiencedMarker, strings.Join(missing, ", "))
		}
	}

	return tailored
}

// significantTitleWords returns the job title words worth echoing in a
// summary: longer than 3 characters and not connectives.
func significantTitleWords(jobTitle string) []string {
	var words []string
	for _, word := range strings.Fields(jobTitle) {
		if len(word) <= 3 {
			continue
		}
		if _, stop := titleStopwords[strings.ToLower(word)]; stop {
			continue
		}
		words = append(words, word)
	}
	return words
}

// injectExpertise appends an expertise clause to the first sentence-clause
// of the summary.
func injectExpertise(summary string, titleWords []string) string {
	clause := fmt.Sprintf(" %s %s", expertiseMarker, strings.Join(titleWords, " "))
	if idx := strings.IndexByte(summary, '.'); idx >= 0 {
		return summary[:idx] + clause + summary[idx:]
	}
	return summary + clause
}

// TailorExperience injects a placeholder metric into achievements that
// open with an impact verb but carry no number. Entry and achievement
// order is preserved.
func (e *Engine) TailorExperience(entries []types.ExperienceEntry, jobKeywords []string) []types.ExperienceEntry {
	tailored := make([]types.ExperienceEntry, len(entries))
	for i, entry := range entries {
		achievements := make([]string, len(entry.Achievements))
		for j, achievement := range entry.Achievements {
			achievements[j] = quantifyAchievement(achievement)
		}
		tailored[i] = entry
		tailored[i].Achievements = achievements
	}
	return tailored
}

// quantifyAchievement adds the placeholder metric after the first impact
// verb when the achievement contains no digit. The injected "25%" itself
// contains digits, so a second pass leaves the text unchanged.
func quantifyAchievement(achievement string) string {
	if digitPattern.MatchString(achievement) {
		return achievement
	}
	loc := impactVerbPattern.FindStringIndex(achievement)
	if loc == nil {
		return achievement
	}
	return achievement[:loc[1]] + " " + placeholderMetric + achievement[loc[1]:]
}

// OptimizeSkills appends missing skill-like job keywords, then stably
// partitions the list so keyword-matching skills come first. Relative
// order within each partition is preserved.
func (e *Engine) OptimizeSkills(skills []string, jobKeywords []string) []string {
	optimized := slices.Clone(skills)

	present := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		present[strings.ToLower(skill)] = struct{}{}
	}
	for _, keyword := range jobKeywords {
		lower := strings.ToLower(keyword)
		if _, dup := present[lower]; dup {
			continue
		}
		if !analyzer.IsSkillTerm(keyword) {
			continue
		}
		optimized = append(optimized, keyword)
		present[lower] = struct{}{}
	}

	matches := func(skill string) bool {
		lowerSkill := strings.ToLower(skill)
		for _, keyword := range jobKeywords {
			if strings.Contains(lowerSkill, strings.ToLower(keyword)) {
				return true
			}
		}
		return false
	}
	slices.SortStableFunc(optimized, func(a, b string) int {
		am, bm := matches(a), matches(b)
		switch {
		case am && !bm:
			return -1
		case !am && bm:
			return 1
		default:
			return 0
		}
	})
	return optimized
}

// Suggestions derives textual advice from the tailored document. The advice
// is advisory only; it never alters the document.
func (e *Engine) Suggestions(resume *types.ResumeDocument, jobKeywords []string) []string {
	var suggestions []string

	resumeText := analyzer.FlattenResume(resume)
	missing := e.analyzer.MissingKeywords(resumeText, jobKeywords)
	if len(missing) > 5 {
		missing = missing[:5]
	}
	if len(missing) > 0 {
		suggestions = append(suggestions,
			fmt.Sprintf("Consider adding these relevant keywords: %s", strings.Join(missing, ", ")))
	}

	if !hasQuantifiedAchievement(resume.Experience) {
		suggestions = append(suggestions,
			`Add quantifiable metrics to your achievements (e.g., "increased sales by 25%")`)
	}

	if len(resume.Summary) < 100 {
		suggestions = append(suggestions,
			"Consider expanding your professional summary to 2-3 sentences")
	}

	return suggestions
}

// ImprovementAreas reports structural gaps between the document and the job
func (e *Engine) ImprovementAreas(resume *types.ResumeDocument, jobKeywords []string) []string {
	var areas []string

	var skillsGap []string
	for _, keyword := range jobKeywords {
		if !analyzer.IsSkillTerm(keyword) {
			continue
		}
		covered := false
		for _, skill := range resume.Skills {
			if strings.Contains(strings.ToLower(skill), strings.ToLower(keyword)) {
				covered = true
				break
			}
		}
		if !covered {
			skillsGap = append(skillsGap, keyword)
			if len(skillsGap) == 3 {
				break
			}
		}
	}
	if len(skillsGap) > 0 {
		areas = append(areas, fmt.Sprintf("Skills to develop: %s", strings.Join(skillsGap, ", ")))
	}

	if !hasRelevantExperience(resume.Experience, jobKeywords) {
		areas = append(areas, "Consider highlighting more relevant experience for this role")
	}

	return areas
}

func hasQuantifiedAchievement(entries []types.ExperienceEntry) bool {
	for _, entry := range entries {
		for _, achievement := range entry.Achievements {
			if digitPattern.MatchString(achievement) {
				return true
			}
		}
	}
	return false
}

func hasRelevantExperience(entries []types.ExperienceEntry, jobKeywords []string) bool {
	for _, entry := range entries {
		lowerTitle := strings.ToLower(entry.Title)
		for _, keyword := range jobKeywords {
			lowerKeyword := strings.ToLower(keyword)
			if strings.Contains(lowerTitle, lowerKeyword) {
				return true
			}
			for _, achievement := range entry.Achievements {
				if strings.Contains(strings.ToLower(achievement), lowerKeyword) {
					return true
				}
			}
		}
	}
	return false
}

// cloneResume deep-copies a document so tailoring never mutates the input
func cloneResume(resume *types.ResumeDocument) types.ResumeDocument {
	clone := *resume
	clone.Skills = slices.Clone(resume.Skills)
	clone.Education = slices.Clone(resume.Education)
	clone.Experience = make([]types.ExperienceEntry, len(resume.Experience))
	for i, entry := range resume.Experience {
		clone.Experience[i] = entry
		clone.Experience[i].Achievements = slices.Clone(entry.Achievements)
	}
	return clone
}
