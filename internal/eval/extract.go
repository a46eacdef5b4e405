// Package eval extracts structured skill scores from free-text evaluator
// output. The upstream text is unstructured natural language, so extraction
// degrades gracefully instead of failing: missing skills are skipped and an
// empty parse falls back to a neutral rating.
package eval

import (
	"math"
	"regexp"
	"strconv"

	"github.com/abelikov/skillsim/internal/catalog"
)

// defaultRating is returned when nothing can be extracted from the text.
const defaultRating = 3.0

// SkillScore is one parsed rubric entry.
type SkillScore struct {
	Skill  string `json:"skill"`
	Score  int    `json:"score"`
	Weight int    `json:"weight"`
}

// Result is the outcome of parsing one evaluation text. Scores holds the
// criteria that matched, in rubric order; Overall is the weighted average
// rating clamped to [1, 5].
type Result struct {
	Scores  []SkillScore
	Overall float64
}

// Parser turns evaluator text into a partial Result. Implementations never
// fail; a text with no recognizable scores yields the default rating.
type Parser interface {
	Parse(text string, criteria []catalog.Criterion) Result
}

// RegexParser matches the "Skill: X/5" line format that the evaluation
// prompt instructs the model to emit.
type RegexParser struct{}

var fallbackPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)overall rating:?\s*(\d)[/\s]*5`),
	regexp.MustCompile(`(?i)(\d)\s*[/\s]*5\s*stars?`),
	regexp.MustCompile(`(?i)rating:?\s*(\d)`),
}

// Parse extracts per-skill scores in criteria order, skipping criteria with
// no match, and computes the weight-normalized overall rating.
func (RegexParser) Parse(text string, criteria []catalog.Criterion) Result {
	var scores []SkillScore
	for _, c := range criteria {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(c.Skill) + `:?\s*(\d)[/\s]*5`)
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		scores = append(scores, SkillScore{Skill: c.Skill, Score: n, Weight: c.Weight})
	}

	overall := defaultRating
	if len(scores) > 0 {
		weightedSum := 0
		totalWeight := 0
		for _, s := range scores {
			weightedSum += s.Score * s.Weight
			totalWeight += s.Weight
		}
		overall = float64(weightedSum) / float64(totalWeight)
	} else {
		for _, re := range fallbackPatterns {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			if n, err := strconv.Atoi(m[1]); err == nil {
				overall = float64(n)
				break
			}
		}
	}

	overall = math.Round(overall*100) / 100
	overall = math.Min(5.0, math.Max(1.0, overall))

	return Result{Scores: scores, Overall: overall}
}
