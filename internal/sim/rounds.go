package sim

import (
	"fmt"
	"strings"
)

// wrapUpThreshold is the fraction of the target round count at which the
// character starts steering toward a conclusion.
const wrapUpThreshold = 0.8

// ProgressInstruction returns the round-progression fragment for the next
// reply. round is the number of assistant replies already sent; the fragment
// renders the human-facing round number as round+1.
func ProgressInstruction(round, target, max int) string {
	switch {
	case round >= max-1:
		return fmt.Sprintf("IMPORTANT: This is round %d of %d. You MUST conclude this conversation now. "+
			"Either resolve the situation satisfactorily or express final dissatisfaction, but bring this to a natural ending.",
			round+1, max)
	case float64(round)/float64(target) >= wrapUpThreshold:
		return fmt.Sprintf("IMPORTANT: This is round %d. You should start working toward a conclusion in the next 1-2 responses. "+
			"Begin wrapping up based on how well the learner has handled the situation so far.",
			round+1)
	case round >= 1:
		return fmt.Sprintf("IMPORTANT: This is round %d of a %d-round conversation. "+
			"Keep responses concise and focused. Advance the scenario based on the learner's performance.",
			round+1, target)
	default:
		return ""
	}
}

// LimitWords truncates text to at most maxWords words, preferring a sentence
// boundary within ten words either side of the limit. Text at or under the
// limit is returned unchanged.
func LimitWords(text string, maxWords int) string {
	words := strings.Split(text, " ")
	if len(words) <= maxWords {
		return text
	}

	cutoff := maxWords
	for i := maxWords - 10; i < min(maxWords+10, len(words)); i++ {
		if i < 0 {
			continue
		}
		w := words[i]
		if strings.HasSuffix(w, ".") || strings.HasSuffix(w, "!") || strings.HasSuffix(w, "?") {
			cutoff = i + 1
			break
		}
	}
	return strings.Join(words[:cutoff], " ")
}
