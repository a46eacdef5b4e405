// Package prompt renders personality definitions and live session state into
// the text prompts sent to the completion service.
package prompt

import (
	"fmt"
	"strings"

	"github.com/abelikov/skillsim/internal/catalog"
)

const coachingBlock = `

COACHING MODE - IMPORTANT:
This is a LEARNING environment. Your goal is to help the learner practice and improve their skills.
- BE RESPONSIVE to good techniques and efforts
- ACKNOWLEDGE when they do something well
- Provide clear signals when they're on the right track
- Give them opportunities to succeed and recover from mistakes
- Challenge them appropriately but don't make it impossible
- Remember: frustrated learners don't learn effectively`

// Simulation builds the role-play prompt for a personality. roundInstruction
// is the round-progression fragment for the current turn; it may be empty and
// is inserted before the trailing guidelines block.
func Simulation(p *catalog.Personality, roundInstruction string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s in a learning simulation for %s.\n\n", p.Name, p.Domain)
	fmt.Fprintf(&b, "SCENARIO: %s\n\n", p.Scenario)

	b.WriteString("Your personality and behavior:\n")
	fmt.Fprintf(&b, "- You are %s\n", p.Tone)
	fmt.Fprintf(&b, "- This is a %s difficulty simulation\n", p.Difficulty)
	fmt.Fprintf(&b, "- Stay completely in character as %s\n\n", p.Name)

	b.WriteString("IMPORTANT ROLE CLARIFICATION:\n")
	for _, rule := range p.Restrictions {
		fmt.Fprintf(&b, "- %s\n", rule)
	}

	b.WriteString("\nThe learner is practicing these skills:\n")
	for i, obj := range p.Objectives {
		fmt.Fprintf(&b, "- %s", obj)
		if i < len(p.Objectives)-1 {
			b.WriteString("\n")
		}
	}

	if p.CoachingMode {
		b.WriteString(coachingBlock)
	}

	if roundInstruction != "" {
		b.WriteString("\n\n")
		b.WriteString(roundInstruction)
	}

	b.WriteString("\n\nSIMULATION GUIDELINES:\n")
	b.WriteString("- YOU drive the conversation by asking questions, presenting problems, or making statements\n")
	b.WriteString("- React realistically to the learner's responses \n")
	b.WriteString("- Provide opportunities for them to demonstrate the target skills\n")
	fmt.Fprintf(&b, "- Challenge them appropriately for a %s difficulty level\n", p.Difficulty)
	b.WriteString("- Stay in character throughout - never break character or mention this is a simulation\n")
	b.WriteString("- Show positive response to good communication techniques\n")
	b.WriteString("- Help create a productive learning experience\n\n")

	fmt.Fprintf(&b, "Remember: You are testing THEIR skills by being a realistic %s who provides authentic but fair challenges.", p.Name)

	return b.String()
}

// OpeningSuffix tells the model to produce a concise first statement.
func OpeningSuffix(maxWords int) string {
	return fmt.Sprintf("\n\nKeep your opening statement concise (under %d words). Start the conversation now.", maxWords)
}

// ContinuationSuffix bounds reply length on continuation turns.
func ContinuationSuffix(maxWords int) string {
	return fmt.Sprintf("\n\nKeep responses under %d words.", maxWords)
}

// Evaluation builds the end-of-session scoring prompt. The required output
// layout is a parsing contract: the extractor matches the per-skill
// "Skill: X/5" lines and the overall-rating line, so the format section must
// stay in sync with internal/eval.
func Evaluation(p *catalog.Personality, criteria []catalog.Criterion, transcript string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert trainer evaluating a %s simulation.\n\n", p.Domain)

	b.WriteString("SIMULATION DETAILS:\n")
	fmt.Fprintf(&b, "- Scenario: %s  \n", p.Scenario)
	fmt.Fprintf(&b, "- Difficulty: %s\n", p.Difficulty)
	fmt.Fprintf(&b, "- Character: %s (%s)\n", p.Name, p.Personality)
	fmt.Fprintf(&b, "- Learner Role: The human was practicing skills by responding to %s\n", p.Name)
	b.WriteString("- Coaching Mode: This was a supportive learning environment\n\n")

	b.WriteString("CONVERSATION TRANSCRIPT:\n")
	b.WriteString(transcript)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Please evaluate how well the LEARNER (human) performed when interacting with %s. ", p.Name)
	b.WriteString("Remember this is a LEARNING environment - focus on growth and development.\n\n")

	b.WriteString("EVALUATION CRITERIA (rate each 1-5):\n")
	for _, c := range criteria {
		fmt.Fprintf(&b, "- %s (%d%% weight)\n", c.Skill, c.Weight)
	}

	b.WriteString("\nREQUIRED FORMAT - Please structure your response EXACTLY like this:\n\n")
	b.WriteString("**SKILL SCORES:**\n")
	for _, c := range criteria {
		fmt.Fprintf(&b, "- %s: X/5\n", c.Skill)
	}
	b.WriteString("\n**OVERALL RATING:** X/5 stars\n\n")

	b.WriteString("## Performance Summary\n")
	b.WriteString("Brief 2-3 sentence summary highlighting both strengths and growth areas.\n\n")
	b.WriteString("## Key Strengths\n")
	b.WriteString("- [Strength 1 with specific example from conversation]\n")
	b.WriteString("- [Strength 2 with specific example from conversation]\n\n")
	b.WriteString("## Growth Opportunities  \n")
	b.WriteString("- [Area 1 with constructive suggestion]\n")
	b.WriteString("- [Area 2 with constructive suggestion]\n\n")
	b.WriteString("## Development Recommendations\n")
	b.WriteString("1. [Specific, actionable recommendation]\n")
	b.WriteString("2. [Specific, actionable recommendation]  \n")
	b.WriteString("3. [Specific, actionable recommendation]\n\n")

	skillArea := p.Domain
	if i := strings.IndexByte(skillArea, ' '); i > 0 {
		skillArea = skillArea[:i]
	}
	fmt.Fprintf(&b, "Focus on constructive, encouraging feedback that helps them improve their %s skills. ", skillArea)
	b.WriteString("Acknowledge their efforts and provide clear next steps for growth.")

	return b.String()
}
