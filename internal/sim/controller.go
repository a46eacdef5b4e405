// Package sim orchestrates conversation rounds: round-progression policy,
// prompt assembly, completion calls, reply post-processing, and session
// mutation. All session writes go through the Controller.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/abelikov/skillsim/internal/catalog"
	"github.com/abelikov/skillsim/internal/domain"
	"github.com/abelikov/skillsim/internal/eval"
	"github.com/abelikov/skillsim/internal/llm"
	"github.com/abelikov/skillsim/internal/prompt"
	"github.com/abelikov/skillsim/internal/store"
	"github.com/google/uuid"
)

var (
	// ErrSessionNotStarted means the session has no personality assigned.
	ErrSessionNotStarted = errors.New("simulation not started")
	// ErrInvalidInput means a required argument was missing.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoData means the session has nothing to evaluate.
	ErrNoData = errors.New("no simulation data to evaluate")
)

const (
	chatTemperature = 0.8
	evalTemperature = 0.3
	evalMaxTokens   = 800
)

// Settings are the tunable conversation parameters.
type Settings struct {
	TargetRounds    int
	MaxRounds       int
	MaxTokens       int
	MaxMessageWords int
}

// Controller drives simulation sessions against a completion service.
type Controller struct {
	store    store.Store
	client   llm.Client
	parser   eval.Parser
	settings Settings
	locks    sync.Map // session id -> *sync.Mutex
	now      func() time.Time
}

// New creates a conversation controller.
func New(s store.Store, client llm.Client, parser eval.Parser, settings Settings) *Controller {
	return &Controller{
		store:    s,
		client:   client,
		parser:   parser,
		settings: settings,
		now:      time.Now,
	}
}

// Settings returns the controller's conversation parameters.
func (c *Controller) Settings() Settings {
	return c.settings
}

// lockSession serializes access per session identifier so concurrent
// requests for the same session cannot interleave read-then-write cycles.
func (c *Controller) lockSession(id string) func() {
	v, _ := c.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (c *Controller) getOrCreate(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		sess = &domain.Session{ID: id, StartTime: c.now()}
		if err := c.store.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
	}
	return sess, nil
}

// Start assigns a personality to a session, resetting any prior state. When
// sessionID is empty a new identifier is generated. An unknown personality
// key fails before any session is created.
func (c *Controller) Start(ctx context.Context, personality, sessionID string) (*domain.Session, *catalog.Personality, error) {
	def, err := catalog.Lookup(personality)
	if err != nil {
		return nil, nil, err
	}

	if sessionID == "" {
		sessionID = "sim_" + uuid.NewString()
	}

	unlock := c.lockSession(sessionID)
	defer unlock()

	sess, err := c.getOrCreate(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	sess.Reset(personality, c.now())
	if err := c.store.Save(ctx, sess); err != nil {
		return nil, nil, fmt.Errorf("save session: %w", err)
	}

	slog.Info("Simulation started", "session_id", sessionID, "personality", personality)
	return sess, def, nil
}

// RoundResult is the outcome of one conversation round.
type RoundResult struct {
	Response      string
	MessageCount  int
	RoundCount    int
	ShouldAutoEnd bool
}

// Begin produces the character's opening statement for a started session.
// The prompt is sent as a single user turn; there is no prior history.
func (c *Controller) Begin(ctx context.Context, sessionID string) (*RoundResult, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: sessionId is required", ErrInvalidInput)
	}

	unlock := c.lockSession(sessionID)
	defer unlock()

	sess, err := c.getOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Started() {
		return nil, ErrSessionNotStarted
	}
	def, err := catalog.Lookup(sess.Personality)
	if err != nil {
		return nil, err
	}

	instruction := ProgressInstruction(sess.RoundCount, c.settings.TargetRounds, c.settings.MaxRounds)
	opening := prompt.Simulation(def, instruction) + prompt.OpeningSuffix(c.settings.MaxMessageWords)

	reply, err := c.client.Complete(ctx, llm.Request{
		Messages:    []llm.Message{{Role: "user", Content: opening}},
		MaxTokens:   c.settings.MaxTokens,
		Temperature: chatTemperature,
	})
	if err != nil {
		return nil, err
	}
	reply = LimitWords(reply, c.settings.MaxMessageWords)

	sess.Append(domain.RoleAssistant, reply, c.now())
	sess.RoundCount++
	if err := c.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &RoundResult{
		Response:     reply,
		MessageCount: len(sess.Messages),
		RoundCount:   sess.RoundCount,
	}, nil
}

// Continue records the learner's message, replays the conversation to the
// completion service behind a fresh simulation prompt, and records the
// character's reply. ShouldAutoEnd is set once the round counter reaches the
// hard cap.
func (c *Controller) Continue(ctx context.Context, sessionID, text string) (*RoundResult, error) {
	if sessionID == "" || text == "" {
		return nil, fmt.Errorf("%w: message and sessionId are required", ErrInvalidInput)
	}

	unlock := c.lockSession(sessionID)
	defer unlock()

	sess, err := c.getOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Started() {
		return nil, ErrSessionNotStarted
	}
	def, err := catalog.Lookup(sess.Personality)
	if err != nil {
		return nil, err
	}

	sess.Append(domain.RoleUser, text, c.now())

	// The simulation prompt is rebuilt every round because the progression
	// instruction depends on the current round counter.
	instruction := ProgressInstruction(sess.RoundCount, c.settings.TargetRounds, c.settings.MaxRounds)
	leading := prompt.Simulation(def, instruction) + prompt.ContinuationSuffix(c.settings.MaxMessageWords)

	messages := make([]llm.Message, 0, len(sess.Messages)+1)
	messages = append(messages, llm.Message{Role: "user", Content: leading})
	for _, m := range sess.Messages {
		messages = append(messages, llm.Message{Role: string(m.Role), Content: m.Content})
	}

	reply, err := c.client.Complete(ctx, llm.Request{
		Messages:    messages,
		MaxTokens:   c.settings.MaxTokens,
		Temperature: chatTemperature,
	})
	if err != nil {
		return nil, err
	}
	reply = LimitWords(reply, c.settings.MaxMessageWords)

	sess.Append(domain.RoleAssistant, reply, c.now())
	sess.RoundCount++
	if err := c.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &RoundResult{
		Response:      reply,
		MessageCount:  len(sess.Messages),
		RoundCount:    sess.RoundCount,
		ShouldAutoEnd: sess.RoundCount >= c.settings.MaxRounds,
	}, nil
}

// SessionSummary is the snapshot attached to an evaluation.
type SessionSummary struct {
	Character    string             `json:"character"`
	Scenario     string             `json:"scenario"`
	Difficulty   catalog.Difficulty `json:"difficulty"`
	MessageCount int                `json:"messageCount"`
	RoundCount   int                `json:"roundCount"`
	Duration     string             `json:"duration"`
	CompletedAt  time.Time          `json:"completedAt"`
}

// EvaluationResult is the scored end-of-session report.
type EvaluationResult struct {
	Evaluation    string
	OverallRating float64
	SkillScores   []eval.SkillScore
	Summary       SessionSummary
	Transcript    string
}

// Evaluate closes the session and asks the completion service to score the
// transcript. Parsing failures never fail the call; they degrade to the
// default rating with an empty score list.
func (c *Controller) Evaluate(ctx context.Context, sessionID string) (*EvaluationResult, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: sessionId is required", ErrInvalidInput)
	}

	unlock := c.lockSession(sessionID)
	defer unlock()

	sess, err := c.getOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Started() || len(sess.Messages) == 0 {
		return nil, ErrNoData
	}
	def, err := catalog.Lookup(sess.Personality)
	if err != nil {
		return nil, err
	}
	criteria, err := catalog.Criteria(sess.Personality)
	if err != nil {
		return nil, err
	}

	sess.Complete(c.now())
	if err := c.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	transcript := Transcript(sess, def)
	evalPrompt := prompt.Evaluation(def, criteria, transcript)

	evaluation, err := c.client.Complete(ctx, llm.Request{
		Messages:    []llm.Message{{Role: "user", Content: evalPrompt}},
		MaxTokens:   evalMaxTokens,
		Temperature: evalTemperature,
	})
	if err != nil {
		return nil, err
	}

	parsed := c.parser.Parse(evaluation, criteria)
	slog.Info("Evaluation parsed",
		"session_id", sessionID,
		"skill_scores", len(parsed.Scores),
		"overall", parsed.Overall)

	return &EvaluationResult{
		Evaluation:    evaluation,
		OverallRating: parsed.Overall,
		SkillScores:   parsed.Scores,
		Summary: SessionSummary{
			Character:    def.Name,
			Scenario:     def.Scenario,
			Difficulty:   def.Difficulty,
			MessageCount: len(sess.Messages),
			RoundCount:   sess.RoundCount,
			Duration:     fmt.Sprintf("%d minutes", sess.DurationMinutes()),
			CompletedAt:  sess.EndTime,
		},
		Transcript: transcript,
	}, nil
}

// StatusInfo is the lightweight session view for polling.
type StatusInfo struct {
	SessionID    string
	IsActive     bool
	MessageCount int
	Character    string
	StartTime    time.Time
}

// Status reports the current state of a session, creating it lazily when the
// identifier is unknown.
func (c *Controller) Status(ctx context.Context, sessionID string) (*StatusInfo, error) {
	unlock := c.lockSession(sessionID)
	defer unlock()

	sess, err := c.getOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	character := ""
	if sess.Started() {
		if def, err := catalog.Lookup(sess.Personality); err == nil {
			character = def.Name
		}
	}

	return &StatusInfo{
		SessionID:    sess.ID,
		IsActive:     sess.Started() && !sess.IsComplete,
		MessageCount: len(sess.Messages),
		Character:    character,
		StartTime:    sess.StartTime,
	}, nil
}

// ActiveSessions returns the number of sessions held by the store.
func (c *Controller) ActiveSessions(ctx context.Context) (int, error) {
	return c.store.Count(ctx)
}

// Transcript renders the conversation with LEARNER and character labels.
func Transcript(sess *domain.Session, def *catalog.Personality) string {
	lines := make([]string, 0, len(sess.Messages))
	for _, m := range sess.Messages {
		speaker := "LEARNER"
		if m.Role == domain.RoleAssistant {
			speaker = strings.ToUpper(def.Name)
		}
		lines = append(lines, speaker+": "+m.Content)
	}
	return strings.Join(lines, "\n\n")
}
