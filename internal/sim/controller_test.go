package sim

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abelikov/skillsim/internal/catalog"
	"github.com/abelikov/skillsim/internal/eval"
	"github.com/abelikov/skillsim/internal/llm"
	"github.com/abelikov/skillsim/internal/store"
)

type fakeClient struct {
	mu       sync.Mutex
	replies  []string
	requests []llm.Request
	err      error
}

func (f *fakeClient) Complete(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "All right, let's talk.", nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func (f *fakeClient) lastRequest(t *testing.T) llm.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("No completion requests recorded")
	}
	return f.requests[len(f.requests)-1]
}

func testSettings() Settings {
	return Settings{TargetRounds: 5, MaxRounds: 7, MaxTokens: 200, MaxMessageWords: 150}
}

func newTestController(client llm.Client) *Controller {
	c := New(store.NewMemory(), client, eval.RegexParser{}, testSettings())
	base := time.Unix(1700000000, 0)
	c.now = func() time.Time {
		base = base.Add(30 * time.Second)
		return base
	}
	return c
}

func TestStartUnknownPersonality(t *testing.T) {
	fc := &fakeClient{}
	c := newTestController(fc)

	_, _, err := c.Start(context.Background(), "nonexistent", "")
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	// No session may be created on a failed start.
	n, err := c.ActiveSessions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("Expected 0 sessions after failed start, got %d", n)
	}
}

func TestStartGeneratesSessionID(t *testing.T) {
	c := newTestController(&fakeClient{})

	sess, def, err := c.Start(context.Background(), "difficultCustomer", "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(sess.ID, "sim_") {
		t.Errorf("Generated session id should have sim_ prefix, got %q", sess.ID)
	}
	if def.Name != "Pat Johnson" {
		t.Errorf("Wrong personality: %q", def.Name)
	}
	if sess.RoundCount != 0 || len(sess.Messages) != 0 || sess.IsComplete {
		t.Errorf("Start should reset session state: %+v", sess)
	}
}

func TestStartResetsExistingSession(t *testing.T) {
	fc := &fakeClient{}
	c := newTestController(fc)
	ctx := context.Background()

	sess, _, err := c.Start(ctx, "difficultCustomer", "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Begin(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}

	sess2, _, err := c.Start(ctx, "skepticalProspect", "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if sess2.ID != "sess-1" || sess2.Personality != "skepticalProspect" {
		t.Errorf("Session not reset in place: %+v", sess2)
	}
	if len(sess2.Messages) != 0 || sess2.RoundCount != 0 {
		t.Errorf("Reset should clear history: %+v", sess2)
	}
}

func TestBeginRequiresStart(t *testing.T) {
	c := newTestController(&fakeClient{})
	_, err := c.Begin(context.Background(), "never-started")
	if !errors.Is(err, ErrSessionNotStarted) {
		t.Fatalf("Expected ErrSessionNotStarted, got %v", err)
	}
}

func TestBeginOpeningTurn(t *testing.T) {
	fc := &fakeClient{replies: []string{"Finally! Someone picked up."}}
	c := newTestController(fc)
	ctx := context.Background()

	if _, _, err := c.Start(ctx, "difficultCustomer", "sess-1"); err != nil {
		t.Fatal(err)
	}
	res, err := c.Begin(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}

	if res.Response != "Finally! Someone picked up." {
		t.Errorf("Response = %q", res.Response)
	}
	if res.RoundCount != 1 || res.MessageCount != 1 {
		t.Errorf("Round metadata = %+v, want round 1, 1 message", res)
	}
	if res.ShouldAutoEnd {
		t.Error("Opening turn must not auto-end")
	}

	req := fc.lastRequest(t)
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Fatalf("Opening turn must be a single user message, got %+v", req.Messages)
	}
	if !strings.Contains(req.Messages[0].Content, "Start the conversation now.") {
		t.Error("Opening prompt missing start trigger text")
	}
	if strings.Contains(req.Messages[0].Content, "IMPORTANT: This is round") {
		t.Error("Opening turn must carry no round instruction")
	}
	if req.Temperature != 0.8 || req.MaxTokens != 200 {
		t.Errorf("Chat request parameters: temp=%v tokens=%d", req.Temperature, req.MaxTokens)
	}
}

func TestContinueReplaysHistory(t *testing.T) {
	fc := &fakeClient{replies: []string{"Opening line.", "I hear you."}}
	c := newTestController(fc)
	ctx := context.Background()

	if _, _, err := c.Start(ctx, "difficultCustomer", "sess-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Begin(ctx, "sess-1"); err != nil {
		t.Fatal(err)
	}

	res, err := c.Continue(ctx, "sess-1", "I'm so sorry about the damage.")
	if err != nil {
		t.Fatal(err)
	}
	if res.Response != "I hear you." {
		t.Errorf("Response = %q", res.Response)
	}
	if res.RoundCount != 2 || res.MessageCount != 3 {
		t.Errorf("Round metadata = %+v, want round 2, 3 messages", res)
	}
	if res.ShouldAutoEnd {
		t.Error("Should not auto-end below the round cap")
	}

	req := fc.lastRequest(t)
	// Leading instruction, then the full history in order.
	if len(req.Messages) != 4 {
		t.Fatalf("Expected 4 messages (prompt + 3 history), got %d", len(req.Messages))
	}
	if !strings.Contains(req.Messages[0].Content, "Keep responses under 150 words.") {
		t.Error("Leading prompt missing continuation suffix")
	}
	if !strings.Contains(req.Messages[0].Content, "IMPORTANT: This is round 2") {
		t.Errorf("Leading prompt missing round instruction: %.80s", req.Messages[0].Content)
	}
	if req.Messages[1].Role != "assistant" || req.Messages[2].Role != "user" || req.Messages[3].Role != "assistant" {
		t.Errorf("History roles wrong: %v %v %v", req.Messages[1].Role, req.Messages[2].Role, req.Messages[3].Role)
	}
}

func TestContinueValidation(t *testing.T) {
	c := newTestController(&fakeClient{})
	ctx := context.Background()

	if _, err := c.Continue(ctx, "", "hello"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Missing session id: got %v", err)
	}
	if _, err := c.Continue(ctx, "sess-1", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Missing message: got %v", err)
	}
	if _, err := c.Continue(ctx, "never-started", "hello"); !errors.Is(err, ErrSessionNotStarted) {
		t.Errorf("Unstarted session: got %v", err)
	}
}

func TestShouldAutoEndAtMaxRounds(t *testing.T) {
	fc := &fakeClient{}
	c := New(store.NewMemory(), fc, eval.RegexParser{}, Settings{
		TargetRounds: 2, MaxRounds: 3, MaxTokens: 200, MaxMessageWords: 150,
	})
	ctx := context.Background()

	if _, _, err := c.Start(ctx, "interviewingManager", "sess-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Begin(ctx, "sess-1"); err != nil {
		t.Fatal(err)
	}

	res, err := c.Continue(ctx, "sess-1", "first answer")
	if err != nil {
		t.Fatal(err)
	}
	if res.ShouldAutoEnd {
		t.Error("Round 2 of 3 should not auto-end")
	}

	res, err = c.Continue(ctx, "sess-1", "second answer")
	if err != nil {
		t.Fatal(err)
	}
	if !res.ShouldAutoEnd {
		t.Error("Round 3 of 3 should auto-end")
	}
}

func TestContinueTruncatesLongReplies(t *testing.T) {
	long := strings.Repeat("word ", 199) + "word"
	fc := &fakeClient{replies: []string{"Opening.", long}}
	c := newTestController(fc)
	ctx := context.Background()

	if _, _, err := c.Start(ctx, "difficultCustomer", "sess-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Begin(ctx, "sess-1"); err != nil {
		t.Fatal(err)
	}
	res, err := c.Continue(ctx, "sess-1", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if n := len(strings.Split(res.Response, " ")); n > 160 {
		t.Errorf("Reply not truncated: %d words", n)
	}
}

func TestEvaluateRequiresMessages(t *testing.T) {
	c := newTestController(&fakeClient{})
	ctx := context.Background()

	if _, err := c.Evaluate(ctx, "never-started"); !errors.Is(err, ErrNoData) {
		t.Errorf("Unstarted session: got %v", err)
	}

	if _, _, err := c.Start(ctx, "difficultCustomer", "sess-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Evaluate(ctx, "sess-1"); !errors.Is(err, ErrNoData) {
		t.Errorf("Started session with no messages: got %v", err)
	}
}

func TestEvaluate(t *testing.T) {
	evalText := "**SKILL SCORES:**\n" +
		"- De-escalation: 4/5\n" +
		"- Active Listening: 5/5\n" +
		"- Problem Resolution: 3/5\n" +
		"- Empathy: 4/5\n" +
		"- Professionalism: 5/5\n\n" +
		"**OVERALL RATING:** 4/5 stars\n\n" +
		"## Performance Summary\nSolid work.\n"
	fc := &fakeClient{replies: []string{"Opening.", "Reply.", evalText}}
	c := newTestController(fc)
	ctx := context.Background()

	if _, _, err := c.Start(ctx, "difficultCustomer", "sess-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Begin(ctx, "sess-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Continue(ctx, "sess-1", "I apologize for the trouble."); err != nil {
		t.Fatal(err)
	}

	res, err := c.Evaluate(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}

	if res.Evaluation != evalText {
		t.Error("Raw evaluation text not returned")
	}
	if len(res.SkillScores) != 5 {
		t.Errorf("Expected 5 skill scores, got %d", len(res.SkillScores))
	}
	// (4*25 + 5*20 + 3*25 + 4*20 + 5*10) / 100 = 4.05
	if res.OverallRating != 4.05 {
		t.Errorf("OverallRating = %v, want 4.05", res.OverallRating)
	}
	if res.Summary.Character != "Pat Johnson" || res.Summary.Difficulty != catalog.Hard {
		t.Errorf("Summary = %+v", res.Summary)
	}
	if res.Summary.MessageCount != 3 || res.Summary.RoundCount != 2 {
		t.Errorf("Summary counts = %+v", res.Summary)
	}
	if !strings.HasSuffix(res.Summary.Duration, " minutes") {
		t.Errorf("Duration = %q", res.Summary.Duration)
	}
	if res.Summary.CompletedAt.IsZero() {
		t.Error("CompletedAt not set")
	}
	if !strings.Contains(res.Transcript, "LEARNER: I apologize for the trouble.") {
		t.Errorf("Transcript missing learner line:\n%s", res.Transcript)
	}
	if !strings.Contains(res.Transcript, "PAT JOHNSON: Opening.") {
		t.Errorf("Transcript missing character line:\n%s", res.Transcript)
	}

	// The evaluation request embeds the transcript and rubric.
	req := fc.lastRequest(t)
	if req.MaxTokens != 800 || req.Temperature != 0.3 {
		t.Errorf("Evaluation request parameters: tokens=%d temp=%v", req.MaxTokens, req.Temperature)
	}
	if !strings.Contains(req.Messages[0].Content, "De-escalation (25% weight)") {
		t.Error("Evaluation prompt missing rubric")
	}

	// Session is now complete.
	st, err := c.Status(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if st.IsActive {
		t.Error("Session should be inactive after evaluation")
	}
}

func TestEvaluateUpstreamErrorPropagates(t *testing.T) {
	fc := &fakeClient{replies: []string{"Opening."}}
	c := newTestController(fc)
	ctx := context.Background()

	if _, _, err := c.Start(ctx, "difficultCustomer", "sess-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Begin(ctx, "sess-1"); err != nil {
		t.Fatal(err)
	}

	fc.mu.Lock()
	fc.err = &llm.APIError{StatusCode: 429, Message: "rate limited"}
	fc.mu.Unlock()

	_, err := c.Evaluate(ctx, "sess-1")
	var apiErr *llm.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 429 {
		t.Fatalf("Expected 429 APIError, got %v", err)
	}
}

func TestStatusIdempotent(t *testing.T) {
	fc := &fakeClient{}
	c := newTestController(fc)
	ctx := context.Background()

	if _, _, err := c.Start(ctx, "compassionateDoctor", "sess-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Begin(ctx, "sess-1"); err != nil {
		t.Fatal(err)
	}

	first, err := c.Status(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Status(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if first.MessageCount != second.MessageCount || first.IsActive != second.IsActive {
		t.Errorf("Status not idempotent: %+v vs %+v", first, second)
	}
	if first.Character != "Dr. Sam Wilson" || !first.IsActive {
		t.Errorf("Status = %+v", first)
	}
}

func TestStatusLazyInit(t *testing.T) {
	c := newTestController(&fakeClient{})
	st, err := c.Status(context.Background(), "unknown-id")
	if err != nil {
		t.Fatal(err)
	}
	if st.IsActive || st.MessageCount != 0 || st.Character != "" {
		t.Errorf("Lazy-initialized session should be empty: %+v", st)
	}
	if st.StartTime.IsZero() {
		t.Error("Lazy-initialized session should have a start time")
	}
}
