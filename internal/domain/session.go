package domain

import (
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a simulation conversation.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session holds the mutable state of one training conversation.
// RoundCount is the number of assistant replies already sent; it is
// incremented once per reply, after the reply has been recorded.
type Session struct {
	ID          string
	Personality string
	Messages    []Message
	StartTime   time.Time
	EndTime     time.Time
	IsComplete  bool
	RoundCount  int
}

// Started reports whether a personality has been assigned to the session.
func (s *Session) Started() bool {
	return s.Personality != ""
}

// Reset re-initializes the session for a new simulation run.
func (s *Session) Reset(personality string, now time.Time) {
	s.Personality = personality
	s.StartTime = now
	s.Messages = nil
	s.IsComplete = false
	s.EndTime = time.Time{}
	s.RoundCount = 0
}

// Append adds a message to the conversation history.
func (s *Session) Append(role Role, content string, now time.Time) {
	s.Messages = append(s.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
}

// Complete marks the session finished at the given time.
func (s *Session) Complete(now time.Time) {
	s.IsComplete = true
	s.EndTime = now
}

// DurationMinutes returns the session length in whole minutes, zero until
// the session is complete.
func (s *Session) DurationMinutes() int {
	if s.EndTime.IsZero() {
		return 0
	}
	return int(s.EndTime.Sub(s.StartTime).Round(time.Minute) / time.Minute)
}
