package api

import (
	"net/http"
	"time"

	"github.com/abelikov/skillsim/internal/catalog"
	"github.com/abelikov/skillsim/internal/eval"
	"github.com/go-chi/chi/v5"
)

// beginTrigger is the legacy chat-message value the browser sends to request
// the character's opening statement. It is translated to an explicit Begin
// operation here at the boundary; nothing below the handler compares against
// it.
const beginTrigger = "BEGIN_SIMULATION"

// RegisterRoutes registers the simulation routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/simulation", func(r chi.Router) {
		r.Get("/scenarios", h.Scenarios)
		r.Post("/start", h.Start)
		r.Post("/chat", h.Chat)
		r.Post("/evaluate", h.Evaluate)
		r.Get("/status/{sessionID}", h.Status)
	})
}

// Scenarios returns the available personalities for scenario selection.
func (h *Handler) Scenarios(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, catalog.List())
}

type startRequest struct {
	Personality string `json:"personality"`
	SessionID   string `json:"sessionId"`
}

// Start assigns a personality to a (possibly new) session.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !decode(w, r, &req) {
		return
	}

	sess, def, err := h.ctrl.Start(r.Context(), req.Personality, req.SessionID)
	if err != nil {
		respondError(w, err, "Failed to start simulation")
		return
	}

	settings := h.ctrl.Settings()
	JSON(w, http.StatusOK, map[string]interface{}{
		"sessionId":  sess.ID,
		"character":  def.Name,
		"scenario":   def.Scenario,
		"difficulty": def.Difficulty,
		"objectives": def.Objectives,
		"greeting":   def.Greeting,
		"settings": map[string]int{
			"targetRounds":     settings.TargetRounds,
			"maxRounds":        settings.MaxRounds,
			"maxMessageLength": settings.MaxMessageWords,
		},
	})
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// Chat handles one conversation round. The begin trigger produces the
// character's opening statement; any other message continues the dialogue.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Message == "" || req.SessionID == "" {
		Error(w, http.StatusBadRequest, "Message and sessionId are required")
		return
	}

	settings := h.ctrl.Settings()

	if req.Message == beginTrigger {
		res, err := h.ctrl.Begin(r.Context(), req.SessionID)
		if err != nil {
			respondError(w, err, "Simulation chat failed")
			return
		}
		JSON(w, http.StatusOK, map[string]interface{}{
			"response":     res.Response,
			"messageCount": res.MessageCount,
			"roundCount":   res.RoundCount,
			"targetRounds": settings.TargetRounds,
			"maxRounds":    settings.MaxRounds,
		})
		return
	}

	res, err := h.ctrl.Continue(r.Context(), req.SessionID, req.Message)
	if err != nil {
		respondError(w, err, "Simulation chat failed")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"response":      res.Response,
		"messageCount":  res.MessageCount,
		"roundCount":    res.RoundCount,
		"targetRounds":  settings.TargetRounds,
		"maxRounds":     settings.MaxRounds,
		"shouldAutoEnd": res.ShouldAutoEnd,
	})
}

type evaluateRequest struct {
	SessionID string `json:"sessionId"`
}

// Evaluate closes the session and returns the scored evaluation report.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decode(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		Error(w, http.StatusBadRequest, "SessionId is required")
		return
	}

	res, err := h.ctrl.Evaluate(r.Context(), req.SessionID)
	if err != nil {
		respondError(w, err, "Evaluation failed")
		return
	}

	scores := res.SkillScores
	if scores == nil {
		scores = []eval.SkillScore{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"evaluation":     res.Evaluation,
		"overallRating":  res.OverallRating,
		"skillScores":    scores,
		"sessionSummary": res.Summary,
		"transcript":     res.Transcript,
	})
}

// Status reports a session's current state.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	st, err := h.ctrl.Status(r.Context(), sessionID)
	if err != nil {
		respondError(w, err, "Failed to get session status")
		return
	}

	var character interface{}
	if st.Character != "" {
		character = st.Character
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"sessionId":    st.SessionID,
		"isActive":     st.IsActive,
		"messageCount": st.MessageCount,
		"character":    character,
		"startTime":    st.StartTime,
	})
}

// Health reports process liveness and the active session count.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	active, err := h.ctrl.ActiveSessions(r.Context())
	if err != nil {
		respondError(w, err, "Health check failed")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"status":         "OK",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"activeSessions": active,
	})
}
