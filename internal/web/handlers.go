package web

import (
	"encoding/json"
	"io"
	"net/http"

	"WeekendTrader/internal/model"
)

const maxDecisionBody = 64 << 10

type stateResponse struct {
	model.Snapshot
	Paused []model.StrategyID `json:"paused"`
}

type pauseResponse struct {
	Owner  model.StrategyID `json:"owner"`
	Paused bool             `json:"paused"`
	Closed []*model.Trade   `json:"closed,omitempty"`
}

type decisionResponse struct {
	Applied int    `json:"applied"`
	Error   string `json:"error,omitempty"`
}

func knownOwner(owner model.StrategyID) bool {
	return owner == model.StrategyMeanReversion || owner == model.StrategyRangeRetest
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse{
		Snapshot: s.ctrl.Snapshot(),
		Paused:   s.ctrl.PausedOwners(),
	})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	owner := model.StrategyID(r.PathValue("owner"))
	if !knownOwner(owner) {
		http.Error(w, "unknown owner", http.StatusNotFound)
		return
	}
	events := s.ctrl.Pause(owner)
	resp := pauseResponse{Owner: owner, Paused: true}
	for _, ev := range events {
		resp.Closed = append(resp.Closed, ev.Trade)
	}
	s.logger.Info("pause requested", "owner", owner, "closed", len(events))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	owner := model.StrategyID(r.PathValue("owner"))
	if !knownOwner(owner) {
		http.Error(w, "unknown owner", http.StatusNotFound)
		return
	}
	s.ctrl.Resume(owner)
	writeJSON(w, http.StatusOK, pauseResponse{Owner: owner, Paused: false})
}

// handleDecisions accepts raw decision text. Unparsable input is reported but
// changes nothing.
func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDecisionBody))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	n, err := s.decisions.Submit(string(body))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, decisionResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, decisionResponse{Applied: n})
}

func (s *Server) handleClearDecisions(w http.ResponseWriter, r *http.Request) {
	s.decisions.Clear()
	s.logger.Info("decision vetoes cleared")
	writeJSON(w, http.StatusOK, decisionResponse{})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
