package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/chaingate/chaingate/internal/domain/auth"
	"github.com/chaingate/chaingate/internal/port/inbound"
)

// maxBodyBytes bounds request bodies. Questions are short.
const maxBodyBytes = 64 * 1024

type loginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

type loginResponse struct {
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	AccessLevel string `json:"access_level"`
	TimeoutSecs int    `json:"timeout_seconds"`
}

type askRequest struct {
	Question string `json:"question"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.UserID == "" || req.Password == "" {
		s.writeError(w, http.StatusBadRequest, "user_id and password are required")
		return
	}

	sess, err := s.auth.Login(r.Context(), req.UserID, req.Password, clientAddr(r))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.logger.Error("login failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	s.writeJSON(w, http.StatusOK, loginResponse{
		SessionID:   sess.ID,
		UserID:      sess.UserID,
		UserName:    sess.UserName,
		AccessLevel: string(sess.Level),
		TimeoutSecs: int(sess.Timeout.Seconds()),
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		s.writeError(w, http.StatusUnauthorized, "missing "+SessionHeader+" header")
		return
	}

	var req askRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.pipeline.Ask(r.Context(), sessionID, req.Question)
	if err != nil {
		switch {
		case errors.Is(err, inbound.ErrSessionInvalid):
			s.writeError(w, http.StatusUnauthorized, "session invalid or expired")
		case errors.Is(err, inbound.ErrRateLimited):
			s.writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		case errors.Is(err, inbound.ErrInvalidQuestion):
			s.writeError(w, http.StatusBadRequest, "question failed input screening")
		default:
			s.logger.Error("pipeline failed", "error", err)
			s.writeError(w, http.StatusInternalServerError, "request could not be processed")
		}
		return
	}

	s.recordAskMetrics(result)
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		s.writeError(w, http.StatusUnauthorized, "missing "+SessionHeader+" header")
		return
	}

	if err := s.auth.Logout(r.Context(), sessionID); err != nil {
		s.logger.Error("logout failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	if s.forgetSession != nil {
		s.forgetSession(sessionID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSecuritySummary serves aggregated audit statistics to admin
// and system sessions.
func (s *Server) handleSecuritySummary(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		s.writeError(w, http.StatusUnauthorized, "missing "+SessionHeader+" header")
		return
	}

	sess, err := s.sessions.Peek(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, "session invalid or expired")
		return
	}
	if !sess.Level.AtLeast(auth.LevelAdmin) {
		s.writeError(w, http.StatusForbidden, "admin access required")
		return
	}

	summary, err := s.reporter.Summary(r.Context())
	if err != nil {
		s.logger.Error("security summary failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "summary unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) recordAskMetrics(result *inbound.AskResult) {
	s.metrics.AskOutcomes.WithLabelValues(string(result.Outcome), string(result.Classification)).Inc()
	s.metrics.Confidence.Observe(result.Confidence)
	if result.Outcome == inbound.OutcomeFellBack {
		s.metrics.FallbacksTotal.Inc()
	}
	for _, v := range result.Violations {
		s.metrics.ViolationsTotal.WithLabelValues(string(v.Kind), string(v.Severity)).Inc()
	}
}

// decode reads a bounded JSON body into dst. Writes the error response
// itself and returns false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

// clientAddr strips the port from the remote address.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
