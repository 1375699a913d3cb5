package server

import (
	"crypto/subtle"
	"errors"
	"net"
	"net/http"

	"github.com/noahshaw/namematch/internal/budget"
	"github.com/noahshaw/namematch/internal/chat"
)

// handleChat runs one assistant turn. The budget guard inside the chat
// service decides admission; its errors map to HTTP statuses here.
func (s *Service) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ClientIP = clientIP(r)

	resp, err := s.deps.Chat.Respond(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, budget.ErrIPRateLimited),
			errors.Is(err, budget.ErrCircuitOpen),
			errors.Is(err, budget.ErrSessionTurns),
			errors.Is(err, budget.ErrSessionTokens),
			errors.Is(err, budget.ErrSessionExpired),
			errors.Is(err, budget.ErrDailyCap),
			errors.Is(err, budget.ErrMonthlyCap):
			writeError(w, http.StatusTooManyRequests, err.Error())
		case errors.Is(err, chat.ErrLLMUnavailable):
			writeError(w, http.StatusServiceUnavailable, "assistant is not available right now")
		default:
			writeError(w, http.StatusInternalServerError, "failed to generate a reply")
		}
		return
	}

	writeJSON(w, resp)
}

// ChatStatsResponse reports spend, limits, and degraded-mode status.
type ChatStatsResponse struct {
	Usage        *budget.UsageStats `json:"usage"`
	LLMEnabled   bool               `json:"llm_enabled"`
	RedisEnabled bool               `json:"redis_enabled"`
}

// handleChatStats serves usage numbers behind the admin token.
func (s *Service) handleChatStats(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if s.config.AdminToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(s.config.AdminToken)) != 1 {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	usage, err := s.deps.Guard.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load usage stats")
		return
	}

	writeJSON(w, ChatStatsResponse{
		Usage:        usage,
		LLMEnabled:   s.config.GeminiAPIKey != "",
		RedisEnabled: s.config.RedisAddr != "",
	})
}

// clientIP returns the request's remote address without the port. The RealIP
// middleware has already resolved forwarding headers into RemoteAddr, which
// may then carry no port at all.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
