package delivery

import (
	"errors"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/teetimes/internal/domain"
	"github.com/Vovarama1992/teetimes/internal/ports"
	"github.com/goccy/go-json"
)

type AuthHandler struct {
	auth ports.AuthService
	log  *logger.ZapLogger
}

func NewAuthHandler(auth ports.AuthService, log *logger.ZapLogger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	token, err := h.auth.Login(r.Context(), req.Password)
	if errors.Is(err, domain.ErrInvalidPassword) {
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "error", Message: "login failed", Error: err})
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
