package delivery

import (
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/teetimes/internal/settings"
	"github.com/goccy/go-json"
)

type SettingsHandler struct {
	cache *settings.Cache
	log   *logger.ZapLogger
}

func NewSettingsHandler(cache *settings.Cache, log *logger.ZapLogger) *SettingsHandler {
	return &SettingsHandler{cache: cache, log: log}
}

// GET /admin/settings
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.cache.All(r.Context())
	if err != nil {
		fail(w, h.log, "failed to load settings", err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

// PUT /admin/settings  {"key": "...", "value": "..."}
func (h *SettingsHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.cache.Set(r.Context(), req.Key, req.Value); err != nil {
		fail(w, h.log, "failed to save setting", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{req.Key: req.Value})
}
