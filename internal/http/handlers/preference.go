package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/suggestion-engine/internal/http/response"
	"github.com/yungbote/suggestion-engine/internal/services"
)

type PreferenceHandler struct {
	prefs services.PreferenceService
}

func NewPreferenceHandler(prefs services.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{prefs: prefs}
}

type setPreferenceRequest struct {
	Type       string   `json:"type"`
	Key        string   `json:"key"`
	Value      any      `json:"value"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// GET /api/preferences?type=
func (h *PreferenceHandler) Get(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	grouped, err := h.prefs.GetUserPreferences(c.Request.Context(), userID, strings.TrimSpace(c.Query("type")))
	if err != nil {
		response.RespondServiceError(c, err, "get_preferences_failed")
		return
	}
	response.RespondOK(c, gin.H{"preferences": grouped})
}

// PUT /api/preferences
// Explicit user choices default to full confidence.
func (h *PreferenceHandler) Set(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	var req setPreferenceRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	confidence := 1.0
	if req.Confidence != nil {
		confidence = *req.Confidence
	}
	pref, err := h.prefs.SetPreference(c.Request.Context(), userID, req.Type, req.Key, req.Value, confidence)
	if err != nil {
		response.RespondServiceError(c, err, "set_preference_failed")
		return
	}
	response.RespondOK(c, gin.H{"preference": pref})
}
