package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/suggestion-engine/internal/http/response"
	"github.com/yungbote/suggestion-engine/internal/services"
)

type PatternHandler struct {
	recognizer services.PatternRecognizer
}

func NewPatternHandler(recognizer services.PatternRecognizer) *PatternHandler {
	return &PatternHandler{recognizer: recognizer}
}

type recognizeRequest struct {
	Limit      int `json:"limit,omitempty"`
	SinceHours int `json:"since_hours,omitempty"`
}

// GET /api/patterns?type=
func (h *PatternHandler) List(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	rows, err := h.recognizer.ListPatterns(c.Request.Context(), userID, strings.TrimSpace(c.Query("type")))
	if err != nil {
		response.RespondServiceError(c, err, "list_patterns_failed")
		return
	}
	response.RespondOK(c, gin.H{"patterns": rows})
}

// POST /api/patterns/recognize
func (h *PatternHandler) Recognize(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	var req recognizeRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	rows, err := h.recognizer.RecognizePatterns(c.Request.Context(), userID, services.Window{
		Limit: req.Limit,
		Since: time.Duration(req.SinceHours) * time.Hour,
	})
	if err != nil {
		response.RespondServiceError(c, err, "recognize_failed")
		return
	}
	response.RespondOK(c, gin.H{"patterns": rows})
}
