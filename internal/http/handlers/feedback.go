package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/suggestion-engine/internal/http/response"
	"github.com/yungbote/suggestion-engine/internal/services"
)

type FeedbackHandler struct {
	feedback services.FeedbackService
}

func NewFeedbackHandler(feedback services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

// POST /api/feedback
func (h *FeedbackHandler) Collect(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	var in services.FeedbackInput
	if !bindOptionalJSON(c, &in) {
		return
	}
	in.UserID = userID
	ev, err := h.feedback.CollectFeedback(c.Request.Context(), in)
	if err != nil {
		response.RespondServiceError(c, err, "collect_failed")
		return
	}
	response.RespondCreated(c, gin.H{"feedback": ev})
}

// GET /api/feedback?limit=
func (h *FeedbackHandler) List(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	rows, err := h.feedback.ListFeedback(c.Request.Context(), userID, queryInt(c, "limit"))
	if err != nil {
		response.RespondServiceError(c, err, "list_feedback_failed")
		return
	}
	response.RespondOK(c, gin.H{"feedback": rows})
}
