package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/suggestion-engine/internal/http/response"
	"github.com/yungbote/suggestion-engine/internal/services"
)

type SuggestionHandler struct {
	generator services.SuggestionGenerator
	lifecycle services.SuggestionLifecycle
}

func NewSuggestionHandler(generator services.SuggestionGenerator, lifecycle services.SuggestionLifecycle) *SuggestionHandler {
	return &SuggestionHandler{generator: generator, lifecycle: lifecycle}
}

type generateRequest struct {
	ProjectID *string `json:"project_id,omitempty"`
	Limit     int     `json:"limit,omitempty"`
}

type executeRequest struct {
	Result any `json:"result,omitempty"`
}

// GET /api/suggestions?min_priority=&project_id=&include_dismissed=&include_executed=&limit=
func (h *SuggestionHandler) List(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	rows, err := h.generator.ListSuggestions(c.Request.Context(), userID, services.ListFilter{
		MinPriority:      strings.TrimSpace(c.Query("min_priority")),
		ProjectID:        queryStringPtr(c, "project_id"),
		IncludeDismissed: queryBool(c, "include_dismissed"),
		IncludeExecuted:  queryBool(c, "include_executed"),
		Limit:            queryInt(c, "limit"),
	})
	if err != nil {
		response.RespondServiceError(c, err, "list_suggestions_failed")
		return
	}
	response.RespondOK(c, gin.H{"suggestions": rows})
}

// POST /api/suggestions/generate
func (h *SuggestionHandler) Generate(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	var req generateRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if req.ProjectID != nil && strings.TrimSpace(*req.ProjectID) == "" {
		req.ProjectID = nil
	}
	rows, err := h.generator.GenerateSuggestions(c.Request.Context(), userID, services.GenerateOptions{
		ProjectID: req.ProjectID,
		Limit:     req.Limit,
	})
	if err != nil {
		response.RespondServiceError(c, err, "generate_failed")
		return
	}
	response.RespondOK(c, gin.H{"suggestions": rows})
}

// POST /api/suggestions/:id/execute
func (h *SuggestionHandler) Execute(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "invalid_suggestion_id")
	if !ok {
		return
	}
	var req executeRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	row, changed, err := h.lifecycle.ExecuteSuggestion(c.Request.Context(), userID, id, req.Result)
	if err != nil {
		response.RespondServiceError(c, err, "execute_failed")
		return
	}
	response.RespondOK(c, gin.H{"suggestion": row, "already_terminal": !changed})
}

// POST /api/suggestions/:id/dismiss
func (h *SuggestionHandler) Dismiss(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "invalid_suggestion_id")
	if !ok {
		return
	}
	row, changed, err := h.lifecycle.DismissSuggestion(c.Request.Context(), userID, id)
	if err != nil {
		response.RespondServiceError(c, err, "dismiss_failed")
		return
	}
	response.RespondOK(c, gin.H{"suggestion": row, "already_terminal": !changed})
}
