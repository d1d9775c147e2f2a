package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/suggestion-engine/internal/domain"
	"github.com/yungbote/suggestion-engine/internal/http/response"
	"github.com/yungbote/suggestion-engine/internal/platform/dbctx"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
	"github.com/yungbote/suggestion-engine/internal/services"
)

type LearningHandler struct {
	log     *logger.Logger
	learner services.BatchLearner
	jobs    services.JobService
}

func NewLearningHandler(log *logger.Logger, learner services.BatchLearner, jobs services.JobService) *LearningHandler {
	return &LearningHandler{log: log.With("handler", "LearningHandler"), learner: learner, jobs: jobs}
}

type batchRequest struct {
	Limit    int  `json:"limit,omitempty"`
	Generate bool `json:"generate,omitempty"`
}

// POST /api/learning/batch[?async=true]
func (h *LearningHandler) Batch(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	var req batchRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	if queryBool(c, "async") {
		dbc := dbctx.Context{Ctx: c.Request.Context()}
		payload := map[string]any{"limit": req.Limit, "generate": req.Generate}
		job, created, err := h.jobs.EnqueueUnlessRunnable(dbc, userID, types.JobBatchLearn, "user", &userID, payload)
		if err != nil {
			response.RespondServiceError(c, err, "enqueue_failed")
			return
		}
		if created {
			if err := h.jobs.Dispatch(dbc, job.ID); err != nil {
				// The row stays queued; the local worker or a later dispatch picks it up.
				h.log.Warn("batch job dispatch failed", "job_id", job.ID, "user_id", userID, "error", err)
			}
		}
		response.RespondAccepted(c, gin.H{"job": job, "enqueued": created})
		return
	}

	res := h.learner.LearnFromBatch(c.Request.Context(), userID, services.BatchOptions{
		Limit:    req.Limit,
		Generate: req.Generate,
	})
	if !res.Success {
		response.RespondError(c, http.StatusInternalServerError, "batch_failed", errors.New(res.Error))
		return
	}
	response.RespondOK(c, gin.H{"result": res})
}
