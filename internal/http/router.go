package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/suggestion-engine/internal/http/handlers"
	httpMW "github.com/yungbote/suggestion-engine/internal/http/middleware"
	"github.com/yungbote/suggestion-engine/internal/observability"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	Metrics     *observability.Metrics

	HealthHandler     *httpH.HealthHandler
	FeedbackHandler   *httpH.FeedbackHandler
	PreferenceHandler *httpH.PreferenceHandler
	PatternHandler    *httpH.PatternHandler
	SuggestionHandler *httpH.SuggestionHandler
	LearningHandler   *httpH.LearningHandler
	JobHandler        *httpH.JobHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS())
	r.Use(httpMW.AttachRequestContext())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(observability.Handler()))
	}

	api := r.Group("/api")
	api.Use(httpMW.RequireUser())
	{
		// Feedback
		if cfg.FeedbackHandler != nil {
			api.POST("/feedback", cfg.FeedbackHandler.Collect)
			api.GET("/feedback", cfg.FeedbackHandler.List)
		}

		// Preferences
		if cfg.PreferenceHandler != nil {
			api.GET("/preferences", cfg.PreferenceHandler.Get)
			api.PUT("/preferences", cfg.PreferenceHandler.Set)
		}

		// Patterns
		if cfg.PatternHandler != nil {
			api.GET("/patterns", cfg.PatternHandler.List)
			api.POST("/patterns/recognize", cfg.PatternHandler.Recognize)
		}

		// Suggestions
		if cfg.SuggestionHandler != nil {
			api.GET("/suggestions", cfg.SuggestionHandler.List)
			api.POST("/suggestions/generate", cfg.SuggestionHandler.Generate)
			api.POST("/suggestions/:id/execute", cfg.SuggestionHandler.Execute)
			api.POST("/suggestions/:id/dismiss", cfg.SuggestionHandler.Dismiss)
		}

		// Batch learning
		if cfg.LearningHandler != nil {
			api.POST("/learning/batch", cfg.LearningHandler.Batch)
		}

		// Job
		if cfg.JobHandler != nil {
			api.GET("/jobs/:id", cfg.JobHandler.GetJob)
		}
	}

	return r
}
