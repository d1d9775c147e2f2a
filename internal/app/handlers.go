package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/suggestion-engine/internal/http"
	httpH "github.com/yungbote/suggestion-engine/internal/http/handlers"
	"github.com/yungbote/suggestion-engine/internal/observability"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Feedback   *httpH.FeedbackHandler
	Preference *httpH.PreferenceHandler
	Pattern    *httpH.PatternHandler
	Suggestion *httpH.SuggestionHandler
	Learning   *httpH.LearningHandler
	Job        *httpH.JobHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(db),
		Feedback:   httpH.NewFeedbackHandler(services.Feedback),
		Preference: httpH.NewPreferenceHandler(services.Preferences),
		Pattern:    httpH.NewPatternHandler(services.Recognizer),
		Suggestion: httpH.NewSuggestionHandler(services.Generator, services.Lifecycle),
		Learning:   httpH.NewLearningHandler(log, services.Batch, services.JobService),
		Job:        httpH.NewJobHandler(services.JobService),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:               log,
		ServiceName:       cfg.ServiceName,
		Metrics:           metrics,
		HealthHandler:     handlers.Health,
		FeedbackHandler:   handlers.Feedback,
		PreferenceHandler: handlers.Preference,
		PatternHandler:    handlers.Pattern,
		SuggestionHandler: handlers.Suggestion,
		LearningHandler:   handlers.Learning,
		JobHandler:        handlers.Job,
	})
}
