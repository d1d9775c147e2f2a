package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/suggestion-engine/internal/jobs/pipeline/batch_learn"
	"github.com/yungbote/suggestion-engine/internal/jobs/pipeline/pattern_recognize"
	"github.com/yungbote/suggestion-engine/internal/jobs/pipeline/preference_extract"
	"github.com/yungbote/suggestion-engine/internal/jobs/pipeline/suggestion_generate"
	jobruntime "github.com/yungbote/suggestion-engine/internal/jobs/runtime"
	"github.com/yungbote/suggestion-engine/internal/jobs/worker"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
	"github.com/yungbote/suggestion-engine/internal/services"
	"github.com/yungbote/suggestion-engine/internal/temporalx/temporalworker"
)

type Services struct {
	// Jobs + notifications
	Notifier   services.Notifier
	JobService services.JobService

	// Learning
	Feedback    services.FeedbackService
	Recognizer  services.PatternRecognizer
	Preferences services.PreferenceService
	Generator   services.SuggestionGenerator
	Lifecycle   services.SuggestionLifecycle
	Batch       services.BatchLearner

	// Job infra; at most one of the two runners is set.
	JobRegistry    *jobruntime.Registry
	TemporalWorker *temporalworker.Runner
	LocalWorker    *worker.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	notifier := services.NewNotifier(clients.Bus, log)
	jobService := services.NewJobService(db, log, repos.JobRun, notifier, clients.Temporal, clients.TemporalCfg.TaskQueue)

	feedback := services.NewFeedbackService(log, repos.Feedback, jobService)
	recognizer := services.NewPatternRecognizer(log, repos.Feedback, repos.Pattern, cfg.Tuning)
	preferences := services.NewPreferenceService(log, repos.Preference, repos.Feedback, clients.OpenAI, cfg.Tuning.Preferences, cfg.LLMTimeout)
	generator := services.NewSuggestionGenerator(log, repos.Suggestion, repos.Preference, repos.Pattern, clients.Context, clients.OpenAI, notifier, cfg.Tuning, cfg.ContextTimeout, cfg.LLMTimeout)
	lifecycle := services.NewSuggestionLifecycle(log, repos.Suggestion, notifier)
	batch := services.NewBatchLearner(log, repos.Feedback, recognizer, preferences, generator, cfg.Tuning.Window)

	// Job registry
	jobRegistry := jobruntime.NewRegistry()
	jobRegistry.MustRegister(
		pattern_recognize.New(log, recognizer),
		preference_extract.New(log, preferences),
		batch_learn.New(log, batch),
		suggestion_generate.New(log, generator),
	)

	out := Services{
		Notifier:    notifier,
		JobService:  jobService,
		Feedback:    feedback,
		Recognizer:  recognizer,
		Preferences: preferences,
		Generator:   generator,
		Lifecycle:   lifecycle,
		Batch:       batch,
		JobRegistry: jobRegistry,
	}
	if !cfg.RunWorker {
		return out, nil
	}

	if clients.Temporal != nil {
		w, err := temporalworker.NewRunner(log, clients.TemporalCfg, clients.Temporal, db, repos.JobRun, jobRegistry, notifier)
		if err != nil {
			return Services{}, fmt.Errorf("init temporal worker: %w", err)
		}
		out.TemporalWorker = w
	} else {
		out.LocalWorker = worker.NewWorker(db, log, repos.JobRun, jobRegistry, notifier, worker.ConfigFromEnv())
	}
	return out, nil
}
