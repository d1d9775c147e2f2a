package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/suggestion-engine/internal/data/repos"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
)

type Repos struct {
	Feedback   repos.FeedbackEventRepo
	Pattern    repos.PatternRepo
	Preference repos.PreferenceRepo
	Suggestion repos.SuggestionRepo
	JobRun     repos.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Feedback:   repos.NewFeedbackEventRepo(db, log),
		Pattern:    repos.NewPatternRepo(db, log),
		Preference: repos.NewPreferenceRepo(db, log),
		Suggestion: repos.NewSuggestionRepo(db, log),
		JobRun:     repos.NewJobRunRepo(db, log),
	}
}
