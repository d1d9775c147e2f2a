package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/suggestion-engine/internal/data/repos/jobs"
	"github.com/yungbote/suggestion-engine/internal/data/repos/learning"
	"github.com/yungbote/suggestion-engine/internal/platform/logger"
)

type FeedbackEventRepo = learning.FeedbackEventRepo
type PatternRepo = learning.PatternRepo
type PreferenceRepo = learning.PreferenceRepo
type SuggestionRepo = learning.SuggestionRepo
type SuggestionFilter = learning.SuggestionFilter

type JobRunRepo = jobs.JobRunRepo

func NewFeedbackEventRepo(db *gorm.DB, log *logger.Logger) FeedbackEventRepo {
	return learning.NewFeedbackEventRepo(db, log)
}

func NewPatternRepo(db *gorm.DB, log *logger.Logger) PatternRepo {
	return learning.NewPatternRepo(db, log)
}

func NewPreferenceRepo(db *gorm.DB, log *logger.Logger) PreferenceRepo {
	return learning.NewPreferenceRepo(db, log)
}

func NewSuggestionRepo(db *gorm.DB, log *logger.Logger) SuggestionRepo {
	return learning.NewSuggestionRepo(db, log)
}

func NewJobRunRepo(db *gorm.DB, log *logger.Logger) JobRunRepo {
	return jobs.NewJobRunRepo(db, log)
}
