package domain

import (
	"github.com/yungbote/suggestion-engine/internal/domain/jobs"
	"github.com/yungbote/suggestion-engine/internal/domain/learning"
)

const (
	FeedbackPositive   = learning.FeedbackPositive
	FeedbackNegative   = learning.FeedbackNegative
	FeedbackNeutral    = learning.FeedbackNeutral
	FeedbackCorrection = learning.FeedbackCorrection

	PatternTemporal        = learning.PatternTemporal
	PatternCommand         = learning.PatternCommand
	PatternProjectAffinity = learning.PatternProjectAffinity
)

type FeedbackEvent = learning.FeedbackEvent
type Pattern = learning.Pattern
type Preference = learning.Preference
type Suggestion = learning.Suggestion
type BusinessContext = learning.BusinessContext
type ProjectContext = learning.ProjectContext

type JobRun = jobs.JobRun

// Models lists every persisted table, in migration order.
func Models() []interface{} {
	return []interface{}{
		&FeedbackEvent{},
		&Pattern{},
		&Preference{},
		&Suggestion{},
		&JobRun{},
	}
}

const (
	JobPatternRecognize   = jobs.JobPatternRecognize
	JobPreferenceExtract  = jobs.JobPreferenceExtract
	JobBatchLearn         = jobs.JobBatchLearn
	JobSuggestionGenerate = jobs.JobSuggestionGenerate
)

var PatternTypes = learning.PatternTypes
