package prompts

// Input carries everything a prompt may render. Missing fields render empty
// strings (templates use missingkey=zero).
type Input struct {
	OriginalMessage   string
	AIResponse        string
	CorrectedResponse string
	// ContextJSON is the feedback context blob, already serialized.
	ContextJSON string

	// Suggestion generation.
	Limit           int
	ProjectsJSON    string
	PreferencesJSON string
	PatternsJSON    string
	ActiveTitles    []string
}

type Validator func(Input) error
