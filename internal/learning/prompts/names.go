package prompts

type PromptName string

const (
	PromptPreferenceExtraction PromptName = "preference_extraction"
	PromptSuggestionGeneration PromptName = "suggestion_generation"
)
