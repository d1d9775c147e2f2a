package prompts

import "fmt"

// SuggestionGeneration is the structured output of the suggestion prompt.
type SuggestionGeneration struct {
	Suggestions []GeneratedSuggestion `json:"suggestions" jsonschema:"description=Proactive suggestions; empty when nothing useful applies"`
}

type GeneratedSuggestion struct {
	Type        string  `json:"type" jsonschema:"enum=action,enum=informational"`
	Priority    string  `json:"priority" jsonschema:"enum=high,enum=medium,enum=low"`
	Title       string  `json:"title" jsonschema:"description=Short imperative title in the user's language"`
	Description string  `json:"description"`
	Action      string  `json:"action" jsonschema:"description=lower snake case action name such as create_post or create_workflow or create_backup or remind"`
	ProjectID   string  `json:"project_id" jsonschema:"description=Id of the project the suggestion is about; empty when none"`
	Reasoning   string  `json:"reasoning" jsonschema:"description=Why this helps now"`
	Confidence  float64 `json:"confidence" jsonschema:"minimum=0,maximum=1"`
}

func init() {
	RegisterSpec(Spec{
		Name:       PromptSuggestionGeneration,
		Version:    1,
		SchemaName: "suggestion_generation",
		Schema:     func() map[string]any { return ReflectSchema(&SuggestionGeneration{}) },
		System: `You propose proactive next steps for a user of a content and automation admin console.
Return at most {{.Limit}} suggestions that are specific and can be acted on right away.
Ground every suggestion in the projects, preferences and habits you are given; do not invent projects.
Write titles and descriptions in Vietnamese unless the preferences name another language.
Never repeat a title the user already has open.
Confidence is your certainty between 0 and 1 that the user will act on the suggestion.`,
		User: `Projects:
{{if .ProjectsJSON}}{{.ProjectsJSON}}{{else}}none{{end}}

Preferences:
{{if .PreferencesJSON}}{{.PreferencesJSON}}{{else}}none{{end}}

Habits:
{{if .PatternsJSON}}{{.PatternsJSON}}{{else}}none{{end}}
{{if .ActiveTitles}}
Open suggestions:
{{range .ActiveTitles}}- {{.}}
{{end}}{{end}}`,
		Validators: []Validator{requireLimit},
	})
}

func requireLimit(in Input) error {
	if in.Limit < 1 {
		return fmt.Errorf("limit must be positive")
	}
	return nil
}
