package prompts

import (
	"fmt"
	"strings"
)

// PreferenceExtraction is the structured output of the extraction prompt.
type PreferenceExtraction struct {
	Preferences []ExtractedPreference `json:"preferences" jsonschema:"description=Preferences implied by the correction; empty when none"`
}

type ExtractedPreference struct {
	Type       string  `json:"type" jsonschema:"description=Preference category such as response_style or content_tone or language or format or preferred_actions"`
	Key        string  `json:"key" jsonschema:"description=Specific aspect inside the category such as tone or length or emoji"`
	Value      string  `json:"value" jsonschema:"description=Preferred value"`
	Confidence float64 `json:"confidence" jsonschema:"minimum=0,maximum=1"`
}

func init() {
	RegisterSpec(Spec{
		Name:       PromptPreferenceExtraction,
		Version:    1,
		SchemaName: "preference_extraction",
		Schema:     func() map[string]any { return ReflectSchema(&PreferenceExtraction{}) },
		System: `You extract durable user preferences from a correction the user made to an assistant reply.
Compare the assistant reply with the corrected version and describe what the user consistently wants:
style, tone, length, formatting, emoji use, language, or actions they favor.
Use lower snake case for type and key. Prefer these types when they fit:
response_style, content_tone, language, format, preferred_actions.
Only report preferences the correction actually shows. Return an empty list when nothing generalizes.
Confidence is your certainty between 0 and 1.`,
		User: `Original request:
{{.OriginalMessage}}

Assistant reply:
{{.AIResponse}}

Corrected reply:
{{.CorrectedResponse}}
{{if .ContextJSON}}
Context:
{{.ContextJSON}}
{{end}}`,
		Validators: []Validator{requireCorrection},
	})
}

func requireCorrection(in Input) error {
	if strings.TrimSpace(in.OriginalMessage) == "" {
		return fmt.Errorf("missing original message")
	}
	if strings.TrimSpace(in.CorrectedResponse) == "" {
		return fmt.Errorf("missing corrected response")
	}
	return nil
}
