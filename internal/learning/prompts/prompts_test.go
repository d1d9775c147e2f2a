package prompts

import (
	"strings"
	"testing"
)

func TestBuildPreferenceExtraction(t *testing.T) {
	p, err := Build(PromptPreferenceExtraction, Input{
		OriginalMessage:   "Tạo bài post",
		AIResponse:        "Casual reply",
		CorrectedResponse: "Professional reply",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(p.User, "Professional reply") || strings.Contains(p.User, "Context:") {
		t.Fatalf("user render: got=%q", p.User)
	}
	if p.SchemaName != "preference_extraction" {
		t.Fatalf("schema name: got=%q", p.SchemaName)
	}
	if len(p.Fingerprint()) != 16 {
		t.Fatalf("fingerprint: got=%q", p.Fingerprint())
	}

	if _, err := Build(PromptPreferenceExtraction, Input{OriginalMessage: "x"}); err == nil {
		t.Fatalf("Build without correction: want error")
	}
	if _, err := Build("missing", Input{}); err == nil {
		t.Fatalf("Build unknown: want error")
	}
}

func TestPreferenceSchemaIsStrict(t *testing.T) {
	s := ReflectSchema(&PreferenceExtraction{})
	if _, ok := s["$schema"]; ok {
		t.Fatalf("schema: $schema should be stripped")
	}
	if s["additionalProperties"] != false {
		t.Fatalf("schema: want additionalProperties=false got=%v", s["additionalProperties"])
	}
	props, _ := s["properties"].(map[string]any)
	prefs, _ := props["preferences"].(map[string]any)
	items, _ := prefs["items"].(map[string]any)
	required, _ := items["required"].([]any)
	if len(required) != 4 {
		t.Fatalf("item required: want=4 got=%v", required)
	}
}

func TestBuildSuggestionGeneration(t *testing.T) {
	p, err := Build(PromptSuggestionGeneration, Input{
		Limit:        3,
		ProjectsJSON: `[{"id":"p1","name":"Cà phê"}]`,
		ActiveTitles: []string{"Sao lưu database"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(p.System, "at most 3") {
		t.Fatalf("system render: got=%q", p.System)
	}
	if !strings.Contains(p.User, "Cà phê") || !strings.Contains(p.User, "- Sao lưu database") {
		t.Fatalf("user render: got=%q", p.User)
	}
	if !strings.Contains(p.User, "Preferences:\nnone") {
		t.Fatalf("empty preferences: got=%q", p.User)
	}

	props, _ := p.Schema["properties"].(map[string]any)
	list, _ := props["suggestions"].(map[string]any)
	items, _ := list["items"].(map[string]any)
	itemProps, _ := items["properties"].(map[string]any)
	priority, _ := itemProps["priority"].(map[string]any)
	if enum, _ := priority["enum"].([]any); len(enum) != 3 {
		t.Fatalf("priority enum: got=%v", priority["enum"])
	}

	if _, err := Build(PromptSuggestionGeneration, Input{}); err == nil {
		t.Fatalf("Build without limit: want error")
	}
}
