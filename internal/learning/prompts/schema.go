package prompts

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// ReflectSchema builds a strict structured-output schema from a Go type.
// Draft metadata keys are dropped; the Responses API rejects them.
func ReflectSchema(v any) map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	raw, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		panic(err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	delete(out, "$schema")
	delete(out, "$id")
	return out
}
