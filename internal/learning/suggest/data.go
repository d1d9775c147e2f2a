package suggest

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// decodeData reports an error for a pattern_data blob that is not a JSON
// object; an empty blob decodes to an empty map.
func decodeData(raw datatypes.JSON) (map[string]any, error) {
	out := map[string]any{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode pattern_data: %w", err)
	}
	return out, nil
}
