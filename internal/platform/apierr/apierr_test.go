package apierr

import (
	"fmt"
	"net/http"
	"testing"

	pkgerrors "github.com/yungbote/suggestion-engine/internal/pkg/errors"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", pkgerrors.Invalid("feedback_type", "unknown"), http.StatusBadRequest, "invalid_argument"},
		{"wrapped not found", fmt.Errorf("load suggestion: %w", pkgerrors.ErrNotFound), http.StatusNotFound, "not_found"},
		{"unclassified", fmt.Errorf("boom"), http.StatusInternalServerError, "collect_failed"},
		{"passthrough", New(http.StatusConflict, "conflict", nil), http.StatusConflict, "conflict"},
	}
	for _, tc := range cases {
		got := FromError(tc.err, "collect_failed")
		if got.Status != tc.status || got.Code != tc.code {
			t.Fatalf("%s: want=%d/%s got=%d/%s", tc.name, tc.status, tc.code, got.Status, got.Code)
		}
	}
}
