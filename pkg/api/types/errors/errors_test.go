package errors_test

import (
	"encoding/json"
	"testing"

	apierr "github.com/opst/mlstudio/pkg/api/types/errors"
)

func TestErrorMessage(t *testing.T) {
	t.Run("detail as a string", func(t *testing.T) {
		var em apierr.ErrorMessage
		if err := json.Unmarshal([]byte(`{"detail": "Project not found"}`), &em); err != nil {
			t.Fatal(err)
		}
		if em.Detail != "Project not found" {
			t.Errorf("unexpected detail: %s", em.Detail)
		}
	})

	t.Run("detail as validation issues", func(t *testing.T) {
		var em apierr.ErrorMessage
		payload := `{"detail": [
			{"loc": ["body", "projectId"], "msg": "field required", "type": "value_error.missing"},
			{"loc": ["body", 0], "msg": "bad", "type": "x"}
		]}`
		if err := json.Unmarshal([]byte(payload), &em); err != nil {
			t.Fatal(err)
		}
		expected := "body.projectId: field required\nbody.0: bad"
		if em.Detail != expected {
			t.Errorf("unexpected detail:\n===actual===\n%s\n===expected===\n%s", em.Detail, expected)
		}
		if len(em.Issues) != 2 {
			t.Errorf("unexpected issues: %v", em.Issues)
		}
	})

	t.Run("payload without detail is rejected", func(t *testing.T) {
		var em apierr.ErrorMessage
		if err := json.Unmarshal([]byte(`{"message": "oops"}`), &em); err == nil {
			t.Errorf("no error")
		}
	})
}
