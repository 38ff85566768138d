package models_test

import (
	"encoding/json"
	"testing"

	"github.com/opst/mlstudio/pkg/api/types/models"
	"github.com/opst/mlstudio/pkg/cmp"
)

func TestMetrics(t *testing.T) {
	type when struct {
		payload string
	}
	type then struct {
		accuracy string
		loss     string
		epochs   int
	}

	theory := func(when when, then then) func(*testing.T) {
		return func(t *testing.T) {
			var model models.Detail
			if err := json.Unmarshal([]byte(when.payload), &model); err != nil {
				t.Fatal(err)
			}

			if actual := model.Metrics.FormatAccuracy(); actual != then.accuracy {
				t.Errorf("accuracy: (actual, expected) = (%s, %s)", actual, then.accuracy)
			}
			if actual := model.Metrics.FormatLoss(); actual != then.loss {
				t.Errorf("loss: (actual, expected) = (%s, %s)", actual, then.loss)
			}
			if actual := model.Metrics.Epochs(); actual != then.epochs {
				t.Errorf("epochs: (actual, expected) = (%d, %d)", actual, then.epochs)
			}
		}
	}

	t.Run("metrics as an object", theory(
		when{payload: `{"id": 1, "name": "m", "metrics": {"accuracy": 0.87, "loss": 0.23, "epochs_completed": 10}}`},
		then{accuracy: "87.00%", loss: "0.2300", epochs: 10},
	))

	t.Run("metrics as a string holding an object", theory(
		when{payload: `{"id": 1, "name": "m", "metrics": "{\"accuracy\": 0.87, \"loss\": 0.23, \"final_epochs\": 5}"}`},
		then{accuracy: "87.00%", loss: "0.2300", epochs: 5},
	))

	t.Run("metrics as a broken string", theory(
		when{payload: `{"id": 1, "name": "m", "metrics": "{accuracy: oops"}`},
		then{accuracy: "0.00%", loss: "0.0000", epochs: 0},
	))

	t.Run("metrics missing", theory(
		when{payload: `{"id": 1, "name": "m"}`},
		then{accuracy: "0.00%", loss: "0.0000", epochs: 0},
	))

	t.Run("metrics null", theory(
		when{payload: `{"id": 1, "name": "m", "metrics": null}`},
		then{accuracy: "0.00%", loss: "0.0000", epochs: 0},
	))

	t.Run("epochs_completed of zero falls back to final_epochs", theory(
		when{payload: `{"id": 1, "metrics": {"epochs_completed": 0, "final_epochs": 7}}`},
		then{accuracy: "0.00%", loss: "0.0000", epochs: 7},
	))
}

func TestParameters(t *testing.T) {
	t.Run("parameters in a string are decoded", func(t *testing.T) {
		var model models.Detail
		if err := json.Unmarshal(
			[]byte(`{"parameters": "{\"epochs\": 10, \"optimizer\": \"Adam\", \"train_split\": 80}"}`),
			&model,
		); err != nil {
			t.Fatal(err)
		}

		if !cmp.SliceEq(model.Parameters.Keys(), []string{"epochs", "optimizer", "train_split"}) {
			t.Errorf("unexpected keys: %v", model.Parameters.Keys())
		}
		if got := model.Parameters.Get("epochs"); got != "10" {
			t.Errorf("epochs: %s", got)
		}
		if got := model.Parameters.Get("optimizer"); got != "Adam" {
			t.Errorf("optimizer: %s", got)
		}

		train, val, test, ok := model.Parameters.Split()
		if !ok || train != 80 || val != 20 || test != 10 {
			t.Errorf("split: %d/%d/%d (%v)", train, val, test, ok)
		}
	})

	t.Run("parameters without split report no split", func(t *testing.T) {
		params := models.Parameters{"epochs": 3.0}
		if _, _, _, ok := params.Split(); ok {
			t.Errorf("split should not be reported")
		}
	})
}

func TestTags(t *testing.T) {
	for payload, expected := range map[string][]string{
		`{"tags": ["a", "b"]}`:       {"a", "b"},
		`{"tags": "[\"a\", \"b\"]"}`: {"a", "b"},
		`{"tags": "single"}`:         {"single"},
		`{"tags": 3}`:                {},
	} {
		var model models.Detail
		if err := json.Unmarshal([]byte(payload), &model); err != nil {
			t.Fatal(err)
		}
		if !cmp.SliceEq([]string(model.Tags), expected) {
			t.Errorf("%s: (actual, expected) = (%v, %v)", payload, model.Tags, expected)
		}
	}
}
