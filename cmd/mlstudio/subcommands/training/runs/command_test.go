package runs_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	"github.com/opst/mlstudio/cmd/mlstudio/rest/mock"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/commandline"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/render"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/logger"
	training_runs "github.com/opst/mlstudio/cmd/mlstudio/subcommands/training/runs"
	"github.com/opst/mlstudio/pkg/api/types/models"
	apitraining "github.com/opst/mlstudio/pkg/api/types/training"
	"github.com/opst/mlstudio/pkg/cmp"
	kflag "github.com/opst/mlstudio/pkg/commandline/flag"
	"github.com/opst/mlstudio/pkg/utils"
	"github.com/opst/mlstudio/pkg/utils/try"
)

var now = time.Date(2025, 1, 2, 12, 0, 0, 0, time.Local)

var runs = []apitraining.Run{
	{
		Id: 1, Status: apitraining.Completed, ProjectName: "vision",
		DatasetName: "cats", DatasetVersion: "v1", ModelName: "model_cats_1", ModelVersion: "v1",
		Metrics:   models.Metrics{"accuracy": 0.87},
		StartedAt: "2025-01-02T10:00:00", CompletedAt: "2025-01-02T10:30:00",
	},
	{
		Id: 2, Status: apitraining.Running, ProjectName: "vision",
		DatasetName: "dogs", StartedAt: "2025-01-02T11:15:00",
	},
	{Id: 3, Status: apitraining.Failed, ProjectName: "nlp", DatasetName: "reviews"},
}

func run(t *testing.T, flags training_runs.Flag) *bytes.Buffer {
	t.Helper()
	client := mock.New(t)
	client.Impl.ListTrainingRuns = func(context.Context) ([]apitraining.Run, error) {
		return runs, nil
	}

	stdout := new(bytes.Buffer)
	err := training_runs.Task(func() time.Time { return now })(
		context.Background(), logger.Null(), *env.New(), client,
		commandline.MockCommandline[training_runs.Flag]{
			Stdout_: stdout, Stderr_: io.Discard,
			Flags_: flags,
			Args_:  map[string][]string{},
		},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	return stdout
}

func TestRunsCommand(t *testing.T) {
	json_ := func(t *testing.T) *kflag.OneOf {
		f := render.FormatFlag()
		try.To(0, f.Set(render.Json)).OrFatal(t)
		return f
	}

	type Then struct {
		ids []int
	}
	theory := func(flags func(*testing.T) training_runs.Flag, then Then) func(*testing.T) {
		return func(t *testing.T) {
			stdout := run(t, flags(t))
			actual := []apitraining.Run{}
			try.To(0, json.Unmarshal(stdout.Bytes(), &actual)).OrFatal(t)
			ids := utils.Map(actual, func(r apitraining.Run) int { return r.Id })
			if !cmp.SliceEq(ids, then.ids) {
				t.Errorf("ids: %v (expected %v)", ids, then.ids)
			}
		}
	}

	t.Run("all runs are listed", theory(
		func(t *testing.T) training_runs.Flag { return training_runs.Flag{Format: json_(t)} },
		Then{ids: []int{1, 2, 3}},
	))
	t.Run("runs are filtered by project", theory(
		func(t *testing.T) training_runs.Flag {
			return training_runs.Flag{Project: "vision", Format: json_(t)}
		},
		Then{ids: []int{1, 2}},
	))
	t.Run("runs are filtered by status", theory(
		func(t *testing.T) training_runs.Flag {
			return training_runs.Flag{Status: "FAILED", Format: json_(t)}
		},
		Then{ids: []int{3}},
	))
}

func TestRunsCommand_Table(t *testing.T) {
	out := run(t, training_runs.Flag{Format: render.FormatFlag()}).String()
	for _, s := range []string{
		"✓ completed", "🔄 running", "✗ failed",
		"cats (v1)", "model_cats_1 (v1)", "87.00%", "30 min", "45 min",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("%q is not found in:\n%s", s, out)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if d := training_runs.FormatDuration(apitraining.Run{}, now); d != "" {
		t.Errorf("not started run: %q", d)
	}
	if d := training_runs.FormatDuration(runs[0], now); d != "30 min" {
		t.Errorf("completed run: %q", d)
	}
}
