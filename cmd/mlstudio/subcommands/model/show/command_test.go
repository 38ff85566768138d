package show_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	"github.com/opst/mlstudio/cmd/mlstudio/rest/mock"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/commandline"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/render"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/logger"
	model_show "github.com/opst/mlstudio/cmd/mlstudio/subcommands/model/show"
	"github.com/opst/mlstudio/pkg/api/types/models"
	"github.com/youta-t/flarc"
)

func TestShowCommand(t *testing.T) {
	model := models.Detail{
		Id: 3, Name: "model_cats_1700000000000", Version: "v1",
		Metrics: models.Metrics{"accuracy": 0.87, "loss": 0.23, "epochs_completed": 10.0},
		Parameters: models.Parameters{
			"learning_rate": 0.001, "batch_size": 32.0, "train_split": 80.0,
		},
	}

	type Then struct {
		err      error
		contains []string
	}

	theory := func(id string, then Then) func(*testing.T) {
		return func(t *testing.T) {
			client := mock.New(t)
			client.Impl.GetModel = func(_ context.Context, id int) (models.Detail, error) {
				return model, nil
			}

			stdout := new(bytes.Buffer)
			err := model_show.Task(
				context.Background(), logger.Null(), *env.New(), client,
				commandline.MockCommandline[model_show.Flag]{
					Stdout_: stdout, Stderr_: io.Discard,
					Flags_: model_show.Flag{Format: render.FormatFlag()},
					Args_:  map[string][]string{model_show.ARG_ID: {id}},
				},
				nil,
			)
			if then.err != nil {
				if !errors.Is(err, then.err) {
					t.Errorf("unexpected error: %v (expected %v)", err, then.err)
				}
				if len(client.Calls.GetModel) != 0 {
					t.Errorf("GetModel is called: %v", client.Calls.GetModel)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(client.Calls.GetModel) != 1 || client.Calls.GetModel[0] != 3 {
				t.Errorf("GetModel: %v", client.Calls.GetModel)
			}
			for _, s := range then.contains {
				if !strings.Contains(stdout.String(), s) {
					t.Errorf("%q is not found in:\n%s", s, stdout.String())
				}
			}
		}
	}

	t.Run("it shows metrics, split and hyperparameters", theory("3", Then{
		contains: []string{
			"model_cats_1700000000000", "87.00%", "0.2300",
			"train 80% / validation 20% / test 10%",
			"learning_rate", "0.001", "batch_size", "32",
		},
	}))
	t.Run("non-integer id is a usage error", theory("three", Then{err: flarc.ErrUsage}))
}
