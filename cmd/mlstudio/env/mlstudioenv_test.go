package env_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	"github.com/opst/mlstudio/pkg/api/types/training"
)

func TestLoadMLStudioEnv(t *testing.T) {
	t.Run("it reads defaults from file", func(t *testing.T) {
		e, err := env.LoadMLStudioEnv("./testdata/mlstudioenv.yaml")
		if err != nil {
			t.Fatal(err)
		}
		if e.Project != "vision" {
			t.Errorf("project: %s", e.Project)
		}

		hp, err := e.HyperparametersWith(training.DefaultHyperparameters())
		if err != nil {
			t.Fatal(err)
		}
		want := training.DefaultHyperparameters()
		want.Epochs = 30
		want.Optimizer = "SGD"
		want.TrainSplit = 80
		want.ValidationSplit = 10
		want.TestSplit = 10
		if hp != want {
			t.Errorf("hyperparameters:\n===actual===\n%+v\n===expected===\n%+v", hp, want)
		}
	})

	t.Run("missing file gives empty env", func(t *testing.T) {
		e, err := env.LoadMLStudioEnv(filepath.Join(t.TempDir(), "mlstudioenv"))
		if err != nil {
			t.Fatal(err)
		}
		hp, err := e.HyperparametersWith(training.DefaultHyperparameters())
		if err != nil {
			t.Fatal(err)
		}
		if hp != training.DefaultHyperparameters() {
			t.Errorf("unexpected hyperparameters: %+v", hp)
		}
	})

	t.Run("broken file causes error", func(t *testing.T) {
		_, err := env.LoadMLStudioEnv("./testdata/broken.yaml")
		if err == nil {
			t.Fatal("no error")
		}
		if errors.Is(err, os.ErrNotExist) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestProjectOr(t *testing.T) {
	e := &env.MLStudioEnv{Project: "vision"}
	if got := e.ProjectOr(" audio "); got != "audio" {
		t.Errorf("explicit: %s", got)
	}
	if got := e.ProjectOr(""); got != "vision" {
		t.Errorf("default: %s", got)
	}
}

func TestApiBaseUrl(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv(env.EnvApiBaseUrl, "")
		if got := env.ApiBaseUrl(""); got != env.DefaultApiBaseUrl {
			t.Errorf("got %s", got)
		}
	})

	t.Run("environment variable wins over dotenv", func(t *testing.T) {
		t.Setenv(env.EnvApiBaseUrl, "http://override:9000")
		if got := env.ApiBaseUrl("./testdata/dotenv"); got != "http://override:9000" {
			t.Errorf("got %s", got)
		}
	})

	t.Run("dotenv is read when the variable is empty", func(t *testing.T) {
		t.Setenv(env.EnvApiBaseUrl, "")
		os.Unsetenv(env.EnvApiBaseUrl)
		if got := env.ApiBaseUrl("./testdata/dotenv"); got != "http://ml.example.com:8000" {
			t.Errorf("got %s", got)
		}
	})
}
