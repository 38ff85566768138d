package env

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/opst/mlstudio/pkg/api/types/training"
	"github.com/opst/mlstudio/pkg/split"
	"gopkg.in/yaml.v3"
)

const (
	// EnvApiBaseUrl overrides the server address when no profile is available.
	EnvApiBaseUrl = "MLSTUDIO_API_BASE_URL"

	DefaultApiBaseUrl = "http://localhost:8000"
)

// MLStudioEnv is defaults for commands in a working directory.
type MLStudioEnv struct {
	// Project is the name of the project used when --project is omitted.
	Project string `yaml:"project"`

	// Hyperparameters overrides defaults of `training start`.
	//
	// Missing keys keep the builtin defaults.
	Hyperparameters map[string]any `yaml:"hyperparameters"`

	// Split overrides the default data split.
	Split *split.Split `yaml:"split"`
}

func New() *MLStudioEnv {
	return new(MLStudioEnv)
}

// LoadMLStudioEnv reads mlstudioenv file.
//
// A missing file is not an error and gives an empty MLStudioEnv.
func LoadMLStudioEnv(filepath string) (*MLStudioEnv, error) {
	env := MLStudioEnv{}

	content, err := os.ReadFile(filepath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &env, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(content, &env); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath, err)
	}
	return &env, nil
}

// ProjectOr returns the project given explicitly, or the default project of this env.
func (e *MLStudioEnv) ProjectOr(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	return strings.TrimSpace(e.Project)
}

// HyperparametersWith returns builtin defaults overridden by this env.
func (e *MLStudioEnv) HyperparametersWith(base training.Hyperparameters) (training.Hyperparameters, error) {
	ret := base
	if len(e.Hyperparameters) != 0 {
		// round trip to apply partial overrides on top of base.
		buf, err := yaml.Marshal(e.Hyperparameters)
		if err != nil {
			return base, err
		}
		if err := yaml.Unmarshal(buf, &ret); err != nil {
			return base, fmt.Errorf("hyperparameters in mlstudioenv: %w", err)
		}
	}
	if e.Split != nil {
		ret.TrainSplit = e.Split.Train
		ret.ValidationSplit = e.Split.Validation
		ret.TestSplit = e.Split.Test
	}
	return ret, nil
}

// ApiBaseUrl resolves the server address from environment variables.
//
// dotenv is read before looking up MLSTUDIO_API_BASE_URL, without overriding variables already set.
// When the variable is empty, it returns DefaultApiBaseUrl.
func ApiBaseUrl(dotenv string) string {
	if dotenv != "" {
		// missing or broken .env does not block commands.
		godotenv.Load(dotenv)
	}
	if v := strings.TrimSpace(os.Getenv(EnvApiBaseUrl)); v != "" {
		return strings.TrimSuffix(v, "/")
	}
	return DefaultApiBaseUrl
}
