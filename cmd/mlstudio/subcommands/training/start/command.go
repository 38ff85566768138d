package start

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	cerr "github.com/opst/mlstudio/cmd/mlstudio/errors"
	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/common"
	dataset_split "github.com/opst/mlstudio/cmd/mlstudio/subcommands/dataset/split"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/lookup"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/progress"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/render"
	"github.com/opst/mlstudio/cmd/mlstudio/workflow/training"
	apitraining "github.com/opst/mlstudio/pkg/api/types/training"
	kflag "github.com/opst/mlstudio/pkg/commandline/flag"
	"github.com/youta-t/flarc"
)

const ARG_DATASET = "DATASET"

type Flag struct {
	Project      string                  `flag:"project" alias:"p" help:"name of the project. Default is the project in mlstudioenv."`
	ModelName    string                  `flag:"model-name" help:"name of the model to be trained. Default is model_<DATASET>_<unix millis>."`
	Architecture *kflag.OptionalString   `flag:"architecture" metavar:"NAME" help:"model architecture"`
	Epochs       *kflag.OptionalInt      `flag:"epochs" metavar:"N" help:"number of epochs"`
	BatchSize    *kflag.OptionalInt      `flag:"batch-size" metavar:"N" help:"batch size"`
	LearningRate *kflag.OptionalFloat    `flag:"learning-rate" metavar:"RATE" help:"learning rate"`
	NumClasses   *kflag.OptionalInt      `flag:"num-classes" metavar:"N" help:"number of classes"`
	Optimizer    *kflag.OptionalString   `flag:"optimizer" metavar:"NAME" help:"optimizer"`
	LossFunction *kflag.OptionalString   `flag:"loss-function" metavar:"NAME" help:"loss function"`
	Train        *kflag.Percent          `flag:"train" metavar:"PERCENT" help:"percentage of files for training"`
	Validation   *kflag.Percent          `flag:"validation" metavar:"PERCENT" help:"percentage of files for validation"`
	Test         *kflag.Percent          `flag:"test" metavar:"PERCENT" help:"percentage of files for test"`
	Detach       bool                    `flag:"detach" alias:"d" help:"do not wait for the training run to finish"`
	Interval     *kflag.OptionalDuration `flag:"interval" metavar:"DURATION" help:"interval of status requests, like 2s. Default is 2s."`
	Format       *kflag.OneOf            `flag:"format" metavar:"table|json|yaml" help:"output format"`
}

// Result is a training run started by this command.
type Result struct {
	Run apitraining.StartedRun `json:"run"`

	// Hyperparameters sent to the server.
	Hyperparameters apitraining.Hyperparameters `json:"hyperparameters"`

	// Progress is the last status. It is nil when detached.
	Progress *apitraining.Progress `json:"progress,omitempty"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Start training a model with a dataset.",
		Flag{
			Architecture: &kflag.OptionalString{},
			Epochs:       &kflag.OptionalInt{},
			BatchSize:    &kflag.OptionalInt{},
			LearningRate: &kflag.OptionalFloat{},
			NumClasses:   &kflag.OptionalInt{},
			Optimizer:    &kflag.OptionalString{},
			LossFunction: &kflag.OptionalString{},
			Train:        &kflag.Percent{},
			Validation:   &kflag.Percent{},
			Test:         &kflag.Percent{},
			Interval:     &kflag.OptionalDuration{},
			Format:       render.FormatFlag(),
		},
		flarc.Args{
			{Name: ARG_DATASET, Required: true, Help: "name or id of the dataset"},
		},
		common.NewTask(Task(time.Now)),
		flarc.WithDescription(`
Start a training run with a dataset, and wait for it to finish.

Hyperparameters are builtin defaults, overridden by "hyperparameters" in mlstudioenv,
and then by flags. The data split must sum up to 100.

	architecture YOLOv5, epochs 10, batch size 32, learning rate 0.001,
	classes 10, split 70/20/10, optimizer Adam, loss function CrossEntropy

With --detach, it returns just after the run is started.
Otherwise, it shows progress until the run is completed or failed.
Interrupting it stops watching, but the run goes on in the server.

Example
-------

	{{ .Command }} cats
	{{ .Command }} cats --epochs 50 --learning-rate 0.0005 --train 80 --validation 10 --test 10
`),
	)
}

// Hyperparameters resolves hyperparameters: defaults, then mlstudioenv, then flags.
//
// Errors wrap flarc.ErrUsage.
func Hyperparameters(e env.MLStudioEnv, flags Flag) (apitraining.Hyperparameters, error) {
	hp, err := e.HyperparametersWith(apitraining.DefaultHyperparameters())
	if err != nil {
		return hp, fmt.Errorf("%w: %w", flarc.ErrUsage, err)
	}

	s, err := dataset_split.Resolve(e, flags.Train, flags.Validation, flags.Test)
	if err != nil {
		return hp, err
	}
	hp.TrainSplit, hp.ValidationSplit, hp.TestSplit = s.Train, s.Validation, s.Test

	if v := flags.Architecture.Value(); v != nil {
		hp.ModelArchitecture = *v
	}
	if v := flags.Epochs.Value(); v != nil {
		hp.Epochs = *v
	}
	if v := flags.BatchSize.Value(); v != nil {
		hp.BatchSize = *v
	}
	if v := flags.LearningRate.Value(); v != nil {
		hp.LearningRate = *v
	}
	if v := flags.NumClasses.Value(); v != nil {
		hp.NumClasses = *v
	}
	if v := flags.Optimizer.Value(); v != nil {
		hp.Optimizer = *v
	}
	if v := flags.LossFunction.Value(); v != nil {
		hp.LossFunction = *v
	}

	for name, v := range map[string]int{
		"epochs": hp.Epochs, "batch size": hp.BatchSize, "number of classes": hp.NumClasses,
	} {
		if v <= 0 {
			return hp, fmt.Errorf("%w: %s should be positive, but %d", flarc.ErrUsage, name, v)
		}
	}
	if hp.LearningRate <= 0 {
		return hp, fmt.Errorf("%w: learning rate should be positive, but %g", flarc.ErrUsage, hp.LearningRate)
	}
	if strings.TrimSpace(hp.ModelArchitecture) == "" {
		return hp, fmt.Errorf("%w: model architecture is required", flarc.ErrUsage)
	}
	return hp, nil
}

// ModelName is the default name of a model trained with the dataset.
func ModelName(dataset string, now time.Time) string {
	return fmt.Sprintf("model_%s_%d", dataset, now.UnixMilli())
}

func Task(now func() time.Time) common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		e env.MLStudioEnv,
		client rest.MLStudioClient,
		cl flarc.Commandline[Flag],
		_ []any,
	) error {
		flags := cl.Flags()
		hp, err := Hyperparameters(e, flags)
		if err != nil {
			return err
		}
		projectName, err := lookup.ProjectName(e, flags.Project)
		if err != nil {
			return err
		}

		project, err := lookup.Project(ctx, client, projectName)
		if err != nil {
			return err
		}
		dataset, err := lookup.Dataset(ctx, client, projectName, cl.Args()[ARG_DATASET][0])
		if err != nil {
			return err
		}

		modelName := flags.ModelName
		if modelName == "" {
			modelName = ModelName(dataset.Name, now())
		}
		run, err := client.StartTraining(ctx, apitraining.Request{
			ProjectId:       project.Id,
			DatasetId:       dataset.Id,
			Hyperparameters: hp,
			ModelName:       modelName,
		})
		if err != nil {
			return err
		}
		if run.ModelName == "" {
			run.ModelName = modelName
		}
		logger.Printf("training %s is started: model %s with %s %s", run.TrainingId, run.ModelName, dataset.Name, dataset.Version)

		result := Result{Run: run, Hyperparameters: hp}
		if flags.Detach {
			return output(cl.Stdout(), flags.Format.Value(), result)
		}

		options := []training.Option{}
		if d := flags.Interval.Duration(); d != nil {
			options = append(options, training.WithInterval(*d))
		}
		last, err := follow(ctx, cl.Stderr(), training.NewPoller(client, logger, options...), run.TrainingId)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Printf(
					"stopped watching. training %s goes on; `mlstudio training status %s` tells its status.",
					run.TrainingId, run.TrainingId,
				)
			}
			return err
		}
		result.Progress = &last

		if err := output(cl.Stdout(), flags.Format.Value(), result); err != nil {
			return err
		}
		if last.Status == apitraining.Failed {
			detail := last.Error
			if detail == "" {
				detail = last.Message
			}
			return cerr.New("Training failed!", cerr.WithDetail(detail))
		}
		logger.Println("Training completed!")
		return nil
	}
}

// follow polls the run with a progress bar until it settles.
func follow(ctx context.Context, w io.Writer, poller *training.Poller, trainingId string) (apitraining.Progress, error) {
	bar, err := progress.Start(w)
	if err != nil {
		return apitraining.Progress{}, err
	}
	defer bar.Finish()

	return poller.Poll(ctx, trainingId, func(u training.Update) {
		if u.Err != nil {
			return
		}
		bar.Set(int(u.Progress.Progress), string(u.Progress.Status))
	})
}

func output(w io.Writer, format string, r Result) error {
	return render.Output(w, format, r, func(w io.Writer) error {
		render.Row(w, "Training:", r.Run.TrainingId)
		render.Row(w, "Model:", r.Run.ModelName)
		status := r.Run.Status
		if r.Progress != nil {
			status = r.Progress.Status
		}
		render.Row(w, "Status:", fmt.Sprintf("%s %s", status.Glyph(), status))
		if r.Progress != nil {
			render.Row(w, "Progress:", fmt.Sprintf("%.0f%%", r.Progress.Progress))
			if r.Progress.ModelId != nil {
				render.Row(w, "Model id:", *r.Progress.ModelId)
			}
			render.Row(w, "Model version:", r.Progress.ModelVersion)
			render.Row(w, "Dataset version:", r.Progress.DatasetVersion)
		}
		hp := r.Hyperparameters
		render.Row(
			w, "Hyperparameters:",
			fmt.Sprintf(
				"%s, epochs %d, batch %d, lr %g, classes %d, %s, %s",
				hp.ModelArchitecture, hp.Epochs, hp.BatchSize, hp.LearningRate,
				hp.NumClasses, hp.Optimizer, hp.LossFunction,
			),
		)
		render.Row(
			w, "Split:",
			fmt.Sprintf("train %d%% / validation %d%% / test %d%%", hp.TrainSplit, hp.ValidationSplit, hp.TestSplit),
		)
		return nil
	})
}
