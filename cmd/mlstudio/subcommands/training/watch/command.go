package watch

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	cerr "github.com/opst/mlstudio/cmd/mlstudio/errors"
	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/common"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/render"
	"github.com/opst/mlstudio/cmd/mlstudio/workflow/training"
	apitraining "github.com/opst/mlstudio/pkg/api/types/training"
	kflag "github.com/opst/mlstudio/pkg/commandline/flag"
	"github.com/opst/mlstudio/pkg/utils"
	"github.com/youta-t/flarc"
)

const ARG_ID = "TRAINING_ID"

type Flag struct {
	Interval *kflag.OptionalDuration `flag:"interval" metavar:"DURATION" help:"interval of status requests, like 2s. Default is 2s."`
	Format   *kflag.OneOf            `flag:"format" metavar:"table|json|yaml" help:"output format"`
}

// Entry is a watched run as it is written in json or yaml.
type Entry struct {
	TrainingId string               `json:"training_id"`
	Progress   apitraining.Progress `json:"progress"`
	Error      string               `json:"error,omitempty"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Watch training runs until all of them finish.",
		Flag{
			Interval: &kflag.OptionalDuration{},
			Format:   render.FormatFlag(),
		},
		flarc.Args{
			{Name: ARG_ID, Required: true, Repeatable: true, Help: "ids of training runs"},
		},
		common.NewTask(Task),
		flarc.WithDescription(`
Watch training runs at once, until all of them are completed or failed.

Each change is logged to stderr. When all runs finish, their last statuses are written to stdout.
If any run has failed, it exits with error.

Example
-------

	{{ .Command }} 0f9e... 5c1a...
`),
	)
}

func Task(
	ctx context.Context,
	logger *log.Logger,
	e env.MLStudioEnv,
	client rest.MLStudioClient,
	cl flarc.Commandline[Flag],
	_ []any,
) error {
	flags := cl.Flags()
	options := []training.Option{}
	if d := flags.Interval.Duration(); d != nil {
		options = append(options, training.WithInterval(*d))
	}

	runs := utils.Map(cl.Args()[ARG_ID], func(id string) apitraining.StartedRun {
		return apitraining.StartedRun{TrainingId: id, Status: apitraining.Pending}
	})
	tracker := training.NewTracker(training.NewPoller(client, logger, options...), logger)

	last := map[string]apitraining.Progress{}
	snapshot, err := tracker.Track(ctx, runs, func(s training.Snapshot) {
		for _, r := range append(s.Active, s.Finished...) {
			if r.Err != nil {
				continue
			}
			if prev, ok := last[r.TrainingId]; ok && prev.Equal(&r.Progress) {
				continue
			}
			last[r.TrainingId] = r.Progress
			logger.Printf(
				"%s %s: %s %.0f%% %s",
				r.Progress.Status.Glyph(), r.TrainingId, r.Progress.Status, r.Progress.Progress, r.Progress.Message,
			)
		}
		logger.Printf("%d running, %d finished", len(s.Active), len(s.Finished))
	})
	if err != nil {
		return err
	}

	entries := utils.Map(snapshot.Finished, func(r training.Run) Entry {
		return Entry{TrainingId: r.TrainingId, Progress: r.Progress, Error: r.Progress.Error}
	})
	if err := render.Output(cl.Stdout(), flags.Format.Value(), entries, func(w io.Writer) error {
		render.Row(w, "TRAINING ID", "STATUS", "PROGRESS", "MODEL VERSION", "ERROR")
		for _, en := range entries {
			render.Row(
				w, en.TrainingId,
				fmt.Sprintf("%s %s", en.Progress.Status.Glyph(), en.Progress.Status),
				fmt.Sprintf("%.0f%%", en.Progress.Progress),
				en.Progress.ModelVersion,
				en.Error,
			)
		}
		return nil
	}); err != nil {
		return err
	}

	failed := utils.Filter(entries, func(en Entry) bool { return en.Progress.Status == apitraining.Failed })
	if len(failed) != 0 {
		return cerr.Newf("%d of %d training runs failed", len(failed), len(entries))
	}
	return nil
}
