package runs

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/common"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/render"
	apitraining "github.com/opst/mlstudio/pkg/api/types/training"
	kflag "github.com/opst/mlstudio/pkg/commandline/flag"
	"github.com/opst/mlstudio/pkg/utils"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Project string       `flag:"project" alias:"p" help:"show only runs in the project"`
	Status  string       `flag:"status" alias:"s" metavar:"STATUS" help:"show only runs in the status (pending, running, completed, failed, ...)"`
	Format  *kflag.OneOf `flag:"format" metavar:"table|json|yaml" help:"output format"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"List training runs.",
		Flag{Format: render.FormatFlag()},
		flarc.Args{},
		common.NewTask(Task(time.Now)),
		flarc.WithDescription(`
List training runs recorded in the server, with their durations in minutes.

Runs still running are measured until now.
`),
	)
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
		runs, err := client.ListTrainingRuns(ctx)
		if err != nil {
			return err
		}
		runs = utils.Filter(runs, func(r apitraining.Run) bool {
			if flags.Project != "" && r.ProjectName != flags.Project {
				return false
			}
			if flags.Status != "" && !strings.EqualFold(string(r.Status), flags.Status) {
				return false
			}
			return true
		})

		at := now()
		return render.Output(cl.Stdout(), flags.Format.Value(), runs, func(w io.Writer) error {
			if len(runs) == 0 {
				_, err := io.WriteString(w, "No training runs found\n")
				return err
			}
			render.Row(w, "ID", "STATUS", "PROJECT", "DATASET", "MODEL", "ACCURACY", "DURATION", "STARTED AT")
			for _, r := range runs {
				dataset := r.DatasetName
				if r.DatasetVersion != "" {
					dataset = fmt.Sprintf("%s (%s)", r.DatasetName, r.DatasetVersion)
				}
				model := r.ModelName
				if r.ModelVersion != "" {
					model = fmt.Sprintf("%s (%s)", r.ModelName, r.ModelVersion)
				}
				accuracy := ""
				if _, ok := r.Metrics["accuracy"]; ok {
					accuracy = r.Metrics.FormatAccuracy()
				}
				render.Row(
					w, r.Id, fmt.Sprintf("%s %s", r.Status.Glyph(), r.Status), r.ProjectName, dataset, model,
					accuracy, FormatDuration(r, at), r.StartedAt,
				)
			}
			return nil
		})
	}
}

// FormatDuration renders how long the run took, in whole minutes.
//
// It is empty when the run has not been started.
func FormatDuration(r apitraining.Run, now time.Time) string {
	d, ok := r.Duration(now)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%d min", int(d.Round(time.Minute).Minutes()))
}
