package status

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/common"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/render"
	apitraining "github.com/opst/mlstudio/pkg/api/types/training"
	kflag "github.com/opst/mlstudio/pkg/commandline/flag"
	"github.com/youta-t/flarc"
)

const ARG_ID = "TRAINING_ID"

type Flag struct {
	Format *kflag.OneOf `flag:"format" metavar:"table|json|yaml" help:"output format"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show the current status of a training run.",
		Flag{Format: render.FormatFlag()},
		flarc.Args{
			{Name: ARG_ID, Required: true, Help: "id of the training run, told by `training start`"},
		},
		common.NewTask(Task),
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
	p, err := client.GetTrainingStatus(ctx, cl.Args()[ARG_ID][0])
	if err != nil {
		return err
	}
	return render.Output(cl.Stdout(), cl.Flags().Format.Value(), p, func(w io.Writer) error {
		return Table(w, p)
	})
}

// Table writes the status as label-value lines.
func Table(w io.Writer, p apitraining.Progress) error {
	model := ""
	if p.ModelId != nil {
		model = fmt.Sprintf("%d (%s)", *p.ModelId, p.ModelVersion)
	}
	for _, line := range [][2]any{
		{"Status:", fmt.Sprintf("%s %s", p.Status.Glyph(), p.Status)},
		{"Progress:", fmt.Sprintf("%.0f%%", p.Progress)},
		{"Message:", p.Message},
		{"Error:", p.Error},
		{"Model:", model},
		{"Dataset version:", p.DatasetVersion},
	} {
		if err := render.Row(w, line[0], line[1]); err != nil {
			return err
		}
	}
	return nil
}
