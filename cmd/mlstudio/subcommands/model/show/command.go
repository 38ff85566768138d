package show

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/common"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/render"
	"github.com/opst/mlstudio/pkg/api/types/models"
	kflag "github.com/opst/mlstudio/pkg/commandline/flag"
	"github.com/youta-t/flarc"
)

const ARG_ID = "ID"

type Flag struct {
	Format *kflag.OneOf `flag:"format" metavar:"table|json|yaml" help:"output format"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show a trained model with its metrics and hyperparameters.",
		Flag{Format: render.FormatFlag()},
		flarc.Args{
			{Name: ARG_ID, Required: true, Help: "id of the model"},
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
	id, err := strconv.Atoi(cl.Args()[ARG_ID][0])
	if err != nil {
		return fmt.Errorf("%w: model id should be an integer: %w", flarc.ErrUsage, err)
	}
	m, err := client.GetModel(ctx, id)
	if err != nil {
		return err
	}

	return render.Output(cl.Stdout(), cl.Flags().Format.Value(), m, func(w io.Writer) error {
		return Table(w, m)
	})
}

// Table writes the model as label-value lines.
func Table(w io.Writer, m models.Detail) error {
	dataset := ""
	if m.DatasetId != nil {
		dataset = strconv.Itoa(*m.DatasetId)
	}
	for _, line := range [][2]any{
		{"Model:", m.Name},
		{"Id:", m.Id},
		{"Version:", m.Version},
		{"Project:", m.ProjectName},
		{"Dataset:", dataset},
		{"Framework:", m.Framework},
		{"Created by:", m.CreatedBy},
		{"Created at:", m.CreatedAt},
		{"Tags:", strings.Join(m.Tags, ", ")},
		{"Accuracy:", m.Metrics.FormatAccuracy()},
		{"Loss:", m.Metrics.FormatLoss()},
		{"Epochs:", m.Metrics.Epochs()},
	} {
		if err := render.Row(w, line[0], line[1]); err != nil {
			return err
		}
	}
	if train, validation, test, ok := m.Parameters.Split(); ok {
		render.Row(w, "Split:", fmt.Sprintf("train %d%% / validation %d%% / test %d%%", train, validation, test))
	}

	keys := m.Parameters.Keys()
	if len(keys) == 0 {
		return nil
	}
	fmt.Fprintln(w, "\nHyperparameters")
	for _, k := range keys {
		render.Row(w, "  "+k, m.Parameters.Get(k))
	}
	return nil
}
