package list

import (
	"context"
	"io"
	"log"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/common"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/lookup"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/render"
	"github.com/opst/mlstudio/pkg/api/types/models"
	kflag "github.com/opst/mlstudio/pkg/commandline/flag"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Project string       `flag:"project" alias:"p" help:"name of the project. Default is the project in mlstudioenv."`
	All     bool         `flag:"all" alias:"a" help:"list models of all projects"`
	Format  *kflag.OneOf `flag:"format" metavar:"table|json|yaml" help:"output format"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"List trained models.",
		Flag{Format: render.FormatFlag()},
		flarc.Args{},
		common.NewTask(Task),
		flarc.WithDescription(`
List trained models in a project.

Without --project nor the project in mlstudioenv, or with --all, models of all projects are listed.
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

	var projectId *int
	if name := e.ProjectOr(flags.Project); name != "" && !flags.All {
		p, err := lookup.Project(ctx, client, name)
		if err != nil {
			return err
		}
		projectId = &p.Id
	}

	ms, err := client.ListModels(ctx, projectId)
	if err != nil {
		return err
	}

	return render.Output(cl.Stdout(), flags.Format.Value(), ms, func(w io.Writer) error {
		return Table(w, ms)
	})
}

// Table writes models, one in a line.
func Table(w io.Writer, ms []models.Detail) error {
	if len(ms) == 0 {
		_, err := io.WriteString(w, "No models found\n")
		return err
	}
	render.Row(w, "ID", "NAME", "VERSION", "PROJECT", "ACCURACY", "LOSS", "CREATED AT")
	for _, m := range ms {
		render.Row(
			w, m.Id, m.Name, m.Version, m.ProjectName,
			m.Metrics.FormatAccuracy(), m.Metrics.FormatLoss(), m.CreatedAt,
		)
	}
	return nil
}
