package list

import (
	"context"
	"io"
	"log"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/common"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/render"
	"github.com/opst/mlstudio/pkg/api/types/projects"
	kflag "github.com/opst/mlstudio/pkg/commandline/flag"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Format *kflag.OneOf `flag:"format" metavar:"table|json|yaml" help:"output format"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"List all projects.",
		Flag{Format: render.FormatFlag()},
		flarc.Args{},
		common.NewTask(Task),
	)
}

func Task(
	ctx context.Context,
	logger *log.Logger,
	_ env.MLStudioEnv,
	client rest.MLStudioClient,
	cl flarc.Commandline[Flag],
	_ []any,
) error {
	ps, err := client.ListProjects(ctx)
	if err != nil {
		return err
	}

	return render.Output(cl.Stdout(), cl.Flags().Format.Value(), ps, func(w io.Writer) error {
		return Table(w, ps)
	})
}

// Table writes projects as a table.
func Table(w io.Writer, ps []projects.Detail) error {
	if err := render.Row(w, "ID", "NAME", "DESCRIPTION", "STATUS", "CREATED BY", "CREATED AT"); err != nil {
		return err
	}
	for _, p := range ps {
		if err := render.Row(
			w, p.Id, p.Name, render.Ellipsis(p.Description, 40), p.Status, p.CreatedBy, p.CreatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}
