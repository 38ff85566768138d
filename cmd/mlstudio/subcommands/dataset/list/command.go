package list

import (
	"context"
	"io"
	"log"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/common"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/render"
	"github.com/opst/mlstudio/pkg/api/types/datasets"
	kflag "github.com/opst/mlstudio/pkg/commandline/flag"
	"github.com/youta-t/flarc"
)

const ARG_PROJECT = "PROJECT"

type Flag struct {
	All    bool         `flag:"all" alias:"a" help:"list datasets of all projects"`
	Format *kflag.OneOf `flag:"format" metavar:"table|json|yaml" help:"output format"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"List datasets in a project.",
		Flag{Format: render.FormatFlag()},
		flarc.Args{
			{
				Name: ARG_PROJECT, Required: false,
				Help: "name of the project. Default is the project in mlstudioenv. Without any, datasets of all projects are listed.",
			},
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
	given := ""
	if p := cl.Args()[ARG_PROJECT]; len(p) != 0 {
		given = p[0]
	}
	project := e.ProjectOr(given)

	var ds []datasets.Summary
	var err error
	if cl.Flags().All || project == "" {
		ds, err = client.ListAllDatasets(ctx)
	} else {
		ds, err = client.ListDatasets(ctx, project)
	}
	if err != nil {
		return err
	}

	return render.Output(cl.Stdout(), cl.Flags().Format.Value(), ds, func(w io.Writer) error {
		if len(ds) == 0 {
			_, err := io.WriteString(w, "No datasets found\n")
			return err
		}
		render.Row(w, "ID", "NAME", "PROJECT", "VERSION", "FILES", "LAST UPDATED", "DESCRIPTION")
		for _, d := range ds {
			p := d.ProjectName
			if p == "" {
				p = project
			}
			render.Row(w, d.Id, d.Name, p, d.Version, d.FileCount, d.LastUpdated, render.Ellipsis(d.Description, 40))
		}
		return nil
	})
}
