package show

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/common"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/lookup"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/render"
	"github.com/opst/mlstudio/pkg/api/types/datasets"
	"github.com/opst/mlstudio/pkg/api/types/models"
	"github.com/opst/mlstudio/pkg/api/types/projects"
	kflag "github.com/opst/mlstudio/pkg/commandline/flag"
	"github.com/youta-t/flarc"
)

const ARG_NAME = "NAME"

type Flag struct {
	Format *kflag.OneOf `flag:"format" metavar:"table|json|yaml" help:"output format"`
}

// Detail is a project with its datasets and models.
type Detail struct {
	Project  projects.Detail    `json:"project"`
	Datasets []datasets.Summary `json:"datasets"`
	Models   []models.Detail    `json:"models"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show a project with its datasets and models.",
		Flag{Format: render.FormatFlag()},
		flarc.Args{
			{
				Name: ARG_NAME, Required: false,
				Help: "name of the project. Default is the project in mlstudioenv.",
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
	if names := cl.Args()[ARG_NAME]; len(names) != 0 {
		given = names[0]
	}
	name, err := lookup.ProjectName(e, given)
	if err != nil {
		return err
	}

	detail, err := Fetch(ctx, client, name)
	if err != nil {
		return err
	}

	return render.Output(cl.Stdout(), cl.Flags().Format.Value(), detail, func(w io.Writer) error {
		return Table(w, detail)
	})
}

// Fetch collects the project, its datasets and its models.
func Fetch(ctx context.Context, client rest.MLStudioClient, name string) (Detail, error) {
	p, err := lookup.Project(ctx, client, name)
	if err != nil {
		return Detail{}, err
	}
	ds, err := client.ListDatasets(ctx, p.Name)
	if err != nil {
		return Detail{}, err
	}
	ms, err := client.ListModels(ctx, &p.Id)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Project: p, Datasets: ds, Models: ms}, nil
}

func Table(w io.Writer, d Detail) error {
	p := d.Project
	for _, line := range [][2]any{
		{"Project:", p.Name},
		{"Id:", p.Id},
		{"Description:", p.Description},
		{"Path:", p.Path},
		{"Status:", p.Status},
		{"Created:", fmt.Sprintf("%s by %s", p.CreatedAt, p.CreatedBy)},
	} {
		if err := render.Row(w, line[0], line[1]); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "\nDatasets (%d)\n", len(d.Datasets))
	if len(d.Datasets) == 0 {
		fmt.Fprintln(w, "No datasets in this project")
	} else {
		render.Row(w, "ID", "NAME", "VERSION", "FILES", "LAST UPDATED")
		for _, ds := range d.Datasets {
			render.Row(w, ds.Id, ds.Name, ds.Version, ds.FileCount, ds.LastUpdated)
		}
	}

	fmt.Fprintf(w, "\nModels (%d)\n", len(d.Models))
	if len(d.Models) == 0 {
		fmt.Fprintln(w, "No models in this project")
		return nil
	}
	render.Row(w, "ID", "NAME", "VERSION", "ACCURACY", "LOSS", "CREATED AT")
	for _, m := range d.Models {
		render.Row(w, m.Id, m.Name, m.Version, m.Metrics.FormatAccuracy(), m.Metrics.FormatLoss(), m.CreatedAt)
	}
	return nil
}
