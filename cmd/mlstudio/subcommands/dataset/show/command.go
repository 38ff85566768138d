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
	kflag "github.com/opst/mlstudio/pkg/commandline/flag"
	"github.com/youta-t/flarc"
)

const (
	ARG_DATASET = "DATASET"

	// EmptyMessage is shown instead of a file table when no files are there.
	EmptyMessage = "No files found in this dataset"
)

type Flag struct {
	Project string       `flag:"project" alias:"p" help:"name of the project. Default is the project in mlstudioenv."`
	Filter  *kflag.OneOf `flag:"filter" alias:"f" metavar:"all|images|text|json" help:"show only files in the category"`
	Format  *kflag.OneOf `flag:"format" metavar:"table|json|yaml" help:"output format"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show the latest version of a dataset and its files.",
		Flag{
			Filter: kflag.NewOneOf(
				string(datasets.All), string(datasets.Images), string(datasets.Text), string(datasets.Json),
			),
			Format: render.FormatFlag(),
		},
		flarc.Args{
			{Name: ARG_DATASET, Required: true, Help: "name of the dataset"},
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
	flags := cl.Flags()
	project, err := lookup.ProjectName(e, flags.Project)
	if err != nil {
		return err
	}
	category, err := datasets.ParseCategory(flags.Filter.Value())
	if err != nil {
		return fmt.Errorf("%w: %w", flarc.ErrUsage, err)
	}

	detail, err := client.GetDatasetDetail(ctx, project, cl.Args()[ARG_DATASET][0])
	if err != nil {
		return err
	}
	detail.Files = detail.Filter(category)

	return render.Output(cl.Stdout(), flags.Format.Value(), detail, func(w io.Writer) error {
		return Table(w, detail)
	})
}

// Table writes the dataset and its files.
func Table(w io.Writer, d datasets.DetailWithFiles) error {
	ds := d.Dataset
	for _, line := range [][2]any{
		{"Dataset:", ds.Name},
		{"Id:", ds.Id},
		{"Version:", ds.Version},
		{"Files:", ds.FileCount},
		{"Created at:", ds.CreatedAt},
		{"Base path:", ds.BasePath},
	} {
		if err := render.Row(w, line[0], line[1]); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)

	if len(d.Files) == 0 {
		_, err := fmt.Fprintln(w, EmptyMessage)
		return err
	}
	render.Row(w, "NAME", "CATEGORY", "SIZE", "PATH")
	for _, f := range d.Files {
		size := f.Size
		if size == "" {
			size = datasets.FormatSize(f.SizeBytes)
		}
		render.Row(w, f.Name, f.Category(), size, f.RelativePath)
	}
	return nil
}
