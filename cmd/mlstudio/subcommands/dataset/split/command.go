package split

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
	ksplit "github.com/opst/mlstudio/pkg/split"
	"github.com/opst/mlstudio/pkg/utils"
	"github.com/youta-t/flarc"
)

const ARG_DATASET = "DATASET"

type Flag struct {
	Project    string         `flag:"project" alias:"p" help:"name of the project. Default is the project in mlstudioenv."`
	Train      *kflag.Percent `flag:"train" metavar:"PERCENT" help:"percentage of files for training"`
	Validation *kflag.Percent `flag:"validation" metavar:"PERCENT" help:"percentage of files for validation"`
	Test       *kflag.Percent `flag:"test" metavar:"PERCENT" help:"percentage of files for test"`
	Files      bool           `flag:"files" help:"list files in each partition"`
	Format     *kflag.OneOf   `flag:"format" metavar:"table|json|yaml" help:"output format"`
}

// Preview is a dataset partitioned by a split.
type Preview struct {
	Dataset string                   `json:"dataset"`
	Version string                   `json:"version"`
	Split   ksplit.Split             `json:"split"`
	Files   ksplit.Partition[string] `json:"-"`
	Counts  map[string]int           `json:"counts"`
	Names   map[string][]string      `json:"files,omitempty"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Preview how files in a dataset are partitioned for training.",
		Flag{
			Train:      &kflag.Percent{},
			Validation: &kflag.Percent{},
			Test:       &kflag.Percent{},
			Format:     render.FormatFlag(),
		},
		flarc.Args{
			{Name: ARG_DATASET, Required: true, Help: "name of the dataset"},
		},
		common.NewTask(Task),
		flarc.WithDescription(`
Preview how files in a dataset are partitioned into train, validation and test.

Files are taken in order. Train and validation get floor(files * percent / 100) files,
and test gets the rest.

The default split is the one in mlstudioenv, or 70/20/10.
When only some of --train, --validation and --test are given, others are adjusted to sum up to 100.

Example
-------

	{{ .Command }} cats --train 80
	{{ .Command }} cats --train 60 --validation 20 --test 20 --files
`),
	)
}

// Resolve returns the split used by commands: the env default overridden by flags.
func Resolve(e env.MLStudioEnv, train, validation, test *kflag.Percent) (ksplit.Split, error) {
	base := ksplit.Default()
	if e.Split != nil {
		base = *e.Split
	}
	s, err := base.Override(train.Value(), validation.Value(), test.Value())
	if err != nil {
		return ksplit.Split{}, fmt.Errorf("%w: %w", flarc.ErrUsage, err)
	}
	return s, nil
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
	s, err := Resolve(e, flags.Train, flags.Validation, flags.Test)
	if err != nil {
		return err
	}
	project, err := lookup.ProjectName(e, flags.Project)
	if err != nil {
		return err
	}

	detail, err := client.GetDatasetDetail(ctx, project, cl.Args()[ARG_DATASET][0])
	if err != nil {
		return err
	}
	preview, err := PreviewOf(detail, s, flags.Files)
	if err != nil {
		return err
	}

	return render.Output(cl.Stdout(), flags.Format.Value(), preview, func(w io.Writer) error {
		render.Row(w, "Dataset:", fmt.Sprintf("%s (%s)", preview.Dataset, preview.Version))
		render.Row(w, "Split:", preview.Split)
		fmt.Fprintln(w)
		render.Row(w, "PARTITION", "PERCENT", "FILES")
		for _, p := range []struct {
			name    string
			percent int
			files   []string
		}{
			{"train", s.Train, preview.Files.Train},
			{"validation", s.Validation, preview.Files.Validation},
			{"test", s.Test, preview.Files.Test},
		} {
			render.Row(w, p.name, fmt.Sprintf("%d%%", p.percent), len(p.files))
		}
		if !flags.Files {
			return nil
		}
		for _, p := range []string{"train", "validation", "test"} {
			fmt.Fprintf(w, "\n[%s]\n", p)
			for _, name := range preview.Names[p] {
				fmt.Fprintln(w, name)
			}
		}
		return nil
	})
}

// PreviewOf partitions files of the dataset.
func PreviewOf(detail datasets.DetailWithFiles, s ksplit.Split, withNames bool) (Preview, error) {
	names := utils.Map(detail.Files, func(f datasets.File) string {
		if f.RelativePath != "" {
			return f.RelativePath
		}
		return f.Name
	})
	p, err := ksplit.PartitionOf(names, s)
	if err != nil {
		return Preview{}, err
	}

	preview := Preview{
		Dataset: detail.Dataset.Name,
		Version: detail.Dataset.Version,
		Split:   s,
		Files:   p,
		Counts: map[string]int{
			"train": len(p.Train), "validation": len(p.Validation), "test": len(p.Test),
		},
	}
	if withNames {
		preview.Names = map[string][]string{
			"train": p.Train, "validation": p.Validation, "test": p.Test,
		}
	}
	return preview, nil
}
