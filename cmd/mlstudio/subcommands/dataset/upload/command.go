package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	cerr "github.com/opst/mlstudio/cmd/mlstudio/errors"
	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/common"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/lookup"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/progress"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/prompt"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/render"
	"github.com/opst/mlstudio/cmd/mlstudio/workflow/upload"
	"github.com/opst/mlstudio/pkg/api/types/datasets"
	apiupload "github.com/opst/mlstudio/pkg/api/types/upload"
	kflag "github.com/opst/mlstudio/pkg/commandline/flag"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Project     string          `flag:"project" alias:"p" help:"name of the project. Default is the project in mlstudioenv."`
	Name        string          `flag:"name" alias:"n" help:"name of a new dataset"`
	Dataset     string          `flag:"dataset" alias:"d" metavar:"NAME|ID" help:"existing dataset to be updated as a new version"`
	Description string          `flag:"description" alias:"m" help:"why the existing dataset is updated. Required with --dataset."`
	Images      *kflag.Argslice `flag:"images" metavar:"PATH" help:"image file or directory. It can be repeated."`
	Labels      *kflag.Argslice `flag:"labels" metavar:"PATH" help:"label (.txt) file or directory. It can be repeated."`
	Yaml        *kflag.Argslice `flag:"yaml" metavar:"PATH" help:"dataset yaml (.yaml, .yml) file or directory. It can be repeated."`
	NoRetry     bool            `flag:"no-retry" help:"do not ask for retry when upload fails"`
	Format      *kflag.OneOf    `flag:"format" metavar:"table|json|yaml" help:"output format"`
}

// Result is an upload accepted by the server.
type Result struct {
	Summary *apiupload.Summary        `json:"summary"`
	Dataset *datasets.DetailWithFiles `json:"dataset,omitempty"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Upload images, labels and dataset yaml as a dataset.",
		Flag{
			Images: &kflag.Argslice{},
			Labels: &kflag.Argslice{},
			Yaml:   &kflag.Argslice{},
			Format: render.FormatFlag(),
		},
		flarc.Args{},
		common.NewTask(Task),
		flarc.WithDescription(`
Upload files into a new dataset, or into an existing dataset as its next version.

Images, labels and a dataset yaml are all required.
When a directory is passed, files in it (recursively) which fit the kind are uploaded.

	- images: .jpg, .jpeg, .png, .gif, .webp
	- labels: .txt
	- yaml:   .yaml, .yml

When the upload fails, you are asked whether to retry it with the same files.

Example
-------

To create a new dataset "cats":

	{{ .Command }} --name cats --images ./images --labels ./labels --yaml ./data.yaml

To update the dataset "cats":

	{{ .Command }} --dataset cats -m "add more cats" --images ./images --labels ./labels --yaml ./data.yaml
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
	project, err := lookup.ProjectName(e, flags.Project)
	if err != nil {
		return err
	}
	if (flags.Name == "") == (flags.Dataset == "") {
		return fmt.Errorf("%w: either --name or --dataset is required", flarc.ErrUsage)
	}

	files := map[apiupload.DataKind][]string{}
	for kind, paths := range map[apiupload.DataKind][]string{
		apiupload.Images: flags.Images.Values(),
		apiupload.Labels: flags.Labels.Values(),
		apiupload.Yaml:   flags.Yaml.Values(),
	} {
		if len(paths) == 0 {
			return fmt.Errorf("%w: --%s is required", flarc.ErrUsage, kind)
		}
		found, err := Collect(kind, paths...)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return cerr.New(
				fmt.Sprintf("no %s files are found", kind),
				cerr.WithHint(fmt.Sprintf("check paths passed to --%s", kind)),
			)
		}
		files[kind] = found
	}

	config := upload.Config{
		DatasetType: apiupload.NewDataset,
		DatasetName: flags.Name,
		DataTypes:   apiupload.FullManifest(),
	}
	if flags.Dataset != "" {
		if strings.TrimSpace(flags.Description) == "" {
			return fmt.Errorf("%w: --description is required to update a dataset", flarc.ErrUsage)
		}
		ds, err := lookup.Dataset(ctx, client, project, flags.Dataset)
		if err != nil {
			return err
		}
		config = upload.Config{
			DatasetType:       apiupload.ExistingDataset,
			DatasetName:       ds.Name,
			SelectedDatasetId: ds.Id,
			UpdateDescription: flags.Description,
			DataTypes:         apiupload.FullManifest(),
		}
		if v, err := client.NextDatasetVersion(ctx, ds.Id); err != nil {
			logger.Printf("warning: cannot tell the next version of %s: %s", ds.Name, err)
		} else {
			logger.Printf("uploading as %s %s", ds.Name, v)
		}
	}

	w := upload.New(client, logger)
	if err := w.SelectProject(project); err != nil {
		return fmt.Errorf("%w: %w", flarc.ErrUsage, err)
	}
	if err := w.Configure(config); err != nil {
		return fmt.Errorf("%w: %w", flarc.ErrUsage, err)
	}
	for _, kind := range apiupload.Kinds {
		if err := w.SetFiles(kind, files[kind]...); err != nil {
			return err
		}
	}
	logger.Printf(
		"sending %d images, %d labels and %d yaml to project %s...",
		len(files[apiupload.Images]), len(files[apiupload.Labels]), len(files[apiupload.Yaml]), project,
	)

	ask := prompt.New(cl.Stdin(), cl.Stderr())
	err = withBar(cl.Stderr(), func(h upload.ProgressHandler) error { return w.Upload(ctx, h) })
	for err != nil {
		if errors.Is(err, upload.ErrCancelled) {
			return err
		}
		logger.Printf("Upload failed: %s", err)
		if flags.NoRetry || !ask.Confirm("retry?") {
			return cerr.New("upload failed", cerr.WithCause(err))
		}
		err = withBar(cl.Stderr(), func(h upload.ProgressHandler) error { return w.Retry(ctx, h) })
	}

	summary, _ := w.Summary()
	result := Result{Summary: summary}
	if d, ok := w.Dataset(); ok {
		result.Dataset = d
	}
	if warn := w.Warning(); warn != nil {
		logger.Printf("warning: uploaded, but the dataset cannot be shown: %s", warn)
	}

	return render.Output(cl.Stdout(), flags.Format.Value(), result, func(out io.Writer) error {
		render.Row(out, "Message:", summary.Message)
		render.Row(
			out, "Dataset:",
			fmt.Sprintf("%s (%s)", summary.DatasetInfo.Name, summary.DatasetInfo.Version),
		)
		render.Row(out, "Files:", summary.FileCount)
		render.Row(out, "Size:", datasets.FormatSize(summary.TotalSize))
		render.Row(
			out, "Stats:",
			fmt.Sprintf(
				"images %d, labels %d, yaml %d",
				summary.Stats.Images, summary.Stats.Labels, summary.Stats.Yaml,
			),
		)
		render.Row(out, "Commit:", summary.CommitHash)
		return nil
	})
}

// withBar runs an upload with a progress bar.
func withBar(w io.Writer, run func(upload.ProgressHandler) error) error {
	bar, err := progress.Start(w)
	if err != nil {
		return err
	}
	defer bar.Finish()
	return run(func(percent int, file string) { bar.Set(percent, file) })
}

// Collect expands paths into files acceptable as the kind.
//
// Files in directories are walked recursively, and ones not acceptable are skipped.
// A file passed directly must be acceptable.
func Collect(kind apiupload.DataKind, paths ...string) ([]string, error) {
	found := []string{}
	for _, p := range paths {
		stat, err := os.Stat(p)
		if err != nil {
			return nil, cerr.New(fmt.Sprintf("cannot read %s", p), cerr.WithCause(err))
		}
		if !stat.IsDir() {
			if !upload.Accepts(kind, p) {
				return nil, fmt.Errorf("%w: %s is not for %s", upload.ErrUnacceptableFile, p, kind)
			}
			found = append(found, p)
			continue
		}

		inDir := []string{}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() && upload.Accepts(kind, path) {
				inDir = append(inDir, path)
			}
			return nil
		})
		if err != nil {
			return nil, cerr.New(fmt.Sprintf("cannot read %s", p), cerr.WithCause(err))
		}
		sort.Strings(inDir)
		found = append(found, inDir...)
	}
	return found, nil
}
