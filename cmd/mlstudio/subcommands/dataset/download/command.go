package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/common"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/lookup"
	"github.com/opst/mlstudio/pkg/api/types/datasets"
	"github.com/youta-t/flarc"
)

const (
	ARG_DATASET = "DATASET"
	ARG_FILE    = "FILE"
)

type Flag struct {
	Project string `flag:"project" alias:"p" help:"name of the project. Default is the project in mlstudioenv."`
	Output  string `flag:"output" alias:"o" metavar:"PATH" help:"file or directory to save. Default is the current directory."`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Download a file in a dataset.",
		Flag{Output: "."},
		flarc.Args{
			{Name: ARG_DATASET, Required: true, Help: "name of the dataset"},
			{Name: ARG_FILE, Required: true, Help: "name or relative path of the file in the dataset"},
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
	args := cl.Args()
	file, err := lookup.File(ctx, client, project, args[ARG_DATASET][0], args[ARG_FILE][0])
	if err != nil {
		return err
	}

	var dest string
	err = client.DownloadFile(ctx, file.Path, func(fc rest.FileContent) error {
		d, err := Save(flags.Output, fc)
		dest = d
		return err
	})
	if err != nil {
		return err
	}
	logger.Printf("%s is saved to %s (%s)", file.Name, dest, sizeOf(dest))
	fmt.Fprintln(cl.Stdout(), dest)
	return nil
}

// Save writes the content into output.
//
// If output is a directory, the file is created in it with the name given by the server.
// A half-written file is removed on failure.
func Save(output string, fc rest.FileContent) (string, error) {
	if output == "" {
		output = "."
	}
	dest := output
	if s, err := os.Stat(output); err == nil && s.IsDir() {
		dest = filepath.Join(output, filepath.Base(fc.Filename))
	}

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(0644))
	if err != nil {
		return "", err
	}
	_, err = io.Copy(f, fc.Body)
	err = errors.Join(err, f.Close())
	if err != nil {
		os.Remove(dest)
		return "", err
	}
	return dest, nil
}

func sizeOf(path string) string {
	s, err := os.Stat(path)
	if err != nil {
		return "unknown size"
	}
	return datasets.FormatSize(s.Size())
}
