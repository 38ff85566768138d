package view

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/common"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/lookup"
	"github.com/youta-t/flarc"
)

const (
	ARG_DATASET = "DATASET"
	ARG_FILE    = "FILE"
)

type Flag struct {
	Project string `flag:"project" alias:"p" help:"name of the project. Default is the project in mlstudioenv."`
	Force   bool   `flag:"force" help:"write non-text content to stdout"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Print a file in a dataset.",
		Flag{},
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

	return client.ViewFile(ctx, file.Path, func(fc rest.FileContent) error {
		if !flags.Force && !IsText(fc.ContentType) {
			return fmt.Errorf(
				"%s is %s. use `dataset download` or pass --force", fc.Filename, fc.ContentType,
			)
		}
		_, err := io.Copy(cl.Stdout(), fc.Body)
		return err
	})
}

// IsText tells whether the content type is safe to print on a terminal.
func IsText(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "" || strings.HasPrefix(ct, "text/") {
		return true
	}
	for _, t := range []string{"application/json", "application/x-yaml", "application/yaml", "application/xml"} {
		if strings.HasPrefix(ct, t) {
			return true
		}
	}
	return false
}
