package create

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/common"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/render"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/project/list"
	"github.com/opst/mlstudio/pkg/api/types/projects"
	kflag "github.com/opst/mlstudio/pkg/commandline/flag"
	"github.com/youta-t/flarc"
)

const (
	ARG_NAME = "NAME"

	DefaultPath      = "home/projects/dvc"
	DefaultCreatedBy = "User"
)

type Flag struct {
	Description string       `flag:"description" alias:"d" help:"description of the project"`
	Path        string       `flag:"path" help:"storage path of the project"`
	CreatedBy   string       `flag:"created-by" help:"who creates the project"`
	Format      *kflag.OneOf `flag:"format" metavar:"table|json|yaml" help:"output format"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Create a new project.",
		Flag{
			Path:      DefaultPath,
			CreatedBy: DefaultCreatedBy,
			Format:    render.FormatFlag(),
		},
		flarc.Args{
			{
				Name: ARG_NAME, Required: true,
				Help: "name of the project. It should not be blank.",
			},
		},
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
	flags := cl.Flags()
	spec := projects.Spec{
		Name:        strings.TrimSpace(cl.Args()[ARG_NAME][0]),
		Description: flags.Description,
		Path:        flags.Path,
		CreatedBy:   flags.CreatedBy,
	}
	if err := spec.Verify(); err != nil {
		return fmt.Errorf("%w: %w", flarc.ErrUsage, err)
	}

	created, err := client.CreateProject(ctx, spec)
	if errors.Is(err, projects.ErrEmptyName) {
		return fmt.Errorf("%w: %w", flarc.ErrUsage, err)
	} else if err != nil {
		return err
	}
	logger.Printf("project '%s' is created (id: %d)", created.Name, created.Id)

	return render.Output(cl.Stdout(), flags.Format.Value(), created, func(w io.Writer) error {
		return list.Table(w, []projects.Detail{created})
	})
}
