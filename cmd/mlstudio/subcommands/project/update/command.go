package update

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/common"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/render"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/project/list"
	"github.com/opst/mlstudio/pkg/api/types/projects"
	kflag "github.com/opst/mlstudio/pkg/commandline/flag"
	"github.com/youta-t/flarc"
)

const ARG_ID = "ID"

type Flag struct {
	Name        *kflag.OptionalString `flag:"name" help:"new name of the project"`
	Description *kflag.OptionalString `flag:"description" alias:"d" help:"new description of the project"`
	Path        *kflag.OptionalString `flag:"path" help:"new storage path of the project"`
	Status      *kflag.OptionalString `flag:"status" help:"new status of the project"`
	Format      *kflag.OneOf          `flag:"format" metavar:"table|json|yaml" help:"output format"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Update fields of a project.",
		Flag{
			Name:        &kflag.OptionalString{},
			Description: &kflag.OptionalString{},
			Path:        &kflag.OptionalString{},
			Status:      &kflag.OptionalString{},
			Format:      render.FormatFlag(),
		},
		flarc.Args{
			{Name: ARG_ID, Required: true, Help: "id of the project"},
		},
		common.NewTask(Task),
		flarc.WithDescription(`
Update fields of a project. Fields without flags are left as they are.

Example
-------

	{{ .Command }} 3 --description "cats and dogs"
`),
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
	id, err := strconv.Atoi(cl.Args()[ARG_ID][0])
	if err != nil {
		return fmt.Errorf("%w: ID should be an integer: %s", flarc.ErrUsage, cl.Args()[ARG_ID][0])
	}

	flags := cl.Flags()
	change := projects.Change{
		Name:        flags.Name.Value(),
		Description: flags.Description.Value(),
		Path:        flags.Path.Value(),
		Status:      flags.Status.Value(),
	}
	if change.IsEmpty() {
		return fmt.Errorf("%w: nothing to update. pass --name, --description, --path or --status", flarc.ErrUsage)
	}
	if change.Name != nil {
		if err := (projects.Spec{Name: *change.Name}).Verify(); err != nil {
			return fmt.Errorf("%w: %w", flarc.ErrUsage, err)
		}
	}

	updated, err := client.UpdateProject(ctx, id, change)
	if err != nil {
		return err
	}
	logger.Printf("project %d is updated", updated.Id)

	return render.Output(cl.Stdout(), flags.Format.Value(), updated, func(w io.Writer) error {
		return list.Table(w, []projects.Detail{updated})
	})
}
