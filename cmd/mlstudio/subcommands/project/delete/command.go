package delete

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/common"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/prompt"
	"github.com/youta-t/flarc"
)

const ARG_ID = "ID"

type Flag struct {
	Yes bool `flag:"yes" alias:"y" help:"delete without confirmation"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Delete a project.",
		Flag{},
		flarc.Args{
			{Name: ARG_ID, Required: true, Help: "id of the project"},
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
	id, err := strconv.Atoi(cl.Args()[ARG_ID][0])
	if err != nil {
		return fmt.Errorf("%w: ID should be an integer: %s", flarc.ErrUsage, cl.Args()[ARG_ID][0])
	}

	if !cl.Flags().Yes {
		p, err := client.GetProject(ctx, id)
		if err != nil {
			return err
		}
		if !prompt.New(cl.Stdin(), cl.Stderr()).Confirm(
			fmt.Sprintf("delete project '%s' (id: %d)?", p.Name, p.Id),
		) {
			logger.Println("cancelled")
			return nil
		}
	}

	if err := client.DeleteProject(ctx, id); err != nil {
		return err
	}
	logger.Printf("project %d is deleted", id)
	return nil
}
