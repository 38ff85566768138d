package project

import (
	project_create "github.com/opst/mlstudio/cmd/mlstudio/subcommands/project/create"
	project_delete "github.com/opst/mlstudio/cmd/mlstudio/subcommands/project/delete"
	project_list "github.com/opst/mlstudio/cmd/mlstudio/subcommands/project/list"
	project_show "github.com/opst/mlstudio/cmd/mlstudio/subcommands/project/show"
	project_update "github.com/opst/mlstudio/cmd/mlstudio/subcommands/project/update"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	list, err := project_list.New()
	if err != nil {
		return nil, err
	}
	create, err := project_create.New()
	if err != nil {
		return nil, err
	}
	show, err := project_show.New()
	if err != nil {
		return nil, err
	}
	update, err := project_update.New()
	if err != nil {
		return nil, err
	}
	remove, err := project_delete.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate ML projects.",
		struct{}{},
		flarc.WithSubcommand("list", list),
		flarc.WithSubcommand("create", create),
		flarc.WithSubcommand("show", show),
		flarc.WithSubcommand("update", update),
		flarc.WithSubcommand("delete", remove),
	)
}
