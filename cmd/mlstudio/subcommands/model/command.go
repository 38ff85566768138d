package model

import (
	model_compare "github.com/opst/mlstudio/cmd/mlstudio/subcommands/model/compare"
	model_list "github.com/opst/mlstudio/cmd/mlstudio/subcommands/model/list"
	model_show "github.com/opst/mlstudio/cmd/mlstudio/subcommands/model/show"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	list, err := model_list.New()
	if err != nil {
		return nil, err
	}
	show, err := model_show.New()
	if err != nil {
		return nil, err
	}
	compare, err := model_compare.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Inspect trained models.",
		struct{}{},
		flarc.WithSubcommand("list", list),
		flarc.WithSubcommand("show", show),
		flarc.WithSubcommand("compare", compare),
	)
}
