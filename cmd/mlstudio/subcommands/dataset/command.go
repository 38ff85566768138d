package dataset

import (
	dataset_download "github.com/opst/mlstudio/cmd/mlstudio/subcommands/dataset/download"
	dataset_list "github.com/opst/mlstudio/cmd/mlstudio/subcommands/dataset/list"
	dataset_show "github.com/opst/mlstudio/cmd/mlstudio/subcommands/dataset/show"
	dataset_split "github.com/opst/mlstudio/cmd/mlstudio/subcommands/dataset/split"
	dataset_upload "github.com/opst/mlstudio/cmd/mlstudio/subcommands/dataset/upload"
	dataset_view "github.com/opst/mlstudio/cmd/mlstudio/subcommands/dataset/view"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	list, err := dataset_list.New()
	if err != nil {
		return nil, err
	}
	show, err := dataset_show.New()
	if err != nil {
		return nil, err
	}
	download, err := dataset_download.New()
	if err != nil {
		return nil, err
	}
	view, err := dataset_view.New()
	if err != nil {
		return nil, err
	}
	upload, err := dataset_upload.New()
	if err != nil {
		return nil, err
	}
	split, err := dataset_split.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate datasets and their versions.",
		struct{}{},
		flarc.WithSubcommand("list", list),
		flarc.WithSubcommand("show", show),
		flarc.WithSubcommand("download", download),
		flarc.WithSubcommand("view", view),
		flarc.WithSubcommand("upload", upload),
		flarc.WithSubcommand("split", split),
	)
}
