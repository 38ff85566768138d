package training

import (
	training_runs "github.com/opst/mlstudio/cmd/mlstudio/subcommands/training/runs"
	training_start "github.com/opst/mlstudio/cmd/mlstudio/subcommands/training/start"
	training_status "github.com/opst/mlstudio/cmd/mlstudio/subcommands/training/status"
	training_watch "github.com/opst/mlstudio/cmd/mlstudio/subcommands/training/watch"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	start, err := training_start.New()
	if err != nil {
		return nil, err
	}
	status, err := training_status.New()
	if err != nil {
		return nil, err
	}
	watch, err := training_watch.New()
	if err != nil {
		return nil, err
	}
	runs, err := training_runs.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Start and follow training runs.",
		struct{}{},
		flarc.WithSubcommand("start", start),
		flarc.WithSubcommand("status", status),
		flarc.WithSubcommand("watch", watch),
		flarc.WithSubcommand("runs", runs),
	)
}
