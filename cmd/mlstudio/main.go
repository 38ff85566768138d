package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"

	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/common"
	subdataset "github.com/opst/mlstudio/cmd/mlstudio/subcommands/dataset"
	subinit "github.com/opst/mlstudio/cmd/mlstudio/subcommands/init"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/logger"
	submodel "github.com/opst/mlstudio/cmd/mlstudio/subcommands/model"
	subproject "github.com/opst/mlstudio/cmd/mlstudio/subcommands/project"
	subtraining "github.com/opst/mlstudio/cmd/mlstudio/subcommands/training"
	subver "github.com/opst/mlstudio/cmd/mlstudio/subcommands/version"
	"github.com/opst/mlstudio/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func main() {
	name := path.Base(os.Args[0])
	logger := logger.Default()
	logger.SetPrefix(fmt.Sprintf("[%s] ", name))

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill,
	)
	defer cancel()

	cf := try.To(common.Flags(".")).OrFatal(logger)
	init := try.To(subinit.New()).OrFatal(logger)
	project := try.To(subproject.New()).OrFatal(logger)
	dataset := try.To(subdataset.New()).OrFatal(logger)
	model := try.To(submodel.New()).OrFatal(logger)
	training := try.To(subtraining.New()).OrFatal(logger)
	version := try.To(subver.New()).OrFatal(logger)

	mlstudio := try.To(
		flarc.NewCommandGroup(
			"ML Studio Commandline interface",
			cf,
			flarc.WithSubcommand("init", init),
			flarc.WithSubcommand("project", project),
			flarc.WithSubcommand("dataset", dataset),
			flarc.WithSubcommand("model", model),
			flarc.WithSubcommand("training", training),
			flarc.WithSubcommand("version", version),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, mlstudio, flarc.WithHelp(true)))
}
