package compare

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/common"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/render"
	"github.com/opst/mlstudio/cmd/mlstudio/workflow/compare"
	kflag "github.com/opst/mlstudio/pkg/commandline/flag"
	"github.com/youta-t/flarc"
)

const ARG_ID = "ID"

type Flag struct {
	Format *kflag.OneOf `flag:"format" metavar:"table|json|yaml" help:"output format"`
}

// Result is a comparison as it is written in json or yaml.
type Result struct {
	Left   int         `json:"left"`
	Right  int         `json:"right"`
	Rows   []ResultRow `json:"rows"`
	Winner *int        `json:"winner"`
}

type ResultRow struct {
	Label string `json:"label"`
	Left  string `json:"left"`
	Right string `json:"right"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Compare two models side by side.",
		Flag{Format: render.FormatFlag()},
		flarc.Args{
			{Name: ARG_ID, Required: true, Repeatable: true, Help: "ids of models to be compared"},
		},
		common.NewTask(Task),
		flarc.WithDescription(`
Compare metrics and hyperparameters of two models.

The model with higher accuracy wins.
Models are picked in the order given. Passing the same id twice unpicks it,
and models after the second picked one are ignored.

Example
-------

	{{ .Command }} 3 5
`),
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
	ids := []int{}
	for _, a := range cl.Args()[ARG_ID] {
		id, err := strconv.Atoi(a)
		if err != nil {
			return fmt.Errorf("%w: model id should be an integer: %w", flarc.ErrUsage, err)
		}
		ids = append(ids, id)
	}

	sel := compare.Selection{}
	for _, id := range ids {
		m, err := client.GetModel(ctx, id)
		if err != nil {
			return err
		}
		if err := sel.Toggle(m); errors.Is(err, compare.ErrSelectionFull) {
			logger.Printf("warning: model %d is ignored. %s", id, err)
		} else if err != nil {
			return err
		}
	}

	cmp, err := sel.Compare()
	if err != nil {
		return fmt.Errorf("%w: %w", flarc.ErrUsage, err)
	}

	result := Result{Left: cmp.Left.Id, Right: cmp.Right.Id}
	for _, r := range cmp.Rows() {
		result.Rows = append(result.Rows, ResultRow(r))
	}
	winner, ok := cmp.Winner()
	if ok {
		result.Winner = &winner.Id
	}

	return render.Output(cl.Stdout(), cl.Flags().Format.Value(), result, func(w io.Writer) error {
		render.Row(w, "MODEL", cmp.Left.Name, cmp.Right.Name)
		for _, r := range result.Rows {
			render.Row(w, r.Label, r.Left, r.Right)
		}
		fmt.Fprintln(w)
		if !ok {
			_, err := fmt.Fprintln(w, "Tie: both models have the same accuracy")
			return err
		}
		_, err := fmt.Fprintf(w, "Winner: %s (%s) with accuracy %s\n", winner.Name, winner.Version, winner.Metrics.FormatAccuracy())
		return err
	})
}
