package split_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	"github.com/opst/mlstudio/cmd/mlstudio/rest/mock"
	dataset_split "github.com/opst/mlstudio/cmd/mlstudio/subcommands/dataset/split"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/commandline"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/render"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/logger"
	"github.com/opst/mlstudio/pkg/api/types/datasets"
	"github.com/opst/mlstudio/pkg/cmp"
	kflag "github.com/opst/mlstudio/pkg/commandline/flag"
	ksplit "github.com/opst/mlstudio/pkg/split"
	"github.com/opst/mlstudio/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func percent(t *testing.T, v string) *kflag.Percent {
	t.Helper()
	p := &kflag.Percent{}
	if v != "" {
		try.To(0, p.Set(v)).OrFatal(t)
	}
	return p
}

func TestResolve(t *testing.T) {
	type When struct {
		env        *ksplit.Split
		train      string
		validation string
		test       string
	}
	type Then struct {
		split ksplit.Split
		err   error
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			actual, err := dataset_split.Resolve(
				env.MLStudioEnv{Split: when.env},
				percent(t, when.train), percent(t, when.validation), percent(t, when.test),
			)
			if then.err != nil {
				if !errors.Is(err, then.err) {
					t.Errorf("unexpected error: %v (expected %v)", err, then.err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if actual != then.split {
				t.Errorf("split: %v (expected %v)", actual, then.split)
			}
		}
	}

	t.Run("without anything, it is the default", theory(
		When{},
		Then{split: ksplit.Split{Train: 70, Validation: 20, Test: 10}},
	))
	t.Run("the split in mlstudioenv is used", theory(
		When{env: &ksplit.Split{Train: 80, Validation: 10, Test: 10}},
		Then{split: ksplit.Split{Train: 80, Validation: 10, Test: 10}},
	))
	t.Run("a partial override adjusts others", theory(
		When{train: "60"},
		Then{split: ksplit.Split{Train: 60, Validation: 20, Test: 20}},
	))
	t.Run("a full override is taken as is", theory(
		When{train: "50", validation: "30", test: "20"},
		Then{split: ksplit.Split{Train: 50, Validation: 30, Test: 20}},
	))
	t.Run("a full override not summing up to 100 is a usage error", theory(
		When{train: "50", validation: "30", test: "30"},
		Then{err: flarc.ErrUsage},
	))
}

func TestSplitCommand(t *testing.T) {
	files := []datasets.File{}
	for n := range 10 {
		files = append(files, datasets.File{
			Name: fmt.Sprintf("%d.jpg", n), RelativePath: fmt.Sprintf("images/%d.jpg", n),
		})
	}

	client := mock.New(t)
	client.Impl.GetDatasetDetail = func(context.Context, string, string) (datasets.DetailWithFiles, error) {
		return datasets.DetailWithFiles{
			Dataset: datasets.Detail{Name: "cats", Version: "v1"},
			Files:   files,
		}, nil
	}
	format := render.FormatFlag()
	try.To(0, format.Set(render.Json)).OrFatal(t)

	stdout := new(bytes.Buffer)
	err := dataset_split.Task(
		context.Background(), logger.Null(), env.MLStudioEnv{Project: "vision"}, client,
		commandline.MockCommandline[dataset_split.Flag]{
			Stdout_: stdout, Stderr_: io.Discard,
			Flags_: dataset_split.Flag{
				Train: percent(t, ""), Validation: percent(t, ""), Test: percent(t, ""),
				Files:  true,
				Format: format,
			},
			Args_: map[string][]string{dataset_split.ARG_DATASET: {"cats"}},
		},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}

	var actual dataset_split.Preview
	try.To(0, json.Unmarshal(stdout.Bytes(), &actual)).OrFatal(t)

	expectedCounts := map[string]int{"train": 7, "validation": 2, "test": 1}
	if !cmp.MapEq(actual.Counts, expectedCounts) {
		t.Errorf("counts: %v (expected %v)", actual.Counts, expectedCounts)
	}
	if !cmp.SliceEq(actual.Names["test"], []string{"images/9.jpg"}) {
		t.Errorf("test files: %v", actual.Names["test"])
	}
	if actual.Dataset != "cats" || actual.Version != "v1" {
		t.Errorf("unexpected dataset: %s %s", actual.Dataset, actual.Version)
	}
}
