package upload_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opst/mlstudio/cmd/mlstudio/env"
	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/cmd/mlstudio/rest/mock"
	dataset_upload "github.com/opst/mlstudio/cmd/mlstudio/subcommands/dataset/upload"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/commandline"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/internal/render"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/logger"
	"github.com/opst/mlstudio/cmd/mlstudio/workflow/upload"
	"github.com/opst/mlstudio/pkg/api/types/datasets"
	apiupload "github.com/opst/mlstudio/pkg/api/types/upload"
	"github.com/opst/mlstudio/pkg/cmp"
	kflag "github.com/opst/mlstudio/pkg/commandline/flag"
	"github.com/opst/mlstudio/pkg/utils/try"
	"github.com/youta-t/flarc"
)

// prepare writes files under a temporary directory and returns its path.
func prepare(t *testing.T, names ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, n := range names {
		p := filepath.Join(root, n)
		try.To(0, os.MkdirAll(filepath.Dir(p), 0o755)).OrFatal(t)
		try.To(0, os.WriteFile(p, []byte(n), 0o644)).OrFatal(t)
	}
	return root
}

func slice(values ...string) *kflag.Argslice {
	s := kflag.Argslice(values)
	return &s
}

func TestCollect(t *testing.T) {
	root := prepare(
		t,
		"images/b.png", "images/a.jpg", "images/notes.txt",
		"images/nested/c.webp",
		"labels/a.txt",
	)

	t.Run("directories are walked and unacceptable files are skipped", func(t *testing.T) {
		actual := try.To(dataset_upload.Collect(apiupload.Images, filepath.Join(root, "images"))).OrFatal(t)
		expected := []string{
			filepath.Join(root, "images", "a.jpg"),
			filepath.Join(root, "images", "b.png"),
			filepath.Join(root, "images", "nested", "c.webp"),
		}
		if !cmp.SliceEq(actual, expected) {
			t.Errorf("unexpected files:\n===actual===\n%v\n===expected===\n%v", actual, expected)
		}
	})

	t.Run("a file passed directly is kept", func(t *testing.T) {
		p := filepath.Join(root, "labels", "a.txt")
		actual := try.To(dataset_upload.Collect(apiupload.Labels, p)).OrFatal(t)
		if !cmp.SliceEq(actual, []string{p}) {
			t.Errorf("unexpected files: %v", actual)
		}
	})

	t.Run("an unacceptable file passed directly is an error", func(t *testing.T) {
		_, err := dataset_upload.Collect(apiupload.Yaml, filepath.Join(root, "labels", "a.txt"))
		if !errors.Is(err, upload.ErrUnacceptableFile) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("a missing path is an error", func(t *testing.T) {
		_, err := dataset_upload.Collect(apiupload.Images, filepath.Join(root, "missing"))
		if err == nil {
			t.Error("expected error, but nil")
		}
	})
}

func TestUploadCommand(t *testing.T) {
	root := prepare(t, "images/a.jpg", "labels/a.txt", "data.yaml")
	images := filepath.Join(root, "images")
	labels := filepath.Join(root, "labels")
	yaml := filepath.Join(root, "data.yaml")

	summary := &apiupload.Summary{
		Message:     "ok",
		Status:      true,
		FileCount:   3,
		TotalSize:   2048,
		DatasetInfo: apiupload.DatasetInfo{Id: 7, Name: "cats", Version: "v2", ProjectId: 1},
	}
	detail := datasets.DetailWithFiles{
		Dataset: datasets.Detail{Id: 7, Name: "cats", Version: "v2"},
		Files:   []datasets.File{{Name: "a.jpg"}},
	}

	type When struct {
		flags dataset_upload.Flag
		stdin string

		// failures is how many times PostDataset fails before it succeeds.
		failures int
	}
	type Then struct {
		err      error
		failed   bool
		requests []apiupload.Request
		output   bool
	}

	newRequest := apiupload.Request{
		ProjectName: "vision",
		DatasetType: apiupload.NewDataset,
		DatasetName: "cats",
		DataTypes:   apiupload.FullManifest(),
		Files: map[apiupload.DataKind][]string{
			apiupload.Images: {filepath.Join(images, "a.jpg")},
			apiupload.Labels: {filepath.Join(labels, "a.txt")},
			apiupload.Yaml:   {yaml},
		},
	}
	existingRequest := apiupload.Request{
		ProjectName:       "vision",
		DatasetType:       apiupload.ExistingDataset,
		DatasetName:       "cats",
		SelectedDatasetId: "dataset_7",
		UpdateDescription: "more cats",
		DataTypes:         apiupload.FullManifest(),
		Files:             newRequest.Files,
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			client := mock.New(t)
			failures := when.failures
			client.Impl.PostDataset = func(context.Context, apiupload.Request) rest.Progress[*apiupload.Summary] {
				if failures > 0 {
					failures -= 1
					return mock.Finished(nil, errors.New("connection reset"))
				}
				return mock.Finished(summary, nil)
			}
			client.Impl.GetDatasetDetail = func(context.Context, string, string) (datasets.DetailWithFiles, error) {
				return detail, nil
			}
			client.Impl.ListDatasets = func(context.Context, string) ([]datasets.Summary, error) {
				return []datasets.Summary{{Id: "dataset_7", Name: "cats", Version: "v1"}}, nil
			}
			client.Impl.NextDatasetVersion = func(context.Context, string) (string, error) {
				return "v2", nil
			}

			flags := when.flags
			flags.Format = render.FormatFlag()
			try.To(0, flags.Format.Set(render.Json)).OrFatal(t)

			stdout := new(bytes.Buffer)
			e := env.MLStudioEnv{Project: "vision"}
			err := dataset_upload.Task(
				context.Background(), logger.Null(), e, client,
				commandline.MockCommandline[dataset_upload.Flag]{
					Stdin_:  strings.NewReader(when.stdin),
					Stdout_: stdout, Stderr_: io.Discard,
					Flags_: flags,
					Args_:  map[string][]string{},
				},
				nil,
			)

			if then.failed {
				if err == nil {
					t.Error("expected error, but nil")
				}
			} else if then.err != nil {
				if !errors.Is(err, then.err) {
					t.Errorf("unexpected error: %v (expected %v)", err, then.err)
				}
			} else if err != nil {
				t.Fatal(err)
			}

			if len(client.Calls.PostDataset) != len(then.requests) {
				t.Fatalf(
					"PostDataset is called %d times (expected %d)",
					len(client.Calls.PostDataset), len(then.requests),
				)
			}
			for n, actual := range client.Calls.PostDataset {
				expected := then.requests[n]
				if actual.ProjectName != expected.ProjectName ||
					actual.DatasetType != expected.DatasetType ||
					actual.DatasetName != expected.DatasetName ||
					actual.SelectedDatasetId != expected.SelectedDatasetId ||
					actual.UpdateDescription != expected.UpdateDescription ||
					!cmp.MapEqWith(actual.Files, expected.Files, cmp.SliceEq[string]) {
					t.Errorf(
						"unexpected request #%d:\n===actual===\n%+v\n===expected===\n%+v",
						n, actual, expected,
					)
				}
			}

			if !then.output {
				if stdout.Len() != 0 {
					t.Errorf("unexpected output: %s", stdout.String())
				}
				return
			}
			var result dataset_upload.Result
			try.To(0, json.Unmarshal(stdout.Bytes(), &result)).OrFatal(t)
			if result.Summary == nil || result.Summary.DatasetInfo != summary.DatasetInfo {
				t.Errorf("unexpected summary: %+v", result.Summary)
			}
			if result.Dataset == nil || !result.Dataset.Equal(&detail) {
				t.Errorf("unexpected dataset: %+v", result.Dataset)
			}
		}
	}

	t.Run("it uploads files into a new dataset", theory(
		When{
			flags: dataset_upload.Flag{
				Name:   "cats",
				Images: slice(images), Labels: slice(labels), Yaml: slice(yaml),
			},
		},
		Then{requests: []apiupload.Request{newRequest}, output: true},
	))

	t.Run("it uploads files as a new version of an existing dataset", theory(
		When{
			flags: dataset_upload.Flag{
				Dataset: "cats", Description: "more cats",
				Images: slice(images), Labels: slice(labels), Yaml: slice(yaml),
			},
		},
		Then{requests: []apiupload.Request{existingRequest}, output: true},
	))

	t.Run("when upload fails and retry is confirmed, it sends the same files again", theory(
		When{
			flags: dataset_upload.Flag{
				Name:   "cats",
				Images: slice(images), Labels: slice(labels), Yaml: slice(yaml),
			},
			stdin:    "y\n",
			failures: 1,
		},
		Then{requests: []apiupload.Request{newRequest, newRequest}, output: true},
	))

	t.Run("when upload fails and retry is denied, it is an error", theory(
		When{
			flags: dataset_upload.Flag{
				Name:   "cats",
				Images: slice(images), Labels: slice(labels), Yaml: slice(yaml),
			},
			stdin:    "n\n",
			failures: 1,
		},
		Then{failed: true, requests: []apiupload.Request{newRequest}},
	))

	t.Run("with --no-retry, it does not ask for retry", theory(
		When{
			flags: dataset_upload.Flag{
				Name:    "cats",
				NoRetry: true,
				Images:  slice(images), Labels: slice(labels), Yaml: slice(yaml),
			},
			stdin:    "y\n",
			failures: 1,
		},
		Then{failed: true, requests: []apiupload.Request{newRequest}},
	))

	t.Run("both --name and --dataset is a usage error", theory(
		When{
			flags: dataset_upload.Flag{
				Name: "cats", Dataset: "dogs", Description: "x",
				Images: slice(images), Labels: slice(labels), Yaml: slice(yaml),
			},
		},
		Then{err: flarc.ErrUsage},
	))

	t.Run("neither --name nor --dataset is a usage error", theory(
		When{
			flags: dataset_upload.Flag{
				Images: slice(images), Labels: slice(labels), Yaml: slice(yaml),
			},
		},
		Then{err: flarc.ErrUsage},
	))

	t.Run("--dataset without --description is a usage error", theory(
		When{
			flags: dataset_upload.Flag{
				Dataset: "cats",
				Images:  slice(images), Labels: slice(labels), Yaml: slice(yaml),
			},
		},
		Then{err: flarc.ErrUsage},
	))

	t.Run("missing data kind is a usage error", theory(
		When{
			flags: dataset_upload.Flag{
				Name:   "cats",
				Images: slice(images), Labels: slice(labels), Yaml: slice(),
			},
		},
		Then{err: flarc.ErrUsage},
	))
}
