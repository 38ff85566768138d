package rest_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/pkg/api/types/datasets"
	"github.com/opst/mlstudio/pkg/cmp"
	"github.com/opst/mlstudio/pkg/utils/try"
)

func TestListDatasets(t *testing.T) {
	body := `{"datasets": [
		{"id": "dataset_1", "name": "cats", "version": "v2", "fileCount": 12, "lastUpdated": "2024-05-01", "description": "cat images"}
	]}`
	expected := []datasets.Summary{
		{Id: "dataset_1", Name: "cats", Version: "v2", FileCount: 12, LastUpdated: "2024-05-01", Description: "cat images"},
	}

	t.Run("datasets in a project", func(t *testing.T) {
		server, requests := fakeServer(t, http.StatusOK, body)
		testee := clientFor(t, server)

		actual := try.To(testee.ListDatasets(context.Background(), "my project")).OrFatal(t)
		if !cmp.SliceEq(actual, expected) {
			t.Errorf("datasets:\n===actual===\n%+v\n===expected===\n%+v", actual, expected)
		}
		if reqs := requests(); reqs[0].Path != "/api/datasets/project/my project" {
			t.Errorf("path: %s", reqs[0].Path)
		}
	})

	t.Run("datasets in all projects", func(t *testing.T) {
		server, requests := fakeServer(t, http.StatusOK, body)
		testee := clientFor(t, server)

		actual := try.To(testee.ListAllDatasets(context.Background())).OrFatal(t)
		if !cmp.SliceEq(actual, expected) {
			t.Errorf("datasets:\n===actual===\n%+v\n===expected===\n%+v", actual, expected)
		}
		if reqs := requests(); reqs[0].Path != "/api/datasets" {
			t.Errorf("path: %s", reqs[0].Path)
		}
	})

	t.Run("missing array is an empty list", func(t *testing.T) {
		server, _ := fakeServer(t, http.StatusOK, `{"message": "no datasets"}`)
		testee := clientFor(t, server)

		actual := try.To(testee.ListDatasets(context.Background(), "vision")).OrFatal(t)
		if actual == nil || len(actual) != 0 {
			t.Errorf("datasets: %#v", actual)
		}
	})
}

func TestGetDatasetDetail(t *testing.T) {
	t.Run("it returns detail with files", func(t *testing.T) {
		server, requests := fakeServer(t, http.StatusOK, `{
			"dataset": {"id": 4, "name": "cats", "version": "v2", "file_count": 2, "created_at": "2024-05-01T10:00:00", "base_path": "/data/vision/cats"},
			"files": [
				{"name": "a.jpg", "path": "/data/vision/cats/images/a.jpg", "relative_path": "images/a.jpg", "type": "file", "size": "1.00 KB", "size_bytes": 1024},
				{"name": "data.yaml", "path": "/data/vision/cats/data.yaml", "relative_path": "data.yaml", "type": "file", "size": "0.10 KB", "size_bytes": 100}
			]
		}`)
		testee := clientFor(t, server)

		actual := try.To(testee.GetDatasetDetail(context.Background(), "vision", "cats")).OrFatal(t)
		expected := datasets.DetailWithFiles{
			Dataset: datasets.Detail{
				Id: 4, Name: "cats", Version: "v2", FileCount: 2,
				CreatedAt: "2024-05-01T10:00:00", BasePath: "/data/vision/cats",
			},
			Files: []datasets.File{
				{
					Name: "a.jpg", Path: "/data/vision/cats/images/a.jpg", RelativePath: "images/a.jpg",
					Type: "file", Size: "1.00 KB", SizeBytes: 1024,
				},
				{
					Name: "data.yaml", Path: "/data/vision/cats/data.yaml", RelativePath: "data.yaml",
					Type: "file", Size: "0.10 KB", SizeBytes: 100,
				},
			},
		}
		if !actual.Equal(&expected) {
			t.Errorf("detail:\n===actual===\n%+v\n===expected===\n%+v", actual, expected)
		}

		reqs := requests()
		if reqs[0].Path != "/api/datasets/cats/details" {
			t.Errorf("path: %s", reqs[0].Path)
		}
		if !cmp.SliceEq(reqs[0].Query["project"], []string{"vision"}) {
			t.Errorf("query: %v", reqs[0].Query)
		}
	})

	t.Run("dataset without files has empty file list", func(t *testing.T) {
		server, _ := fakeServer(t, http.StatusOK, `{"dataset": {"id": 4, "name": "cats"}, "files": []}`)
		testee := clientFor(t, server)

		actual := try.To(testee.GetDatasetDetail(context.Background(), "vision", "cats")).OrFatal(t)
		if actual.Files == nil || len(actual.Files) != 0 {
			t.Errorf("files: %#v", actual.Files)
		}
	})

	t.Run("missing dataset", func(t *testing.T) {
		server, _ := fakeServer(t, http.StatusNotFound, `{"detail": "Dataset not found"}`)
		testee := clientFor(t, server)

		_, err := testee.GetDatasetDetail(context.Background(), "vision", "dogs")
		if !rest.IsNotFound(err) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestNextDatasetVersion(t *testing.T) {
	t.Run("it returns the first version", func(t *testing.T) {
		server, requests := fakeServer(t, http.StatusOK, `{"versions": [{"version_id": "v3"}]}`)
		testee := clientFor(t, server)

		actual := try.To(testee.NextDatasetVersion(context.Background(), "abc123")).OrFatal(t)
		if actual != "v3" {
			t.Errorf("version: %s", actual)
		}
		if reqs := requests(); reqs[0].Method != http.MethodPost || reqs[0].Path != "/api/datasets/abc123/versions" {
			t.Errorf("request: %s %s", reqs[0].Method, reqs[0].Path)
		}
	})

	t.Run("no versions is an error", func(t *testing.T) {
		server, _ := fakeServer(t, http.StatusOK, `{"versions": []}`)
		testee := clientFor(t, server)

		if _, err := testee.NextDatasetVersion(context.Background(), "abc123"); err == nil {
			t.Error("no error occurred")
		}
	})
}
