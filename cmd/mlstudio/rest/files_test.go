package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opst/mlstudio/cmd/mlstudio/rest"
)

func TestFiles(t *testing.T) {
	content := "id,label\n1,cat\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var path string
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/files/download":
			body := struct {
				Path string `json:"path"`
			}{}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Error(err)
			}
			path = body.Path
			w.Header().Set("Content-Disposition", `attachment; filename="labels.csv"`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/files/view":
			path = r.URL.Query().Get("path")
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}

		if path != "/data/vision/cats/labels.csv" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail": "File not found"}`))
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(content))
	}))
	defer server.Close()
	testee := clientFor(t, server)

	for name, method := range map[string]func(context.Context, string, func(rest.FileContent) error) error{
		"DownloadFile": testee.DownloadFile,
		"ViewFile":     testee.ViewFile,
	} {
		t.Run(name+" streams file content to handler", func(t *testing.T) {
			var got rest.FileContent
			var body []byte
			err := method(context.Background(), "/data/vision/cats/labels.csv", func(fc rest.FileContent) error {
				got = fc
				b, err := io.ReadAll(fc.Body)
				body = b
				return err
			})
			if err != nil {
				t.Fatal(err)
			}
			if string(body) != content {
				t.Errorf("content: %q", body)
			}
			if got.Filename != "labels.csv" || got.ContentType != "text/csv" {
				t.Errorf("file: %+v", got)
			}
		})

		t.Run(name+" does not call handler for missing file", func(t *testing.T) {
			called := false
			err := method(context.Background(), "/data/vision/cats/missing.csv", func(rest.FileContent) error {
				called = true
				return nil
			})
			if !rest.IsNotFound(err) {
				t.Errorf("unexpected error: %v", err)
			}
			if called {
				t.Error("handler is called")
			}
		})

		t.Run(name+" returns error from handler", func(t *testing.T) {
			expected := errors.New("disk full")
			err := method(context.Background(), "/data/vision/cats/labels.csv", func(rest.FileContent) error {
				return expected
			})
			if !errors.Is(err, expected) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
