package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"path"
)

// FileContent is a file streamed from the server.
type FileContent struct {
	// Filename suggested by the server, or the base name of the requested path.
	Filename string

	ContentType string

	// Size in bytes. -1 if unknown.
	Size int64

	Body io.Reader
}

func (c *client) DownloadFile(ctx context.Context, filepath string, handler func(FileContent) error) error {
	body, err := json.Marshal(map[string]string{"path": filepath})
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, bytes.NewReader(body), "files", "download")
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, func(resp *http.Response) error {
		if err := checkStatus(resp, requestFailed("downloading file", resp.StatusCode)); err != nil {
			return err
		}
		return handler(fileContentOf(resp, filepath))
	})
}

func (c *client) ViewFile(ctx context.Context, filepath string, handler func(FileContent) error) error {
	req, err := c.newRequest(ctx, http.MethodGet, nil, "files", "view")
	if err != nil {
		return err
	}
	q := req.URL.Query()
	q.Set("path", filepath)
	req.URL.RawQuery = q.Encode()

	return c.do(req, func(resp *http.Response) error {
		if err := checkStatus(resp, requestFailed("viewing file", resp.StatusCode)); err != nil {
			return err
		}
		return handler(fileContentOf(resp, filepath))
	})
}

func fileContentOf(resp *http.Response, requested string) FileContent {
	name := path.Base(requested)
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			name = path.Base(params["filename"])
		}
	}
	return FileContent{
		Filename:    name,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
		Body:        resp.Body,
	}
}
