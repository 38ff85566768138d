package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/opst/mlstudio/pkg/api/types/upload"
	kio "github.com/opst/mlstudio/pkg/utils/io"
)

type Progress[T any] interface {
	// EstimatedTotalSize returns the size of the request body in bytes.
	EstimatedTotalSize() int64

	// ProgressedSize returns bytes sent to the server so far.
	ProgressedSize() int64

	// Percent returns ProgressedSize / EstimatedTotalSize in [0, 100].
	//
	// It never decreases, and it is 100 after the operation succeeded.
	Percent() int

	// ProgressingFile returns the file name which is currently being sent.
	ProgressingFile() string

	// Error returns error caused during the operation.
	Error() error

	// Result returns the result of the operation.
	//
	// # Returns
	//
	// - T: the result of the operation.
	//
	// - bool: true if the operation has been done successfully.
	Result() (T, bool)

	// Done returns a channel which is closed when progressing task is over.
	Done() <-chan struct{}

	// Sent returns a channel which is closed when the whole request body is sent to the server.
	Sent() <-chan struct{}
}

type uploadProgress struct {
	total     int64
	body      kio.ProgressReader
	succeeded atomic.Bool

	mux  sync.Mutex
	file string

	e        error
	result   *upload.Summary
	resultOk bool
	done     chan struct{}
	sent     chan struct{}
}

func (p *uploadProgress) EstimatedTotalSize() int64 {
	return p.total
}

func (p *uploadProgress) ProgressedSize() int64 {
	if p.body == nil {
		return 0
	}
	return p.body.Count()
}

func (p *uploadProgress) Percent() int {
	if p.succeeded.Load() {
		return 100
	}
	if p.total <= 0 {
		return 0
	}
	percent := int(math.Round(float64(p.ProgressedSize()) * 100 / float64(p.total)))
	return min(percent, 100)
}

func (p *uploadProgress) setFile(name string) {
	p.mux.Lock()
	defer p.mux.Unlock()
	p.file = name
}

func (p *uploadProgress) ProgressingFile() string {
	p.mux.Lock()
	defer p.mux.Unlock()
	return p.file
}

func (p *uploadProgress) Error() error {
	return p.e
}

func (p *uploadProgress) Result() (*upload.Summary, bool) {
	return p.result, p.resultOk
}

func (p *uploadProgress) Done() <-chan struct{} {
	return p.done
}

func (p *uploadProgress) Sent() <-chan struct{} {
	return p.sent
}

// formFile is a file part of multipart form.
type formFile struct {
	field string
	path  string
	size  int64
}

type formField struct {
	name  string
	value string
}

// formOf lists fields and files in the order to be sent.
func formOf(req upload.Request) ([]formField, []formFile, error) {
	dataTypes, err := json.Marshal(req.DataTypes)
	if err != nil {
		return nil, nil, err
	}

	fields := []formField{
		{name: "projectId", value: req.ProjectName},
		{name: "datasetType", value: string(req.DatasetType)},
		{name: "dataTypes", value: string(dataTypes)},
	}
	if req.DatasetType == upload.ExistingDataset {
		fields = append(fields, formField{name: "selectedDatasetId", value: req.SelectedDatasetId})
	} else {
		fields = append(fields, formField{name: "datasetName", value: req.DatasetName})
	}
	fields = append(fields, formField{name: "updateDescription", value: req.UpdateDescription})

	files := []formFile{}
	for _, kind := range upload.Kinds {
		paths := req.Files[kind]
		field := string(kind)
		if kind == upload.Yaml {
			field = "yaml_file"
			if 1 < len(paths) {
				paths = paths[:1]
			}
		}
		for _, p := range paths {
			stat, err := os.Stat(p)
			if err != nil {
				return nil, nil, err
			}
			if stat.IsDir() {
				return nil, nil, fmt.Errorf("%s is a directory", p)
			}
			files = append(files, formFile{field: field, path: p, size: stat.Size()})
		}
	}
	return fields, files, nil
}

type countingWriter struct {
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	c.n += int64(len(b))
	return len(b), nil
}

// measure returns the exact size of multipart body and its content type.
func measure(boundary string, fields []formField, files []formFile) (int64, string, error) {
	cw := new(countingWriter)
	mw := multipart.NewWriter(cw)
	if err := mw.SetBoundary(boundary); err != nil {
		return 0, "", err
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return 0, "", err
		}
	}
	for _, f := range files {
		if _, err := mw.CreateFormFile(f.field, filepath.Base(f.path)); err != nil {
			return 0, "", err
		}
		cw.n += f.size
	}
	if err := mw.Close(); err != nil {
		return 0, "", err
	}
	return cw.n, mw.FormDataContentType(), nil
}

// writeForm writes multipart body into w.
func writeForm(w io.Writer, boundary string, fields []formField, files []formFile, onFile func(string)) error {
	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(boundary); err != nil {
		return err
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return err
		}
	}
	for _, f := range files {
		onFile(f.path)
		if err := copyFile(mw, f); err != nil {
			return err
		}
	}
	return mw.Close()
}

func copyFile(mw *multipart.Writer, f formFile) error {
	part, err := mw.CreateFormFile(f.field, filepath.Base(f.path))
	if err != nil {
		return err
	}
	src, err := os.Open(f.path)
	if err != nil {
		return err
	}
	defer src.Close()

	// files changed after measuring would break Content-Length.
	n, err := io.Copy(part, io.LimitReader(src, f.size))
	if err != nil {
		return err
	}
	if n != f.size {
		return fmt.Errorf("%s: size changed while sending", f.path)
	}
	return nil
}

func (c *client) PostDataset(ctx context.Context, ureq upload.Request) Progress[*upload.Summary] {
	prog := &uploadProgress{
		sent: make(chan struct{}),
		done: make(chan struct{}),
	}
	fail := func(err error) Progress[*upload.Summary] {
		prog.e = err
		close(prog.done)
		return prog
	}

	fields, files, err := formOf(ureq)
	if err != nil {
		return fail(err)
	}
	boundary := multipart.NewWriter(io.Discard).Boundary()
	total, contentType, err := measure(boundary, fields, files)
	if err != nil {
		return fail(err)
	}
	prog.total = total

	r, w := io.Pipe()
	prog.body = kio.NewProgressReader(r)
	prog.body.OnEnd(func() { close(prog.sent) })

	req, err := c.newRequest(ctx, http.MethodPost, prog.body, "upload", "dataset")
	if err != nil {
		r.Close()
		w.Close()
		return fail(err)
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", contentType)

	wg := new(sync.WaitGroup)
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.CloseWithError(writeForm(w, boundary, fields, files, prog.setFile))
	}()

	go func() {
		defer close(prog.done)
		defer wg.Wait()
		// unblock the writer when the request ends before the body is sent.
		defer r.Close()

		res := &upload.Summary{}
		if err := c.do(req, func(resp *http.Response) error {
			return unmarshalJsonResponse(
				resp, res,
				requestFailed("uploading dataset", resp.StatusCode),
			)
		}); err != nil {
			prog.e = err
			return
		}

		prog.result = res
		prog.resultOk = true
		prog.succeeded.Store(true)
	}()

	return prog
}
