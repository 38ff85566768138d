// Package upload drives a dataset upload through its stages:
//
//	SelectTarget -> Configure -> SelectFiles -> Uploading -> Polling -> Done | Failed
//
// Back() steps back from Configure and SelectFiles. Cancel() aborts Uploading and returns to SelectFiles.
// Retry() sends the same selection again from Failed.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/pkg/api/types/datasets"
	apiupload "github.com/opst/mlstudio/pkg/api/types/upload"
	"github.com/opst/mlstudio/pkg/loop"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrIncomplete        = errors.New("selection is incomplete")
	ErrCancelled         = errors.New("upload is cancelled")
	ErrUnacceptableFile  = errors.New("unacceptable file")
)

// Config is the dataset to be uploaded into.
type Config struct {
	DatasetType apiupload.DatasetType

	// DatasetName is the name of a new dataset.
	//
	// For existing datasets, it is optional and used to find the uploaded dataset when it is not told by the server.
	DatasetName string

	// SelectedDatasetId is the id of an existing dataset.
	SelectedDatasetId string

	// UpdateDescription is why the existing dataset is updated.
	UpdateDescription string

	DataTypes apiupload.Manifest
}

// Verify returns ErrIncomplete unless files can be selected with the config.
func (c Config) Verify() error {
	if !c.DataTypes.Complete() {
		return fmt.Errorf("%w: all data types (images, labels, yaml) should be required", ErrIncomplete)
	}
	switch c.DatasetType {
	case apiupload.NewDataset:
		if strings.TrimSpace(c.DatasetName) == "" {
			return fmt.Errorf("%w: dataset name is required", ErrIncomplete)
		}
	case apiupload.ExistingDataset:
		if strings.TrimSpace(c.SelectedDatasetId) == "" {
			return fmt.Errorf("%w: dataset to be updated is required", ErrIncomplete)
		}
		if strings.TrimSpace(c.UpdateDescription) == "" {
			return fmt.Errorf("%w: description of the update is required", ErrIncomplete)
		}
	default:
		return fmt.Errorf("%w: dataset type should be new or existing, but %q", ErrIncomplete, c.DatasetType)
	}
	return nil
}

var acceptable = map[apiupload.DataKind]func(name string) bool{
	apiupload.Images: datasets.Images.Contains,
	apiupload.Labels: hasExt(".txt"),
	apiupload.Yaml:   hasExt(".yaml", ".yml"),
}

func hasExt(exts ...string) func(string) bool {
	return func(name string) bool {
		ext := strings.ToLower(filepath.Ext(name))
		for _, e := range exts {
			if e == ext {
				return true
			}
		}
		return false
	}
}

// Accepts tells whether the file can be selected as the kind.
func Accepts(kind apiupload.DataKind, name string) bool {
	accept, ok := acceptable[kind]
	return ok && accept(name)
}

// ProgressHandler is called with upload progress in percent and the file being sent.
//
// Percentages passed to a handler never decrease in one upload.
type ProgressHandler func(percent int, file string)

type Option func(*Workflow)

// WithProgressInterval sets how often progress is sampled during Uploading.
func WithProgressInterval(d time.Duration) Option {
	return func(w *Workflow) {
		w.interval = d
	}
}

// Workflow is a dataset upload in progress.
//
// Its methods can be called from multiple goroutines, but only one Upload or Retry runs at once.
type Workflow struct {
	client   rest.MLStudioClient
	logger   *log.Logger
	interval time.Duration

	mux     sync.Mutex
	stage   Stage
	project string
	config  Config
	files   map[apiupload.DataKind][]string
	cancel  context.CancelFunc

	summary *apiupload.Summary
	detail  *datasets.DetailWithFiles
	warning error
	err     error
}

func New(client rest.MLStudioClient, logger *log.Logger, options ...Option) *Workflow {
	w := &Workflow{
		client:   client,
		logger:   logger,
		interval: 100 * time.Millisecond,
		stage:    SelectTarget,
		files:    map[apiupload.DataKind][]string{},
	}
	for _, o := range options {
		o(w)
	}
	return w
}

func (w *Workflow) Stage() Stage {
	w.mux.Lock()
	defer w.mux.Unlock()
	return w.stage
}

func (w *Workflow) Project() string {
	w.mux.Lock()
	defer w.mux.Unlock()
	return w.project
}

func (w *Workflow) Config() Config {
	w.mux.Lock()
	defer w.mux.Unlock()
	return w.config
}

func (w *Workflow) expect(stages ...Stage) error {
	for _, s := range stages {
		if w.stage == s {
			return nil
		}
	}
	return fmt.Errorf("%w: in stage %s", ErrInvalidTransition, w.stage)
}

// SelectProject chooses the project to upload into. SelectTarget -> Configure.
func (w *Workflow) SelectProject(name string) error {
	w.mux.Lock()
	defer w.mux.Unlock()

	if err := w.expect(SelectTarget); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: project is required", ErrIncomplete)
	}
	w.project = name
	w.stage = Configure
	return nil
}

// Configure chooses the dataset and data types. Configure -> SelectFiles.
func (w *Workflow) Configure(c Config) error {
	w.mux.Lock()
	defer w.mux.Unlock()

	if err := w.expect(Configure); err != nil {
		return err
	}
	if err := c.Verify(); err != nil {
		return err
	}
	if c.DatasetType == apiupload.NewDataset {
		c.SelectedDatasetId = ""
		c.UpdateDescription = ""
	}
	w.config = c
	w.stage = SelectFiles
	return nil
}

// Back returns to the previous stage from Configure or SelectFiles.
//
// Selections made so far are kept.
func (w *Workflow) Back() error {
	w.mux.Lock()
	defer w.mux.Unlock()

	switch w.stage {
	case Configure:
		w.stage = SelectTarget
	case SelectFiles:
		w.stage = Configure
	default:
		return fmt.Errorf("%w: cannot go back from %s", ErrInvalidTransition, w.stage)
	}
	return nil
}

// SetFiles replaces files of the kind. It is allowed only in SelectFiles.
func (w *Workflow) SetFiles(kind apiupload.DataKind, paths ...string) error {
	w.mux.Lock()
	defer w.mux.Unlock()

	if err := w.expect(SelectFiles); err != nil {
		return err
	}
	accept, ok := acceptable[kind]
	if !ok {
		return fmt.Errorf("%w: unknown data kind: %s", ErrUnacceptableFile, kind)
	}
	for _, p := range paths {
		if !accept(p) {
			return fmt.Errorf("%w: %s is not for %s", ErrUnacceptableFile, p, kind)
		}
	}
	w.files[kind] = append([]string{}, paths...)
	return nil
}

// RemoveFile drops a file from the kind. It is allowed only in SelectFiles.
func (w *Workflow) RemoveFile(kind apiupload.DataKind, path string) error {
	w.mux.Lock()
	defer w.mux.Unlock()

	if err := w.expect(SelectFiles); err != nil {
		return err
	}
	files := []string{}
	for _, f := range w.files[kind] {
		if f != path {
			files = append(files, f)
		}
	}
	w.files[kind] = files
	return nil
}

// Files returns a copy of selected files.
func (w *Workflow) Files() map[apiupload.DataKind][]string {
	w.mux.Lock()
	defer w.mux.Unlock()

	ret := map[apiupload.DataKind][]string{}
	for k, v := range w.files {
		ret[k] = append([]string{}, v...)
	}
	return ret
}

func (w *Workflow) canUpload() bool {
	for _, kind := range apiupload.Kinds {
		if w.config.DataTypes[kind] && len(w.files[kind]) == 0 {
			return false
		}
	}
	return true
}

// CanUpload tells whether Upload can be started now.
//
// It is true only in SelectFiles with files for each required data kind.
func (w *Workflow) CanUpload() bool {
	w.mux.Lock()
	defer w.mux.Unlock()
	return w.stage == SelectFiles && w.canUpload()
}

// Upload sends selected files. SelectFiles -> Uploading -> Polling -> Done | Failed.
//
// It blocks until the upload ends. Cancelling ctx or calling Cancel aborts the upload;
// then, the workflow returns to SelectFiles and ErrCancelled is returned.
//
// When the server accepts the upload, its summary is kept and then the uploaded dataset is fetched.
// Failure of fetching is not an error of the upload; see Warning().
func (w *Workflow) Upload(ctx context.Context, onProgress ProgressHandler) error {
	return w.start(ctx, onProgress, SelectFiles)
}

// Retry sends the same selection again after failure. Failed -> Uploading -> ...
func (w *Workflow) Retry(ctx context.Context, onProgress ProgressHandler) error {
	return w.start(ctx, onProgress, Failed)
}

// Cancel aborts the upload in progress. It does nothing unless Uploading.
func (w *Workflow) Cancel() {
	w.mux.Lock()
	defer w.mux.Unlock()
	if w.stage == Uploading && w.cancel != nil {
		w.cancel()
	}
}

func (w *Workflow) start(ctx context.Context, onProgress ProgressHandler, from Stage) error {
	w.mux.Lock()
	if err := w.expect(from); err != nil {
		w.mux.Unlock()
		return err
	}
	if !w.canUpload() {
		w.mux.Unlock()
		return fmt.Errorf("%w: files for each data type are required", ErrIncomplete)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req := w.request()
	w.stage = Uploading
	w.cancel = cancel
	w.err = nil
	w.warning = nil
	w.summary = nil
	w.detail = nil
	w.mux.Unlock()

	if onProgress == nil {
		onProgress = func(int, string) {}
	}

	summary, err := w.send(ctx, req, onProgress)

	w.mux.Lock()
	w.cancel = nil
	if err != nil {
		if ctx.Err() != nil {
			w.stage = SelectFiles
			w.mux.Unlock()
			w.logger.Printf("upload is cancelled")
			return fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		w.stage = Failed
		w.err = err
		w.mux.Unlock()
		return err
	}
	w.summary = summary
	w.stage = Polling
	w.mux.Unlock()

	detail, warn := w.fetch(ctx, req, summary)

	w.mux.Lock()
	defer w.mux.Unlock()
	w.detail = detail
	w.warning = warn
	w.stage = Done
	return nil
}

func (w *Workflow) request() apiupload.Request {
	files := map[apiupload.DataKind][]string{}
	for _, kind := range apiupload.Kinds {
		if w.config.DataTypes[kind] {
			files[kind] = append([]string{}, w.files[kind]...)
		}
	}
	return apiupload.Request{
		ProjectName:       w.project,
		DatasetType:       w.config.DatasetType,
		DatasetName:       w.config.DatasetName,
		SelectedDatasetId: w.config.SelectedDatasetId,
		UpdateDescription: w.config.UpdateDescription,
		DataTypes:         w.config.DataTypes,
		Files:             files,
	}
}

// send uploads and reports non-decreasing progress until the request ends.
func (w *Workflow) send(ctx context.Context, req apiupload.Request, onProgress ProgressHandler) (*apiupload.Summary, error) {
	prog := w.client.PostDataset(ctx, req)

	last := -1
	report := func() {
		p := min(max(prog.Percent(), 0), 100)
		if p <= last {
			return
		}
		last = p
		onProgress(p, prog.ProgressingFile())
	}

	loop.Start(ctx, struct{}{}, func(context.Context, struct{}) (struct{}, loop.Next) {
		select {
		case <-prog.Done():
			return struct{}{}, loop.Break(nil)
		default:
		}
		report()
		return struct{}{}, loop.Continue(w.interval)
	})
	// transfer resources are released when it is done.
	<-prog.Done()

	if err := prog.Error(); err != nil {
		return nil, err
	}
	summary, ok := prog.Result()
	if !ok || summary == nil {
		return nil, errors.New("upload finished without result")
	}
	if last < 100 {
		onProgress(100, "")
	}
	return summary, nil
}

// fetch reads the dataset which has been uploaded.
func (w *Workflow) fetch(ctx context.Context, req apiupload.Request, summary *apiupload.Summary) (*datasets.DetailWithFiles, error) {
	name := summary.DatasetInfo.Name
	if name == "" {
		name = req.DatasetName
	}
	if name == "" {
		err := errors.New("uploaded dataset is not told by the server")
		w.logger.Printf("warning: %s", err)
		return nil, err
	}

	detail, err := w.client.GetDatasetDetail(ctx, req.ProjectName, name)
	if err != nil {
		w.logger.Printf("warning: cannot fetch uploaded dataset %s: %s", name, err)
		return nil, err
	}
	return &detail, nil
}

// Summary returns the summary of the upload accepted by the server.
func (w *Workflow) Summary() (*apiupload.Summary, bool) {
	w.mux.Lock()
	defer w.mux.Unlock()
	return w.summary, w.summary != nil
}

// Dataset returns the uploaded dataset fetched after the upload.
func (w *Workflow) Dataset() (*datasets.DetailWithFiles, bool) {
	w.mux.Lock()
	defer w.mux.Unlock()
	return w.detail, w.detail != nil
}

// Warning is the error in fetching the uploaded dataset, if any.
func (w *Workflow) Warning() error {
	w.mux.Lock()
	defer w.mux.Unlock()
	return w.warning
}

// Err is the error which made the workflow Failed.
func (w *Workflow) Err() error {
	w.mux.Lock()
	defer w.mux.Unlock()
	return w.err
}

// Reset discards everything and returns to SelectTarget. It is not allowed during Uploading and Polling.
func (w *Workflow) Reset() error {
	w.mux.Lock()
	defer w.mux.Unlock()

	if w.stage == Uploading || w.stage == Polling {
		return fmt.Errorf("%w: cannot reset in %s", ErrInvalidTransition, w.stage)
	}
	w.stage = SelectTarget
	w.project = ""
	w.config = Config{}
	w.files = map[apiupload.DataKind][]string{}
	w.summary = nil
	w.detail = nil
	w.warning = nil
	w.err = nil
	return nil
}
