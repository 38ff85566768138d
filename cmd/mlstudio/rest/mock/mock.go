package mock

import (
	"context"
	"sync"
	"testing"

	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	"github.com/opst/mlstudio/pkg/api/types/datasets"
	"github.com/opst/mlstudio/pkg/api/types/models"
	"github.com/opst/mlstudio/pkg/api/types/projects"
	"github.com/opst/mlstudio/pkg/api/types/training"
	"github.com/opst/mlstudio/pkg/api/types/upload"
)

type UpdateProjectArgs struct {
	Id     int
	Change projects.Change
}

type GetDatasetDetailArgs struct {
	ProjectName string
	DatasetName string
}

func New(t *testing.T) *MockClient {
	return &MockClient{t: t}
}

type MockedUploadProgress struct {
	EstimatedTotalSize_ int64

	ProgressedSize_ int64

	Percent_ int

	ProgressingFile_ string

	Error_ error

	Result_ *upload.Summary

	ResultOk_ bool

	Done_ <-chan struct{}

	Sent_ <-chan struct{}
}

var _ rest.Progress[*upload.Summary] = &MockedUploadProgress{}

func (m *MockedUploadProgress) EstimatedTotalSize() int64 {
	return m.EstimatedTotalSize_
}

func (m *MockedUploadProgress) ProgressedSize() int64 {
	return m.ProgressedSize_
}

func (m *MockedUploadProgress) Percent() int {
	return m.Percent_
}

func (m *MockedUploadProgress) ProgressingFile() string {
	return m.ProgressingFile_
}

func (m *MockedUploadProgress) Result() (*upload.Summary, bool) {
	return m.Result_, m.ResultOk_
}

func (m *MockedUploadProgress) Error() error {
	return m.Error_
}

func (m *MockedUploadProgress) Done() <-chan struct{} {
	return m.Done_
}

func (m *MockedUploadProgress) Sent() <-chan struct{} {
	return m.Sent_
}

// Finished returns a progress which has been done already.
func Finished(result *upload.Summary, err error) *MockedUploadProgress {
	done := make(chan struct{})
	close(done)
	sent := make(chan struct{})
	percent := 0
	if err == nil {
		close(sent)
		percent = 100
	}
	return &MockedUploadProgress{
		Percent_:  percent,
		Error_:    err,
		Result_:   result,
		ResultOk_: err == nil,
		Done_:     done,
		Sent_:     sent,
	}
}

// MockClient is safe to be called from multiple goroutines.
type MockClient struct {
	t    *testing.T
	mux  sync.Mutex
	Impl struct {
		ListProjects       func(ctx context.Context) ([]projects.Detail, error)
		CreateProject      func(ctx context.Context, spec projects.Spec) (projects.Detail, error)
		GetProject         func(ctx context.Context, id int) (projects.Detail, error)
		UpdateProject      func(ctx context.Context, id int, change projects.Change) (projects.Detail, error)
		DeleteProject      func(ctx context.Context, id int) error
		ListAllDatasets    func(ctx context.Context) ([]datasets.Summary, error)
		ListDatasets       func(ctx context.Context, projectName string) ([]datasets.Summary, error)
		GetDatasetDetail   func(ctx context.Context, projectName string, datasetName string) (datasets.DetailWithFiles, error)
		NextDatasetVersion func(ctx context.Context, datasetId string) (string, error)
		PostDataset        func(ctx context.Context, req upload.Request) rest.Progress[*upload.Summary]
		DownloadFile       func(ctx context.Context, path string, handler func(rest.FileContent) error) error
		ViewFile           func(ctx context.Context, path string, handler func(rest.FileContent) error) error
		ListModels         func(ctx context.Context, projectId *int) ([]models.Detail, error)
		GetModel           func(ctx context.Context, id int) (models.Detail, error)
		StartTraining      func(ctx context.Context, req training.Request) (training.StartedRun, error)
		GetTrainingStatus  func(ctx context.Context, trainingId string) (training.Progress, error)
		ListTrainingRuns   func(ctx context.Context) ([]training.Run, error)
	}
	Calls struct {
		ListProjects       int
		CreateProject      []projects.Spec
		GetProject         []int
		UpdateProject      []UpdateProjectArgs
		DeleteProject      []int
		ListAllDatasets    int
		ListDatasets       []string
		GetDatasetDetail   []GetDatasetDetailArgs
		NextDatasetVersion []string
		PostDataset        []upload.Request
		DownloadFile       []string
		ViewFile           []string
		ListModels         []*int
		GetModel           []int
		StartTraining      []training.Request
		GetTrainingStatus  []string
		ListTrainingRuns   int
	}
}

var _ rest.MLStudioClient = &MockClient{}

// record runs f with lock. f should record the call.
func (m *MockClient) record(f func()) {
	m.mux.Lock()
	defer m.mux.Unlock()
	f()
}

// GetTrainingStatusCalls returns a snapshot of GetTrainingStatus calls.
func (m *MockClient) GetTrainingStatusCalls() []string {
	m.mux.Lock()
	defer m.mux.Unlock()
	return append([]string{}, m.Calls.GetTrainingStatus...)
}

func (m *MockClient) ListProjects(ctx context.Context) ([]projects.Detail, error) {
	m.t.Helper()

	m.record(func() { m.Calls.ListProjects += 1 })
	if m.Impl.ListProjects == nil {
		m.t.Fatal("ListProjects is not ready to be called")
	}
	return m.Impl.ListProjects(ctx)
}

func (m *MockClient) CreateProject(ctx context.Context, spec projects.Spec) (projects.Detail, error) {
	m.t.Helper()

	m.record(func() { m.Calls.CreateProject = append(m.Calls.CreateProject, spec) })
	if m.Impl.CreateProject == nil {
		m.t.Fatal("CreateProject is not ready to be called")
	}
	return m.Impl.CreateProject(ctx, spec)
}

func (m *MockClient) GetProject(ctx context.Context, id int) (projects.Detail, error) {
	m.t.Helper()

	m.record(func() { m.Calls.GetProject = append(m.Calls.GetProject, id) })
	if m.Impl.GetProject == nil {
		m.t.Fatal("GetProject is not ready to be called")
	}
	return m.Impl.GetProject(ctx, id)
}

func (m *MockClient) UpdateProject(ctx context.Context, id int, change projects.Change) (projects.Detail, error) {
	m.t.Helper()

	m.record(func() {
		m.Calls.UpdateProject = append(m.Calls.UpdateProject, UpdateProjectArgs{Id: id, Change: change})
	})
	if m.Impl.UpdateProject == nil {
		m.t.Fatal("UpdateProject is not ready to be called")
	}
	return m.Impl.UpdateProject(ctx, id, change)
}

func (m *MockClient) DeleteProject(ctx context.Context, id int) error {
	m.t.Helper()

	m.record(func() { m.Calls.DeleteProject = append(m.Calls.DeleteProject, id) })
	if m.Impl.DeleteProject == nil {
		m.t.Fatal("DeleteProject is not ready to be called")
	}
	return m.Impl.DeleteProject(ctx, id)
}

func (m *MockClient) ListAllDatasets(ctx context.Context) ([]datasets.Summary, error) {
	m.t.Helper()

	m.record(func() { m.Calls.ListAllDatasets += 1 })
	if m.Impl.ListAllDatasets == nil {
		m.t.Fatal("ListAllDatasets is not ready to be called")
	}
	return m.Impl.ListAllDatasets(ctx)
}

func (m *MockClient) ListDatasets(ctx context.Context, projectName string) ([]datasets.Summary, error) {
	m.t.Helper()

	m.record(func() { m.Calls.ListDatasets = append(m.Calls.ListDatasets, projectName) })
	if m.Impl.ListDatasets == nil {
		m.t.Fatal("ListDatasets is not ready to be called")
	}
	return m.Impl.ListDatasets(ctx, projectName)
}

func (m *MockClient) GetDatasetDetail(ctx context.Context, projectName string, datasetName string) (datasets.DetailWithFiles, error) {
	m.t.Helper()

	m.record(func() {
		m.Calls.GetDatasetDetail = append(
			m.Calls.GetDatasetDetail,
			GetDatasetDetailArgs{ProjectName: projectName, DatasetName: datasetName},
		)
	})
	if m.Impl.GetDatasetDetail == nil {
		m.t.Fatal("GetDatasetDetail is not ready to be called")
	}
	return m.Impl.GetDatasetDetail(ctx, projectName, datasetName)
}

func (m *MockClient) NextDatasetVersion(ctx context.Context, datasetId string) (string, error) {
	m.t.Helper()

	m.record(func() { m.Calls.NextDatasetVersion = append(m.Calls.NextDatasetVersion, datasetId) })
	if m.Impl.NextDatasetVersion == nil {
		m.t.Fatal("NextDatasetVersion is not ready to be called")
	}
	return m.Impl.NextDatasetVersion(ctx, datasetId)
}

func (m *MockClient) PostDataset(ctx context.Context, req upload.Request) rest.Progress[*upload.Summary] {
	m.t.Helper()

	m.record(func() { m.Calls.PostDataset = append(m.Calls.PostDataset, req) })
	if m.Impl.PostDataset == nil {
		m.t.Fatal("PostDataset is not ready to be called")
	}
	return m.Impl.PostDataset(ctx, req)
}

func (m *MockClient) DownloadFile(ctx context.Context, path string, handler func(rest.FileContent) error) error {
	m.t.Helper()

	m.record(func() { m.Calls.DownloadFile = append(m.Calls.DownloadFile, path) })
	if m.Impl.DownloadFile == nil {
		m.t.Fatal("DownloadFile is not ready to be called")
	}
	return m.Impl.DownloadFile(ctx, path, handler)
}

func (m *MockClient) ViewFile(ctx context.Context, path string, handler func(rest.FileContent) error) error {
	m.t.Helper()

	m.record(func() { m.Calls.ViewFile = append(m.Calls.ViewFile, path) })
	if m.Impl.ViewFile == nil {
		m.t.Fatal("ViewFile is not ready to be called")
	}
	return m.Impl.ViewFile(ctx, path, handler)
}

func (m *MockClient) ListModels(ctx context.Context, projectId *int) ([]models.Detail, error) {
	m.t.Helper()

	m.record(func() { m.Calls.ListModels = append(m.Calls.ListModels, projectId) })
	if m.Impl.ListModels == nil {
		m.t.Fatal("ListModels is not ready to be called")
	}
	return m.Impl.ListModels(ctx, projectId)
}

func (m *MockClient) GetModel(ctx context.Context, id int) (models.Detail, error) {
	m.t.Helper()

	m.record(func() { m.Calls.GetModel = append(m.Calls.GetModel, id) })
	if m.Impl.GetModel == nil {
		m.t.Fatal("GetModel is not ready to be called")
	}
	return m.Impl.GetModel(ctx, id)
}

func (m *MockClient) StartTraining(ctx context.Context, req training.Request) (training.StartedRun, error) {
	m.t.Helper()

	m.record(func() { m.Calls.StartTraining = append(m.Calls.StartTraining, req) })
	if m.Impl.StartTraining == nil {
		m.t.Fatal("StartTraining is not ready to be called")
	}
	return m.Impl.StartTraining(ctx, req)
}

func (m *MockClient) GetTrainingStatus(ctx context.Context, trainingId string) (training.Progress, error) {
	m.t.Helper()

	m.record(func() { m.Calls.GetTrainingStatus = append(m.Calls.GetTrainingStatus, trainingId) })
	if m.Impl.GetTrainingStatus == nil {
		m.t.Fatal("GetTrainingStatus is not ready to be called")
	}
	return m.Impl.GetTrainingStatus(ctx, trainingId)
}

func (m *MockClient) ListTrainingRuns(ctx context.Context) ([]training.Run, error) {
	m.t.Helper()

	m.record(func() { m.Calls.ListTrainingRuns += 1 })
	if m.Impl.ListTrainingRuns == nil {
		m.t.Fatal("ListTrainingRuns is not ready to be called")
	}
	return m.Impl.ListTrainingRuns(ctx)
}
