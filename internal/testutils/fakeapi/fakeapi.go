// Package fakeapi is an in-memory ML Studio server for tests.
//
// It serves the endpoints which rest.MLStudioClient uses, keeping every state in memory.
package fakeapi

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/opst/mlstudio/pkg/api/types/datasets"
	"github.com/opst/mlstudio/pkg/api/types/models"
	"github.com/opst/mlstudio/pkg/api/types/projects"
	"github.com/opst/mlstudio/pkg/api/types/training"
)

const timestamp = "2006-01-02T15:04:05"

type Server struct {
	mux sync.Mutex

	projects []projects.Detail
	datasets []*dataset
	models   []models.Detail
	runs     []*run

	// steps is how many polls a training run takes to finish.
	steps    int
	failWith string
	now      func() time.Time

	lastProjectId int
	lastDatasetId int
}

type dataset struct {
	id          int
	name        string
	project     string
	version     int
	description string
	createdAt   string
	files       []stored
}

func (d *dataset) summary() datasets.Summary {
	return datasets.Summary{
		Id:          datasetId(d.id),
		Name:        d.name,
		Version:     versionName(d.version),
		FileCount:   len(d.files),
		LastUpdated: d.createdAt,
		Description: d.description,
		ProjectName: d.project,
	}
}

type stored struct {
	file    datasets.File
	content []byte
}

type run struct {
	record training.Run
	polled int
	epochs int
	err    string
}

type Option func(*Server)

// WithProject registers a project.
func WithProject(name, description string) Option {
	return func(s *Server) {
		s.addProject(projects.Spec{Name: name, Description: description})
	}
}

// WithModel registers a trained model. Its Id is replaced.
func WithModel(m models.Detail) Option {
	return func(s *Server) {
		m.Id = len(s.models) + 1
		s.models = append(s.models, m)
	}
}

// WithSteps sets how many status polls a training run takes to finish. Default is 3.
func WithSteps(n int) Option {
	return func(s *Server) {
		if 0 < n {
			s.steps = n
		}
	}
}

// FailTraining makes training runs fail with the message.
func FailTraining(message string) Option {
	return func(s *Server) {
		s.failWith = message
	}
}

// WithClock replaces the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

func New(options ...Option) *Server {
	s := &Server{steps: 3, now: time.Now}
	for _, o := range options {
		o(s)
	}
	return s
}

// Echo builds a server routing requests to s.
func (s *Server) Echo(loglevel string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	SetLevel(e, loglevel)
	e.Use(LogHandlerFunc)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		e.DefaultHTTPErrorHandler(err, c)
		e.Logger.Error(err)
	}

	api := e.Group("/api")

	api.GET("/projects", s.listProjects)
	api.POST("/projects", s.createProject)
	api.GET("/projects/:id", s.getProject)
	api.PUT("/projects/:id", s.updateProject)
	api.DELETE("/projects/:id", s.deleteProject)

	api.GET("/datasets", s.listAllDatasets)
	api.GET("/datasets/project/:name", s.listDatasets)
	api.GET("/datasets/:name/details", s.getDatasetDetail)
	api.POST("/datasets/:id/versions", s.nextDatasetVersion)

	api.POST("/files/download", s.downloadFile)
	api.GET("/files/view", s.viewFile)

	api.GET("/models", s.listModels)
	api.GET("/models/:id", s.getModel)

	api.POST("/training/start", s.startTraining)
	api.GET("/training/runs", s.listTrainingRuns)
	api.GET("/training/:id/status", s.getTrainingStatus)

	api.POST("/upload/dataset", s.uploadDataset)

	return e
}

// Start serves s until the test ends, and returns its URL.
func Start(t *testing.T, s *Server) string {
	t.Helper()
	server := httptest.NewServer(s.Echo("off"))
	t.Cleanup(server.Close)
	return server.URL
}

func (s *Server) timestamp() string {
	return s.now().Format(timestamp)
}
