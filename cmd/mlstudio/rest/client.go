package rest

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	kprof "github.com/opst/mlstudio/cmd/mlstudio/config/profiles"
	"github.com/opst/mlstudio/pkg/api/types/datasets"
	"github.com/opst/mlstudio/pkg/api/types/models"
	"github.com/opst/mlstudio/pkg/api/types/projects"
	"github.com/opst/mlstudio/pkg/api/types/training"
	"github.com/opst/mlstudio/pkg/api/types/upload"
	"github.com/opst/mlstudio/pkg/utils"
)

// HeaderRequestId is a header to correlate requests with server logs.
const HeaderRequestId = "X-Request-Id"

type MLStudioClient interface {
	// ListProjects returns all projects.
	ListProjects(ctx context.Context) ([]projects.Detail, error)

	// CreateProject registers a new project.
	//
	// # Args
	//
	// - context.Context
	//
	// - projects.Spec: project to be created. Its name should not be blank.
	//
	// # Returns
	//
	// - projects.Detail: created project
	//
	// - error: projects.ErrEmptyName if the name is blank. In that case, no request is sent.
	CreateProject(ctx context.Context, spec projects.Spec) (projects.Detail, error)

	// GetProject returns the project with given id.
	GetProject(ctx context.Context, id int) (projects.Detail, error)

	// UpdateProject changes fields of the project.
	//
	// # Args
	//
	// - context.Context
	//
	// - int: project id
	//
	// - projects.Change: fields to be changed. Nil fields are left untouched.
	//
	// # Returns
	//
	// - projects.Detail: updated project
	//
	// - error
	UpdateProject(ctx context.Context, id int, change projects.Change) (projects.Detail, error)

	// DeleteProject removes the project.
	DeleteProject(ctx context.Context, id int) error

	// ListAllDatasets returns datasets of all projects.
	ListAllDatasets(ctx context.Context) ([]datasets.Summary, error)

	// ListDatasets returns datasets in the project.
	//
	// Unknown project has no datasets, and it is not an error.
	ListDatasets(ctx context.Context, projectName string) ([]datasets.Summary, error)

	// GetDatasetDetail returns the latest version of the dataset and its files.
	GetDatasetDetail(ctx context.Context, projectName string, datasetName string) (datasets.DetailWithFiles, error)

	// NextDatasetVersion returns the version id which the next upload into the dataset will be.
	NextDatasetVersion(ctx context.Context, datasetId string) (string, error)

	// PostDataset sends files as a new dataset or a new version of a dataset.
	//
	// Sending proceeds in background. Observe it with the returned Progress.
	// Cancelling ctx aborts the transfer.
	PostDataset(ctx context.Context, req upload.Request) Progress[*upload.Summary]

	// DownloadFile reads a file in a dataset.
	//
	// # Args
	//
	// - context.Context
	//
	// - string: path of the file, as datasets.File.Path
	//
	// - handler: function to be called with the content.
	// If handler returns an error, downloading is stopped and the error is returned.
	//
	// # Returns
	//
	// - error
	DownloadFile(ctx context.Context, path string, handler func(FileContent) error) error

	// ViewFile reads a file in a dataset for preview. It works like DownloadFile.
	ViewFile(ctx context.Context, path string, handler func(FileContent) error) error

	// ListModels returns models.
	//
	// If projectId is not nil, models only in the project are returned.
	ListModels(ctx context.Context, projectId *int) ([]models.Detail, error)

	// GetModel returns the model with given id.
	GetModel(ctx context.Context, id int) (models.Detail, error)

	// StartTraining requests to start a training run.
	//
	// # Returns
	//
	// - training.StartedRun: accepted run. Its TrainingId is used to poll the status.
	//
	// - error: split.ErrInvalidSplit if split percentages in hyperparameters do not sum up to 100.
	// In that case, no request is sent.
	StartTraining(ctx context.Context, req training.Request) (training.StartedRun, error)

	// GetTrainingStatus returns the current status of the training run.
	GetTrainingStatus(ctx context.Context, trainingId string) (training.Progress, error)

	// ListTrainingRuns returns all training runs.
	ListTrainingRuns(ctx context.Context) ([]training.Run, error)
}

type client struct {
	httpclient *http.Client
	api        string
}

// NewClient creates a client for the profile.
//
// # Returns
//
// - MLStudioClient
//
// - error: If given profile is invalid, ErrProfileInvalid is returned.
func NewClient(prof *kprof.Profile) (MLStudioClient, error) {
	if err := prof.Verify(); err != nil {
		return nil, err
	}
	httpclient := new(http.Client)

	if prof.Cert.CA != "" {
		hc, err := trustCa(httpclient, []string{prof.Cert.CA})
		if err != nil {
			return nil, err
		}
		httpclient = hc
	}

	base := httpclient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	httpclient.Transport = &requestIdTransport{base: base}

	return &client{
		httpclient: httpclient,
		api:        strings.TrimSuffix(prof.ApiRoot, "/"),
	}, nil
}

// build URL with path
func (c *client) apipath(path ...string) string {
	path = utils.Map(path, func(p string) string {
		return strings.TrimPrefix(strings.TrimSuffix(p, "/"), "/")
	})

	return strings.Join(append([]string{c.api, "api"}, path...), "/")
}

// send a request and close the response after handler returns.
func (c *client) do(req *http.Request, handler func(*http.Response) error) error {
	resp, err := c.httpclient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	return handler(resp)
}

func (c *client) newRequest(ctx context.Context, method string, body io.Reader, path ...string) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, method, c.apipath(path...), body)
}

// requestIdTransport puts X-Request-Id on each request.
type requestIdTransport struct {
	base http.RoundTripper
}

func (t *requestIdTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(HeaderRequestId) != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set(HeaderRequestId, uuid.NewString())
	return t.base.RoundTrip(r)
}

func trustCa(hc *http.Client, cacerts []string) (*http.Client, error) {
	if len(cacerts) <= 0 {
		return hc, nil
	}

	if hc.Transport == nil {
		hc.Transport = http.DefaultTransport
	}

	tran, ok := hc.Transport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("failed to add ca cert")
	}
	tran = tran.Clone()

	tcc := tran.TLSClientConfig.Clone()
	if tcc == nil {
		tcc = &tls.Config{}
	}

	rootcas := tcc.RootCAs
	if rootcas == nil {
		rootcas = x509.NewCertPool()
		tcc.RootCAs = rootcas
	}
	for _, ca := range cacerts {
		bin, err := base64.StdEncoding.DecodeString(ca)
		if err != nil {
			return nil, err
		}

		if !rootcas.AppendCertsFromPEM(bin) {
			return nil, fmt.Errorf("failed to add cert")
		}
	}

	tran.TLSClientConfig = tcc
	hc.Transport = tran
	return hc, nil
}
