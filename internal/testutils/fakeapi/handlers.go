package fakeapi

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/opst/mlstudio/pkg/api/types/datasets"
	apierr "github.com/opst/mlstudio/pkg/api/types/errors"
	"github.com/opst/mlstudio/pkg/api/types/models"
	"github.com/opst/mlstudio/pkg/api/types/projects"
	"github.com/opst/mlstudio/pkg/api/types/training"
	"github.com/opst/mlstudio/pkg/api/types/upload"
	"github.com/opst/mlstudio/pkg/utils/pointer"
)

func datasetId(n int) string {
	return fmt.Sprintf("dataset_%d", n)
}

func versionName(n int) string {
	return fmt.Sprintf("v%d", n)
}

func intParam(c echo.Context, name string) (int, error) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, apierr.BadRequest(fmt.Sprintf("%s should be an integer", name), err)
	}
	return n, nil
}

// addProject registers a project. The caller should hold the lock.
func (s *Server) addProject(spec projects.Spec) projects.Detail {
	s.lastProjectId += 1
	p := projects.Detail{
		Id:          s.lastProjectId,
		Name:        spec.Name,
		Description: spec.Description,
		Path:        spec.Path,
		Status:      "active",
		CreatedBy:   spec.CreatedBy,
		CreatedAt:   s.timestamp(),
		UpdatedAt:   s.timestamp(),
	}
	if p.Path == "" {
		p.Path = "projects/" + spec.Name
	}
	s.projects = append(s.projects, p)
	return p
}

func (s *Server) projectById(id int) (int, bool) {
	for n, p := range s.projects {
		if p.Id == id {
			return n, true
		}
	}
	return 0, false
}

func (s *Server) projectByName(name string) (projects.Detail, bool) {
	for _, p := range s.projects {
		if p.Name == name {
			return p, true
		}
	}
	return projects.Detail{}, false
}

func (s *Server) listProjects(c echo.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	return c.JSON(http.StatusOK, projects.List{Projects: append([]projects.Detail{}, s.projects...)})
}

func (s *Server) createProject(c echo.Context) error {
	spec := projects.Spec{}
	if err := c.Bind(&spec); err != nil {
		return apierr.BadRequest("malformed project", err)
	}
	if err := spec.Verify(); err != nil {
		return apierr.BadRequest(err.Error(), err)
	}

	s.mux.Lock()
	defer s.mux.Unlock()
	if _, ok := s.projectByName(spec.Name); ok {
		return apierr.BadRequest("Project with this name already exists", nil)
	}
	p := s.addProject(spec)
	return c.JSON(http.StatusOK, projects.Created{
		Message: "Project created successfully", Project: p, Status: true,
	})
}

func (s *Server) getProject(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	n, ok := s.projectById(id)
	if !ok {
		return apierr.NotFound("Project not found")
	}
	return c.JSON(http.StatusOK, projects.Single{Project: s.projects[n]})
}

func (s *Server) updateProject(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	change := projects.Change{}
	if err := c.Bind(&change); err != nil {
		return apierr.BadRequest("malformed change", err)
	}

	s.mux.Lock()
	defer s.mux.Unlock()
	n, ok := s.projectById(id)
	if !ok {
		return apierr.NotFound("Project not found")
	}
	p := &s.projects[n]
	if change.Name != nil {
		p.Name = *change.Name
	}
	if change.Description != nil {
		p.Description = *change.Description
	}
	if change.Path != nil {
		p.Path = *change.Path
	}
	if change.Status != nil {
		p.Status = *change.Status
	}
	p.UpdatedAt = s.timestamp()
	return c.JSON(http.StatusOK, projects.Updated{Message: "Project updated successfully", Project: *p})
}

func (s *Server) deleteProject(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	n, ok := s.projectById(id)
	if !ok {
		return apierr.NotFound("Project not found")
	}
	s.projects = append(s.projects[:n], s.projects[n+1:]...)
	return c.JSON(http.StatusOK, map[string]string{"message": "Project deleted successfully"})
}

func (s *Server) listAllDatasets(c echo.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	ret := []datasets.Summary{}
	for _, d := range s.datasets {
		ret = append(ret, d.summary())
	}
	return c.JSON(http.StatusOK, datasets.List{Datasets: ret})
}

func (s *Server) listDatasets(c echo.Context) error {
	name := c.Param("name")
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, ok := s.projectByName(name); !ok {
		return apierr.NotFound("Project not found")
	}
	ret := []datasets.Summary{}
	for _, d := range s.datasets {
		if d.project == name {
			ret = append(ret, d.summary())
		}
	}
	return c.JSON(http.StatusOK, datasets.List{Datasets: ret})
}

func (s *Server) datasetByName(project, name string) (*dataset, bool) {
	for _, d := range s.datasets {
		if d.project == project && d.name == name {
			return d, true
		}
	}
	return nil, false
}

func (s *Server) datasetById(id string) (*dataset, bool) {
	for _, d := range s.datasets {
		if datasetId(d.id) == id {
			return d, true
		}
	}
	return nil, false
}

func (s *Server) getDatasetDetail(c echo.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	d, ok := s.datasetByName(c.QueryParam("project"), c.Param("name"))
	if !ok {
		return apierr.NotFound("Dataset not found")
	}
	files := make([]datasets.File, 0, len(d.files))
	for _, f := range d.files {
		files = append(files, f.file)
	}
	return c.JSON(http.StatusOK, datasets.DetailWithFiles{
		Dataset: datasets.Detail{
			Id:        d.id,
			Name:      d.name,
			Version:   versionName(d.version),
			FileCount: len(d.files),
			CreatedAt: d.createdAt,
			BasePath:  path.Join(d.project, d.name),
		},
		Files: files,
	})
}

func (s *Server) nextDatasetVersion(c echo.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	d, ok := s.datasetById(c.Param("id"))
	if !ok {
		return apierr.NotFound("Dataset not found")
	}
	return c.JSON(http.StatusOK, datasets.Versions{
		Versions: []datasets.Version{{VersionId: versionName(d.version + 1)}},
	})
}

func (s *Server) fileByPath(p string) (stored, bool) {
	for _, d := range s.datasets {
		for _, f := range d.files {
			if f.file.Path == p {
				return f, true
			}
		}
	}
	return stored{}, false
}

func contentTypeOf(name string) string {
	switch datasets.CategoryOf(name) {
	case datasets.Images:
		return "image/" + strings.TrimPrefix(path.Ext(name), ".")
	case datasets.Json:
		return "application/json"
	case datasets.Text:
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

func (s *Server) downloadFile(c echo.Context) error {
	body := struct {
		Path string `json:"path"`
	}{}
	if err := c.Bind(&body); err != nil {
		return apierr.BadRequest("malformed request", err)
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	f, ok := s.fileByPath(body.Path)
	if !ok {
		return apierr.NotFound("File not found")
	}
	c.Response().Header().Set(
		echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, f.file.Name),
	)
	return c.Blob(http.StatusOK, echo.MIMEOctetStream, f.content)
}

func (s *Server) viewFile(c echo.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	f, ok := s.fileByPath(c.QueryParam("path"))
	if !ok {
		return apierr.NotFound("File not found")
	}
	return c.Blob(http.StatusOK, contentTypeOf(f.file.Name), f.content)
}

func (s *Server) listModels(c echo.Context) error {
	var projectId *int
	if q := c.QueryParam("project_id"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			return apierr.BadRequest("project_id should be an integer", err)
		}
		projectId = &n
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	ret := []models.Detail{}
	for _, m := range s.models {
		if projectId == nil || m.ProjectId == *projectId {
			ret = append(ret, m)
		}
	}
	return c.JSON(http.StatusOK, models.List{Models: ret})
}

func (s *Server) getModel(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	for _, m := range s.models {
		if m.Id == id {
			return c.JSON(http.StatusOK, models.Single{Model: m})
		}
	}
	return apierr.NotFound("Model not found")
}

func parametersOf(h training.Hyperparameters) models.Parameters {
	return models.Parameters{
		"model_architecture": h.ModelArchitecture,
		"epochs":             h.Epochs,
		"batch_size":         h.BatchSize,
		"learning_rate":      h.LearningRate,
		"num_classes":        h.NumClasses,
		"train_split":        h.TrainSplit,
		"validation_split":   h.ValidationSplit,
		"test_split":         h.TestSplit,
		"optimizer":          h.Optimizer,
		"loss_function":      h.LossFunction,
	}
}

func (s *Server) startTraining(c echo.Context) error {
	req := training.Request{}
	if err := c.Bind(&req); err != nil {
		return apierr.BadRequest("malformed training request", err)
	}

	s.mux.Lock()
	defer s.mux.Unlock()
	n, ok := s.projectById(req.ProjectId)
	if !ok {
		return apierr.NotFound("Project not found")
	}
	project := s.projects[n]
	d, ok := s.datasetById(req.DatasetId)
	if !ok || d.project != project.Name {
		return apierr.NotFound("Dataset not found")
	}

	serial := len(s.runs) + 1
	r := &run{
		record: training.Run{
			Id:             serial,
			JobId:          fmt.Sprintf("training_%d", serial),
			ProjectId:      project.Id,
			DatasetId:      pointer.Ref(d.id),
			Parameters:     parametersOf(req.Hyperparameters),
			Metrics:        models.Metrics{},
			Status:         training.Started,
			StartedAt:      s.timestamp(),
			ProjectName:    project.Name,
			DatasetName:    d.name,
			DatasetVersion: versionName(d.version),
			ModelName:      req.ModelName,
		},
		epochs: req.Hyperparameters.Epochs,
		err:    s.failWith,
	}
	s.runs = append(s.runs, r)

	return c.JSON(http.StatusOK, training.StartedRun{
		TrainingId: r.record.JobId,
		ModelName:  req.ModelName,
		Status:     training.Started,
		Message:    "Training started",
	})
}

// advance moves the run one step forward. The caller should hold the lock.
func (s *Server) advance(r *run) training.Progress {
	rec := &r.record
	if !rec.Status.Terminal() {
		r.polled += 1
		switch {
		case r.polled < s.steps:
			rec.Status = training.Running
		case r.err != "":
			rec.Status = training.Failed
			rec.CompletedAt = s.timestamp()
		default:
			rec.Status = training.Completed
			rec.CompletedAt = s.timestamp()
			rec.Metrics = models.Metrics{"accuracy": 0.9, "loss": 0.1, "epochs": r.epochs}

			version := 1
			for _, m := range s.models {
				if m.Name == rec.ModelName {
					version += 1
				}
			}
			model := models.Detail{
				Id:          len(s.models) + 1,
				ProjectId:   rec.ProjectId,
				DatasetId:   rec.DatasetId,
				Name:        rec.ModelName,
				Version:     versionName(version),
				Framework:   "PyTorch",
				Parameters:  rec.Parameters,
				Metrics:     rec.Metrics,
				CreatedAt:   rec.CompletedAt,
				ProjectName: rec.ProjectName,
			}
			s.models = append(s.models, model)
			rec.ModelId = pointer.Ref(model.Id)
			rec.ModelVersion = model.Version
		}
	}

	p := training.Progress{
		Status:         rec.Status,
		Progress:       float64(100*r.polled) / float64(s.steps),
		DatasetVersion: rec.DatasetVersion,
		ModelId:        rec.ModelId,
		ModelVersion:   rec.ModelVersion,
	}
	switch rec.Status {
	case training.Completed:
		p.Message = "Training completed"
	case training.Failed:
		p.Message = "Training failed"
		p.Error = r.err
	default:
		p.Message = fmt.Sprintf("step %d of %d", r.polled, s.steps)
	}
	return p
}

func (s *Server) getTrainingStatus(c echo.Context) error {
	id := c.Param("id")
	s.mux.Lock()
	defer s.mux.Unlock()
	for _, r := range s.runs {
		if r.record.JobId == id {
			return c.JSON(http.StatusOK, s.advance(r))
		}
	}
	return apierr.NotFound("Training run not found")
}

func (s *Server) listTrainingRuns(c echo.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	ret := make([]training.Run, 0, len(s.runs))
	for n := len(s.runs) - 1; 0 <= n; n-- {
		ret = append(ret, s.runs[n].record)
	}
	return c.JSON(http.StatusOK, training.Runs{TrainingRuns: ret})
}

// uploaded is a file part read from a multipart form.
type uploaded struct {
	kind    upload.DataKind
	name    string
	content []byte
}

func readParts(form *multipart.Form) ([]uploaded, error) {
	ret := []uploaded{}
	for _, kind := range upload.Kinds {
		field := string(kind)
		if kind == upload.Yaml {
			field = "yaml_file"
		}
		headers := form.File[field]
		if len(headers) == 0 {
			return nil, apierr.BadRequest(fmt.Sprintf("%s is required", field), nil)
		}
		for _, h := range headers {
			f, err := h.Open()
			if err != nil {
				return nil, err
			}
			content, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return nil, err
			}
			ret = append(ret, uploaded{kind: kind, name: path.Base(h.Filename), content: content})
		}
	}
	return ret, nil
}

func (s *Server) uploadDataset(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return apierr.BadRequest("multipart form is required", err)
	}
	value := func(key string) string {
		if v := form.Value[key]; 0 < len(v) {
			return v[0]
		}
		return ""
	}

	manifest := map[upload.DataKind]bool{}
	if err := json.Unmarshal([]byte(value("dataTypes")), &manifest); err != nil {
		return apierr.BadRequest("dataTypes should be a JSON object", err)
	}
	if !upload.Manifest(manifest).Complete() {
		return apierr.BadRequest("images, labels and yaml are all required", nil)
	}
	parts, err := readParts(form)
	if err != nil {
		return err
	}

	s.mux.Lock()
	defer s.mux.Unlock()
	project, ok := s.projectByName(value("projectId"))
	if !ok {
		return apierr.NotFound("Project not found")
	}

	var d *dataset
	switch upload.DatasetType(value("datasetType")) {
	case upload.NewDataset:
		name := strings.TrimSpace(value("datasetName"))
		if name == "" {
			return apierr.BadRequest("datasetName is required", nil)
		}
		if _, ok := s.datasetByName(project.Name, name); ok {
			return apierr.BadRequest("Dataset with this name already exists", nil)
		}
		s.lastDatasetId += 1
		d = &dataset{id: s.lastDatasetId, name: name, project: project.Name}
		s.datasets = append(s.datasets, d)
	case upload.ExistingDataset:
		found, ok := s.datasetById(value("selectedDatasetId"))
		if !ok || found.project != project.Name {
			return apierr.NotFound("Dataset not found")
		}
		if strings.TrimSpace(value("updateDescription")) == "" {
			return apierr.BadRequest("updateDescription is required", nil)
		}
		d = found
	default:
		return apierr.BadRequest("datasetType should be new or existing", nil)
	}

	d.version += 1
	d.description = value("updateDescription")
	d.createdAt = s.timestamp()
	d.files = make([]stored, 0, len(parts))

	hash := sha1.New()
	stats := upload.Stats{}
	summary := upload.Summary{FilePaths: []string{}}
	for _, p := range parts {
		rel := p.name
		switch p.kind {
		case upload.Images:
			rel = path.Join("images", p.name)
			stats.Images += 1
		case upload.Labels:
			rel = path.Join("labels", p.name)
			stats.Labels += 1
		case upload.Yaml:
			stats.Yaml += 1
		}
		size := int64(len(p.content))
		full := path.Join(project.Path, d.name, versionName(d.version), rel)
		d.files = append(d.files, stored{
			file: datasets.File{
				Name:         p.name,
				Path:         full,
				RelativePath: rel,
				Type:         strings.TrimPrefix(path.Ext(p.name), "."),
				Size:         datasets.FormatSize(size),
				SizeBytes:    size,
			},
			content: p.content,
		})
		hash.Write(p.content)
		summary.TotalSize += size
		summary.FilePaths = append(summary.FilePaths, full)
	}
	sort.Slice(d.files, func(i, j int) bool { return d.files[i].file.Name < d.files[j].file.Name })

	summary.Message = "Dataset uploaded successfully"
	summary.Status = true
	summary.FileCount = len(parts)
	summary.CommitHash = fmt.Sprintf("%x", hash.Sum(nil))
	summary.CommitMessage = fmt.Sprintf("%s %s", d.name, versionName(d.version))
	summary.Timestamp = d.createdAt
	summary.Stats = stats
	summary.DatasetInfo = upload.DatasetInfo{
		Id:        d.id,
		Name:      d.name,
		Version:   versionName(d.version),
		ProjectId: project.Id,
	}
	return c.JSON(http.StatusOK, summary)
}
