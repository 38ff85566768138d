package training

import (
	"strings"
	"time"

	"github.com/opst/mlstudio/pkg/api/types/models"
)

type Status string

const (
	Started   Status = "started"
	Pending   Status = "pending"
	Running   Status = "running"
	Completed Status = "completed"
	Failed    Status = "failed"
)

// Terminal tells whether a run in this status will never change again.
func (s Status) Terminal() bool {
	switch Status(strings.ToLower(string(s))) {
	case Completed, Failed:
		return true
	default:
		return false
	}
}

// Glyph is a one-character mark for listings.
func (s Status) Glyph() string {
	switch Status(strings.ToLower(string(s))) {
	case Completed:
		return "✓"
	case Failed:
		return "✗"
	case Running, Started:
		return "🔄"
	default:
		return "○"
	}
}

// Hyperparameters to start a training run with.
type Hyperparameters struct {
	ModelArchitecture string  `json:"model_architecture" yaml:"model_architecture"`
	Epochs            int     `json:"epochs" yaml:"epochs"`
	BatchSize         int     `json:"batch_size" yaml:"batch_size"`
	LearningRate      float64 `json:"learning_rate" yaml:"learning_rate"`
	NumClasses        int     `json:"num_classes" yaml:"num_classes"`
	TrainSplit        int     `json:"train_split" yaml:"train_split"`
	ValidationSplit   int     `json:"validation_split" yaml:"validation_split"`
	TestSplit         int     `json:"test_split" yaml:"test_split"`
	Optimizer         string  `json:"optimizer" yaml:"optimizer"`
	LossFunction      string  `json:"loss_function" yaml:"loss_function"`
}

func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		ModelArchitecture: "YOLOv5",
		Epochs:            10,
		BatchSize:         32,
		LearningRate:      0.001,
		NumClasses:        10,
		TrainSplit:        70,
		ValidationSplit:   20,
		TestSplit:         10,
		Optimizer:         "Adam",
		LossFunction:      "CrossEntropy",
	}
}

// Request is a request body to start a training run.
type Request struct {
	ProjectId       int             `json:"project_id"`
	DatasetId       string          `json:"dataset_id"`
	Hyperparameters Hyperparameters `json:"hyperparameters"`
	ModelName       string          `json:"model_name"`
}

// StartedRun is a response for a request starting training.
type StartedRun struct {
	TrainingId string `json:"training_id"`
	ModelName  string `json:"model_name,omitempty"`
	Status     Status `json:"status"`
	Message    string `json:"message"`
}

// Progress is a snapshot of a training run being polled.
type Progress struct {
	Status         Status  `json:"status"`
	Progress       float64 `json:"progress"`
	Message        string  `json:"message,omitempty"`
	Error          string  `json:"error,omitempty"`
	ModelId        *int    `json:"model_id,omitempty"`
	ModelVersion   string  `json:"model_version,omitempty"`
	DatasetVersion string  `json:"dataset_version,omitempty"`
}

func (p *Progress) Equal(o *Progress) bool {
	if p == nil || o == nil {
		return p == nil && o == nil
	}
	sameModel := (p.ModelId == nil && o.ModelId == nil) ||
		(p.ModelId != nil && o.ModelId != nil && *p.ModelId == *o.ModelId)
	return sameModel &&
		p.Status == o.Status &&
		p.Progress == o.Progress &&
		p.Message == o.Message &&
		p.Error == o.Error &&
		p.ModelVersion == o.ModelVersion &&
		p.DatasetVersion == o.DatasetVersion
}

// Run is a training run recorded by the server.
type Run struct {
	Id             int               `json:"id"`
	JobId          string            `json:"job_id,omitempty"`
	ProjectId      int               `json:"project_id"`
	ModelId        *int              `json:"model_id,omitempty"`
	DatasetId      *int              `json:"dataset_id,omitempty"`
	InputDatasets  any               `json:"input_datasets,omitempty"`
	TrainingReason string            `json:"training_reason,omitempty"`
	Parameters     models.Parameters `json:"parameters"`
	Metrics        models.Metrics    `json:"metrics"`
	Status         Status            `json:"status"`
	CreatedBy      string            `json:"created_by,omitempty"`
	StartedAt      string            `json:"started_at,omitempty"`
	CompletedAt    string            `json:"completed_at,omitempty"`
	ProjectName    string            `json:"project_name,omitempty"`
	DatasetName    string            `json:"dataset_name,omitempty"`
	DatasetVersion string            `json:"dataset_version,omitempty"`
	ModelName      string            `json:"model_name,omitempty"`
	ModelVersion   string            `json:"model_version,omitempty"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp reads timestamps in formats the server emits.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Duration of the run.
//
// Running runs are measured until now. ok is false if started_at is unknown.
func (r *Run) Duration(now time.Time) (time.Duration, bool) {
	start, ok := ParseTimestamp(r.StartedAt)
	if !ok {
		return 0, false
	}
	end := now
	if r.CompletedAt != "" {
		if e, ok := ParseTimestamp(r.CompletedAt); ok {
			end = e
		}
	}
	return end.Sub(start), true
}

type Runs struct {
	TrainingRuns []Run `json:"training_runs"`
}
