package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Metrics is a free-form set of evaluation values of a model or a training run.
//
// It decodes from both a JSON object and a JSON string holding an object.
// Unparsable payloads decode to empty Metrics without error.
type Metrics map[string]any

func (m *Metrics) UnmarshalJSON(b []byte) error {
	*m = decodeLoose(b)
	return nil
}

func (m Metrics) value(key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return number(v)
}

// Accuracy in [0, 1]. Missing accuracy is 0.
func (m Metrics) Accuracy() float64 {
	v, _ := m.value("accuracy")
	return v
}

// Loss. Missing loss is 0.
func (m Metrics) Loss() float64 {
	v, _ := m.value("loss")
	return v
}

// Epochs completed by training.
//
// "epochs_completed" is preferred, then "final_epochs". Missing or zero yields 0.
func (m Metrics) Epochs() int {
	if v, ok := m.value("epochs_completed"); ok && v != 0 {
		return int(v)
	}
	if v, ok := m.value("final_epochs"); ok {
		return int(v)
	}
	return 0
}

// FormatAccuracy renders accuracy as percentage with 2 decimals, like "87.00%".
func (m Metrics) FormatAccuracy() string {
	return fmt.Sprintf("%.2f%%", m.Accuracy()*100)
}

// FormatLoss renders loss with 4 decimals, like "0.2300".
func (m Metrics) FormatLoss() string {
	return fmt.Sprintf("%.4f", m.Loss())
}

// Parameters are hyperparameters which a model was trained with.
//
// Decoding rules are same as Metrics.
type Parameters map[string]any

func (p *Parameters) UnmarshalJSON(b []byte) error {
	*p = decodeLoose(b)
	return nil
}

// Keys returns parameter names in lexical order.
func (p Parameters) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the parameter as a display string.
func (p Parameters) Get(key string) string {
	return text(p[key])
}

func (p Parameters) int(key string, fallback int) int {
	if v, ok := number(p[key]); ok && v != 0 {
		return int(v)
	}
	return fallback
}

// Split returns the train/validation/test percentages recorded in parameters.
//
// Each missing value falls back to 70/20/10 respectively.
// ok is false when none of them are recorded.
func (p Parameters) Split() (train, validation, test int, ok bool) {
	_, hasTrain := p["train_split"]
	_, hasVal := p["validation_split"]
	_, hasTest := p["test_split"]
	return p.int("train_split", 70),
		p.int("validation_split", 20),
		p.int("test_split", 10),
		hasTrain || hasVal || hasTest
}

// Detail is a trained model.
type Detail struct {
	Id          int        `json:"id"`
	ProjectId   int        `json:"project_id"`
	DatasetId   *int       `json:"dataset_id,omitempty"`
	Name        string     `json:"name"`
	Version     string     `json:"version"`
	Description string     `json:"description,omitempty"`
	ModelPath   string     `json:"model_path,omitempty"`
	Framework   string     `json:"framework,omitempty"`
	Parameters  Parameters `json:"parameters"`
	Metrics     Metrics    `json:"metrics"`
	CommitHash  string     `json:"commit_hash,omitempty"`
	Tags        Tags       `json:"tags,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   string     `json:"created_at,omitempty"`
	ProjectName string     `json:"project_name,omitempty"`
}

// Tags decodes from a JSON array of strings, or a JSON string holding such array.
type Tags []string

func (t *Tags) UnmarshalJSON(b []byte) error {
	var arr []string
	if err := json.Unmarshal(b, &arr); err == nil {
		*t = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if err := json.Unmarshal([]byte(s), &arr); err == nil {
			*t = arr
			return nil
		}
		if s != "" {
			*t = Tags{s}
			return nil
		}
	}
	*t = Tags{}
	return nil
}

type List struct {
	Models []Detail `json:"models"`
}

type Single struct {
	Model Detail `json:"model"`
}
