package upload

import "encoding/json"

// DatasetType tells whether an upload creates a new dataset or versions an existing one.
type DatasetType string

const (
	NewDataset      DatasetType = "new"
	ExistingDataset DatasetType = "existing"
)

// DataKind is a category of files in an upload.
type DataKind string

const (
	Images DataKind = "images"
	Labels DataKind = "labels"
	Yaml   DataKind = "yaml"
)

// Kinds are all data kinds, in the order they are sent.
var Kinds = []DataKind{Images, Labels, Yaml}

// Manifest marks which data kinds an upload carries.
type Manifest map[DataKind]bool

// FullManifest marks every kind as required.
func FullManifest() Manifest {
	m := Manifest{}
	for _, k := range Kinds {
		m[k] = true
	}
	return m
}

// Complete tells whether every data kind is marked.
func (m Manifest) Complete() bool {
	for _, k := range Kinds {
		if !m[k] {
			return false
		}
	}
	return true
}

// MarshalJSON writes the manifest with all kinds present, like {"images":true,"labels":true,"yaml":true}.
func (m Manifest) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Images bool `json:"images"`
		Labels bool `json:"labels"`
		Yaml   bool `json:"yaml"`
	}{Images: m[Images], Labels: m[Labels], Yaml: m[Yaml]})
}

// Stats counts uploaded files per kind.
type Stats struct {
	Images int `json:"images"`
	Labels int `json:"labels"`
	Yaml   int `json:"yaml"`
}

// DatasetInfo identifies the dataset version created by an upload.
type DatasetInfo struct {
	Id        int    `json:"id"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	ProjectId int    `json:"projectId"`
}

// Summary is a response for a successful upload.
type Summary struct {
	Message       string      `json:"message"`
	Status        bool        `json:"status"`
	FileCount     int         `json:"fileCount"`
	TotalSize     int64       `json:"totalSize"`
	FilePaths     []string    `json:"filePaths"`
	CommitHash    string      `json:"commitHash"`
	CommitMessage string      `json:"commitMessage"`
	Timestamp     string      `json:"timestamp"`
	Stats         Stats       `json:"stats"`
	DatasetInfo   DatasetInfo `json:"datasetInfo"`
}

// Request is a dataset upload to be sent as multipart form.
type Request struct {
	// ProjectName is the name of the project which the dataset belongs to.
	ProjectName string

	DatasetType DatasetType

	// DatasetName names a new dataset. Used when DatasetType is NewDataset.
	DatasetName string

	// SelectedDatasetId is the id of the dataset to be versioned. Used when DatasetType is ExistingDataset.
	SelectedDatasetId string

	// UpdateDescription is why the existing dataset is updated.
	UpdateDescription string

	DataTypes Manifest

	// Files are paths of local files to be sent, per kind.
	//
	// Only the first Yaml file is sent.
	Files map[DataKind][]string
}
