package datasets

import (
	"fmt"
	"path"
	"strings"
)

// Summary is a dataset as listed in a project.
type Summary struct {
	// Id is formatted as "dataset_<n>".
	Id          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	FileCount   int    `json:"fileCount"`
	LastUpdated string `json:"lastUpdated"`
	Description string `json:"description"`
	ProjectName string `json:"project_name,omitempty"`
}

func (s *Summary) Equal(o *Summary) bool {
	if s == nil || o == nil {
		return s == nil && o == nil
	}
	return *s == *o
}

type List struct {
	Datasets []Summary `json:"datasets"`
}

// Detail is the metadata of the latest version of a dataset.
type Detail struct {
	Id        int    `json:"id"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	FileCount int    `json:"file_count"`
	CreatedAt string `json:"created_at"`
	BasePath  string `json:"base_path"`
}

// File is an entry of a dataset, ordered by name.
type File struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	RelativePath string `json:"relative_path"`
	Type         string `json:"type"`
	Size         string `json:"size"`
	SizeBytes    int64  `json:"size_bytes"`
}

func (f File) Category() Category {
	return CategoryOf(f.Name)
}

type DetailWithFiles struct {
	Dataset Detail `json:"dataset"`
	Files   []File `json:"files"`
}

func (d *DetailWithFiles) Equal(o *DetailWithFiles) bool {
	if d.Dataset != o.Dataset || len(d.Files) != len(o.Files) {
		return false
	}
	for n := range d.Files {
		if d.Files[n] != o.Files[n] {
			return false
		}
	}
	return true
}

// Filter returns files belonging to the category, keeping their order.
func (d *DetailWithFiles) Filter(c Category) []File {
	ret := []File{}
	for _, f := range d.Files {
		if c.Contains(f.Name) {
			ret = append(ret, f)
		}
	}
	return ret
}

type Version struct {
	VersionId string `json:"version_id"`
}

type Versions struct {
	Versions []Version `json:"versions"`
}

// Category is a group of file extensions used to filter dataset files.
type Category string

const (
	All    Category = "all"
	Images Category = "images"
	Text   Category = "text"
	Json   Category = "json"
	Other  Category = "other"
)

var extensions = map[Category][]string{
	Images: {"jpg", "jpeg", "png", "gif", "webp"},
	Text:   {"txt", "csv", "md", "json"},
	Json:   {"json"},
}

func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case "", All:
		return All, nil
	case Images, Text, Json:
		return c, nil
	default:
		return "", fmt.Errorf("unknown file category: %s (all|images|text|json)", s)
	}
}

func extOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

// Contains tells whether the file name belongs to the category.
//
// A file can belong to more than one category: "a.json" is both Text and Json.
func (c Category) Contains(name string) bool {
	if c == All {
		return true
	}
	ext := extOf(name)
	for _, e := range extensions[c] {
		if e == ext {
			return true
		}
	}
	return false
}

// CategoryOf returns the most specific category for the file name.
func CategoryOf(name string) Category {
	for _, c := range []Category{Images, Json, Text} {
		if c.Contains(name) {
			return c
		}
	}
	return Other
}

// FormatSize renders a byte count as "x.xx KB" below 1 MiB, otherwise "x.xx MB".
func FormatSize(bytes int64) string {
	if bytes < 1024*1024 {
		return fmt.Sprintf("%.2f KB", float64(bytes)/1024)
	}
	return fmt.Sprintf("%.2f MB", float64(bytes)/(1024*1024))
}
