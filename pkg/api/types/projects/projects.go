package projects

import (
	"errors"
	"strings"
)

var ErrEmptyName = errors.New("project name is required")

// Detail is a project as the server returns it.
type Detail struct {
	Id          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Path        string `json:"path"`
	Status      string `json:"status,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

func (d *Detail) Equal(o *Detail) bool {
	if d == nil || o == nil {
		return d == nil && o == nil
	}
	return *d == *o
}

// Spec is a request body to create a new project.
type Spec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Path        string `json:"path"`
	CreatedBy   string `json:"created_by"`
}

// Verify returns ErrEmptyName when the name is blank.
func (s Spec) Verify() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Change is a request body to update a project.
//
// Nil fields are left untouched.
type Change struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Path        *string `json:"path,omitempty"`
	Status      *string `json:"status,omitempty"`
}

func (c Change) IsEmpty() bool {
	return c.Name == nil && c.Description == nil && c.Path == nil && c.Status == nil
}

type Created struct {
	Message string `json:"message"`
	Project Detail `json:"project"`
	Status  bool   `json:"status"`
}

type Updated struct {
	Message string `json:"message"`
	Project Detail `json:"project"`
}

type List struct {
	Projects []Detail `json:"projects"`
}

type Single struct {
	Project Detail `json:"project"`
}
