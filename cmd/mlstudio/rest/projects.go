package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/opst/mlstudio/pkg/api/types/projects"
)

func (c *client) ListProjects(ctx context.Context) ([]projects.Detail, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil, "projects")
	if err != nil {
		return nil, err
	}

	res := projects.List{}
	if err := c.do(req, func(resp *http.Response) error {
		return unmarshalJsonResponse(resp, &res, requestFailed("listing projects", resp.StatusCode))
	}); err != nil {
		return nil, err
	}
	if res.Projects == nil {
		return []projects.Detail{}, nil
	}
	return res.Projects, nil
}

func (c *client) CreateProject(ctx context.Context, spec projects.Spec) (projects.Detail, error) {
	if err := spec.Verify(); err != nil {
		return projects.Detail{}, err
	}

	body, err := json.Marshal(spec)
	if err != nil {
		return projects.Detail{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, bytes.NewReader(body), "projects")
	if err != nil {
		return projects.Detail{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res := projects.Created{}
	if err := c.do(req, func(resp *http.Response) error {
		return unmarshalJsonResponse(resp, &res, requestFailed("creating project", resp.StatusCode))
	}); err != nil {
		return projects.Detail{}, err
	}
	return res.Project, nil
}

func (c *client) GetProject(ctx context.Context, id int) (projects.Detail, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil, "projects", strconv.Itoa(id))
	if err != nil {
		return projects.Detail{}, err
	}

	res := projects.Single{}
	if err := c.do(req, func(resp *http.Response) error {
		return unmarshalJsonResponse(resp, &res, requestFailed("getting project", resp.StatusCode))
	}); err != nil {
		return projects.Detail{}, err
	}
	return res.Project, nil
}

func (c *client) UpdateProject(ctx context.Context, id int, change projects.Change) (projects.Detail, error) {
	body, err := json.Marshal(change)
	if err != nil {
		return projects.Detail{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPut, bytes.NewReader(body), "projects", strconv.Itoa(id))
	if err != nil {
		return projects.Detail{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res := projects.Updated{}
	if err := c.do(req, func(resp *http.Response) error {
		return unmarshalJsonResponse(resp, &res, requestFailed("updating project", resp.StatusCode))
	}); err != nil {
		return projects.Detail{}, err
	}
	return res.Project, nil
}

func (c *client) DeleteProject(ctx context.Context, id int) error {
	req, err := c.newRequest(ctx, http.MethodDelete, nil, "projects", strconv.Itoa(id))
	if err != nil {
		return err
	}
	return c.do(req, func(resp *http.Response) error {
		return checkStatus(resp, requestFailed("deleting project", resp.StatusCode))
	})
}
