package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/opst/mlstudio/pkg/api/types/models"
)

func (c *client) ListModels(ctx context.Context, projectId *int) ([]models.Detail, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil, "models")
	if err != nil {
		return nil, err
	}
	if projectId != nil {
		q := req.URL.Query()
		q.Set("project_id", strconv.Itoa(*projectId))
		req.URL.RawQuery = q.Encode()
	}

	res := models.List{}
	if err := c.do(req, func(resp *http.Response) error {
		return unmarshalJsonResponse(resp, &res, requestFailed("listing models", resp.StatusCode))
	}); err != nil {
		return nil, err
	}
	if res.Models == nil {
		return []models.Detail{}, nil
	}
	return res.Models, nil
}

func (c *client) GetModel(ctx context.Context, id int) (models.Detail, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil, "models", strconv.Itoa(id))
	if err != nil {
		return models.Detail{}, err
	}

	res := models.Single{}
	if err := c.do(req, func(resp *http.Response) error {
		return unmarshalJsonResponse(resp, &res, requestFailed("getting model", resp.StatusCode))
	}); err != nil {
		return models.Detail{}, err
	}
	return res.Model, nil
}
