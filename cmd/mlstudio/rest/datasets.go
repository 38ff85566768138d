package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/opst/mlstudio/pkg/api/types/datasets"
)

func (c *client) ListAllDatasets(ctx context.Context) ([]datasets.Summary, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil, "datasets")
	if err != nil {
		return nil, err
	}
	return c.listDatasets(req)
}

func (c *client) ListDatasets(ctx context.Context, projectName string) ([]datasets.Summary, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil, "datasets", "project", url.PathEscape(projectName))
	if err != nil {
		return nil, err
	}
	return c.listDatasets(req)
}

func (c *client) listDatasets(req *http.Request) ([]datasets.Summary, error) {
	res := datasets.List{}
	if err := c.do(req, func(resp *http.Response) error {
		return unmarshalJsonResponse(resp, &res, requestFailed("listing datasets", resp.StatusCode))
	}); err != nil {
		return nil, err
	}
	if res.Datasets == nil {
		return []datasets.Summary{}, nil
	}
	return res.Datasets, nil
}

func (c *client) GetDatasetDetail(ctx context.Context, projectName string, datasetName string) (datasets.DetailWithFiles, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil, "datasets", url.PathEscape(datasetName), "details")
	if err != nil {
		return datasets.DetailWithFiles{}, err
	}
	q := req.URL.Query()
	q.Set("project", projectName)
	req.URL.RawQuery = q.Encode()

	res := datasets.DetailWithFiles{}
	if err := c.do(req, func(resp *http.Response) error {
		return unmarshalJsonResponse(
			resp, &res,
			requestFailed(fmt.Sprintf("getting dataset %s", datasetName), resp.StatusCode),
		)
	}); err != nil {
		return datasets.DetailWithFiles{}, err
	}
	if res.Files == nil {
		res.Files = []datasets.File{}
	}
	return res, nil
}

func (c *client) NextDatasetVersion(ctx context.Context, datasetId string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, nil, "datasets", url.PathEscape(datasetId), "versions")
	if err != nil {
		return "", err
	}

	res := datasets.Versions{}
	if err := c.do(req, func(resp *http.Response) error {
		return unmarshalJsonResponse(resp, &res, requestFailed("getting dataset version", resp.StatusCode))
	}); err != nil {
		return "", err
	}
	if len(res.Versions) == 0 {
		return "", fmt.Errorf("no versions are returned for dataset %s", datasetId)
	}
	return res.Versions[0].VersionId, nil
}
