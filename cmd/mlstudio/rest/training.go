package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/opst/mlstudio/pkg/api/types/training"
	"github.com/opst/mlstudio/pkg/split"
)

func (c *client) StartTraining(ctx context.Context, tr training.Request) (training.StartedRun, error) {
	hp := tr.Hyperparameters
	s := split.Split{Train: hp.TrainSplit, Validation: hp.ValidationSplit, Test: hp.TestSplit}
	if err := s.Verify(); err != nil {
		return training.StartedRun{}, err
	}

	body, err := json.Marshal(tr)
	if err != nil {
		return training.StartedRun{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, bytes.NewReader(body), "training", "start")
	if err != nil {
		return training.StartedRun{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res := training.StartedRun{}
	if err := c.do(req, func(resp *http.Response) error {
		return unmarshalJsonResponse(resp, &res, requestFailed("starting training", resp.StatusCode))
	}); err != nil {
		return training.StartedRun{}, err
	}
	if res.ModelName == "" {
		res.ModelName = tr.ModelName
	}
	return res, nil
}

func (c *client) GetTrainingStatus(ctx context.Context, trainingId string) (training.Progress, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil, "training", url.PathEscape(trainingId), "status")
	if err != nil {
		return training.Progress{}, err
	}

	res := training.Progress{}
	if err := c.do(req, func(resp *http.Response) error {
		return unmarshalJsonResponse(resp, &res, requestFailed("getting training status", resp.StatusCode))
	}); err != nil {
		return training.Progress{}, err
	}
	return res, nil
}

func (c *client) ListTrainingRuns(ctx context.Context) ([]training.Run, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil, "training", "runs")
	if err != nil {
		return nil, err
	}

	res := training.Runs{}
	if err := c.do(req, func(resp *http.Response) error {
		return unmarshalJsonResponse(resp, &res, requestFailed("listing training runs", resp.StatusCode))
	}); err != nil {
		return nil, err
	}
	if res.TrainingRuns == nil {
		return []training.Run{}, nil
	}
	return res.TrainingRuns, nil
}
