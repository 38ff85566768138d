package training

import (
	"context"
	"log"
	"time"

	"github.com/opst/mlstudio/cmd/mlstudio/rest"
	apitraining "github.com/opst/mlstudio/pkg/api/types/training"
	"github.com/opst/mlstudio/pkg/loop"
)

// DefaultInterval is the interval between status requests.
const DefaultInterval = 2 * time.Second

// Update is a result of a status request.
type Update struct {
	TrainingId string

	// Progress is the last status received. When Err is not nil, it is the one before the failed request.
	Progress apitraining.Progress

	// Err is the error of the status request, if any. Polling goes on after errors.
	Err error
}

// Poller requests training status at a fixed interval until the run settles.
//
// There is no backoff and no limit of retries.
type Poller struct {
	client   rest.MLStudioClient
	logger   *log.Logger
	interval time.Duration
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		p.interval = d
	}
}

func NewPoller(client rest.MLStudioClient, logger *log.Logger, options ...Option) *Poller {
	p := &Poller{client: client, logger: logger, interval: DefaultInterval}
	for _, o := range options {
		o(p)
	}
	return p
}

func (p *Poller) Interval() time.Duration {
	return p.interval
}

type pollState struct {
	progress apitraining.Progress
	waited   bool
}

// Poll requests the status of the training run every interval, starting after the first interval.
//
// It stops at the first status which is completed or failed, and returns that.
// onUpdate is called for each request, in the caller's order, and never after Poll returns.
//
// # Returns
//
// - apitraining.Progress: the last status received.
//
// - error: ctx.Err() when ctx is cancelled before the run settles.
func (p *Poller) Poll(ctx context.Context, trainingId string, onUpdate func(Update)) (apitraining.Progress, error) {
	if onUpdate == nil {
		onUpdate = func(Update) {}
	}
	last, err := loop.Start(
		ctx, pollState{},
		func(ctx context.Context, s pollState) (pollState, loop.Next) {
			if !s.waited {
				return pollState{progress: s.progress, waited: true}, loop.Continue(p.interval)
			}

			prog, err := p.client.GetTrainingStatus(ctx, trainingId)
			if ctx.Err() != nil {
				return s, loop.Break(ctx.Err())
			}
			if err != nil {
				p.logger.Printf("failed to get status of training %s: %s", trainingId, err)
				onUpdate(Update{TrainingId: trainingId, Progress: s.progress, Err: err})
				return s, loop.Continue(p.interval)
			}

			onUpdate(Update{TrainingId: trainingId, Progress: prog})
			next := pollState{progress: prog, waited: true}
			if prog.Status.Terminal() {
				return next, loop.Break(nil)
			}
			return next, loop.Continue(p.interval)
		},
	)
	return last.progress, err
}
