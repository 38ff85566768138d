package training

import (
	"context"
	"log"
	"sync"

	apitraining "github.com/opst/mlstudio/pkg/api/types/training"
)

// Run is a training run being tracked.
type Run struct {
	TrainingId string
	ModelName  string
	Progress   apitraining.Progress

	// Err is the error of the last status request, if it failed.
	Err error
}

// Snapshot is the state of tracked runs at a moment.
//
// Runs move from Active to Finished when they settle. Snapshots are not shared with the tracker.
type Snapshot struct {
	Active   []Run
	Finished []Run
}

func (s Snapshot) copy() Snapshot {
	return Snapshot{
		Active:   append([]Run{}, s.Active...),
		Finished: append([]Run{}, s.Finished...),
	}
}

// Tracker polls many training runs at once.
//
// Each run is polled by its own goroutine, and only the goroutine calling Track updates runs.
type Tracker struct {
	poller *Poller
	logger *log.Logger
}

func NewTracker(poller *Poller, logger *log.Logger) *Tracker {
	return &Tracker{poller: poller, logger: logger}
}

// Track polls runs until all of them settle or ctx is cancelled.
//
// onChange is called with a new snapshot after each update, from the goroutine calling Track.
// It is never called after Track returns.
//
// # Returns
//
// - Snapshot: the last snapshot.
//
// - error: ctx.Err() if ctx is cancelled before all runs settle.
func (t *Tracker) Track(ctx context.Context, runs []apitraining.StartedRun, onChange func(Snapshot)) (Snapshot, error) {
	if onChange == nil {
		onChange = func(Snapshot) {}
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	current := Snapshot{Active: []Run{}, Finished: []Run{}}
	for _, r := range runs {
		current.Active = append(current.Active, Run{
			TrainingId: r.TrainingId,
			ModelName:  r.ModelName,
			Progress:   apitraining.Progress{Status: r.Status},
		})
	}

	updates := make(chan Update)
	send := func(u Update) {
		select {
		case updates <- u:
		case <-ctx.Done():
		}
	}

	wg := new(sync.WaitGroup)
	for _, r := range runs {
		wg.Add(1)
		go func(trainingId string) {
			defer wg.Done()
			// the settled status has been sent as an update already.
			t.poller.Poll(ctx, trainingId, send)
		}(r.TrainingId)
	}
	allDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(allDone)
	}()

	for {
		select {
		case <-ctx.Done():
			<-allDone
			return current.copy(), ctx.Err()
		case <-allDone:
			return current.copy(), nil
		case u := <-updates:
			if ctx.Err() != nil {
				continue
			}
			current = t.apply(current, u)
			onChange(current.copy())
		}
	}
}

// apply returns a new snapshot with the update. Slices in the old snapshot are not modified.
func (t *Tracker) apply(s Snapshot, u Update) Snapshot {
	next := Snapshot{Active: make([]Run, 0, len(s.Active)), Finished: s.Finished}
	for _, r := range s.Active {
		if r.TrainingId != u.TrainingId {
			next.Active = append(next.Active, r)
			continue
		}
		if u.Err != nil {
			r.Err = u.Err
			next.Active = append(next.Active, r)
			continue
		}
		if u.Progress.Progress < r.Progress.Progress {
			t.logger.Printf(
				"warning: progress of training %s went back: %.1f -> %.1f",
				u.TrainingId, r.Progress.Progress, u.Progress.Progress,
			)
		}
		r.Progress = u.Progress
		r.Err = nil
		if u.Progress.Status.Terminal() {
			next.Finished = append(append([]Run{}, s.Finished...), r)
			continue
		}
		next.Active = append(next.Active, r)
	}
	return next
}
