package training_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/opst/mlstudio/cmd/mlstudio/rest/mock"
	"github.com/opst/mlstudio/cmd/mlstudio/subcommands/logger"
	"github.com/opst/mlstudio/cmd/mlstudio/workflow/training"
	apitraining "github.com/opst/mlstudio/pkg/api/types/training"
	"github.com/opst/mlstudio/pkg/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type response struct {
	progress apitraining.Progress
	err      error
}

// scripted returns responses in order per training id. The last one repeats.
func scripted(script map[string][]response) func(context.Context, string) (apitraining.Progress, error) {
	mux := new(sync.Mutex)
	count := map[string]int{}
	return func(ctx context.Context, trainingId string) (apitraining.Progress, error) {
		mux.Lock()
		defer mux.Unlock()
		rs := script[trainingId]
		n := min(count[trainingId], len(rs)-1)
		count[trainingId] += 1
		return rs[n].progress, rs[n].err
	}
}

func status(s apitraining.Status, progress float64) response {
	return response{progress: apitraining.Progress{Status: s, Progress: progress}}
}

func TestPoll(t *testing.T) {
	t.Run("it stops at the first terminal status", func(t *testing.T) {
		for _, terminal := range []apitraining.Status{apitraining.Completed, apitraining.Failed} {
			t.Run(string(terminal), func(t *testing.T) {
				client := mock.New(t)
				client.Impl.GetTrainingStatus = scripted(map[string][]response{
					"train_1": {
						status(apitraining.Running, 10),
						status(apitraining.Running, 50),
						status(terminal, 100),
						status(apitraining.Running, 0),
					},
				})
				testee := training.NewPoller(client, logger.Null(), training.WithInterval(time.Millisecond))

				updates := []apitraining.Status{}
				last, err := testee.Poll(context.Background(), "train_1", func(u training.Update) {
					updates = append(updates, u.Progress.Status)
				})
				if err != nil {
					t.Fatal(err)
				}
				if last.Status != terminal {
					t.Errorf("last status: %s", last.Status)
				}
				expected := []apitraining.Status{apitraining.Running, apitraining.Running, terminal}
				if !cmp.SliceEq(updates, expected) {
					t.Errorf("updates: %v", updates)
				}
				if calls := client.GetTrainingStatusCalls(); len(calls) != 3 {
					t.Errorf("requested %d times", len(calls))
				}
			})
		}
	})

	t.Run("errors do not stop polling", func(t *testing.T) {
		client := mock.New(t)
		notFound := errors.New("Training job not found")
		client.Impl.GetTrainingStatus = scripted(map[string][]response{
			"train_1": {
				{err: notFound},
				status(apitraining.Running, 10),
				{err: errors.New("connection refused")},
				status(apitraining.Completed, 100),
			},
		})
		testee := training.NewPoller(client, logger.Null(), training.WithInterval(time.Millisecond))

		updates := []training.Update{}
		last, err := testee.Poll(context.Background(), "train_1", func(u training.Update) {
			updates = append(updates, u)
		})
		if err != nil {
			t.Fatal(err)
		}
		if last.Status != apitraining.Completed {
			t.Errorf("last status: %s", last.Status)
		}
		if len(updates) != 4 {
			t.Fatalf("updates: %+v", updates)
		}
		if !errors.Is(updates[0].Err, notFound) {
			t.Errorf("first update: %+v", updates[0])
		}
		if updates[2].Err == nil || updates[2].Progress.Progress != 10 {
			t.Errorf("failed poll should carry the last progress: %+v", updates[2])
		}
	})

	t.Run("it waits an interval before each request", func(t *testing.T) {
		client := mock.New(t)
		client.Impl.GetTrainingStatus = scripted(map[string][]response{
			"train_1": {status(apitraining.Running, 10), status(apitraining.Completed, 100)},
		})
		interval := 30 * time.Millisecond
		testee := training.NewPoller(client, logger.Null(), training.WithInterval(interval))

		begin := time.Now()
		if _, err := testee.Poll(context.Background(), "train_1", nil); err != nil {
			t.Fatal(err)
		}
		if elapsed := time.Since(begin); elapsed < 2*interval {
			t.Errorf("too fast: %s", elapsed)
		}
	})

	t.Run("no updates after cancel", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		client := mock.New(t)
		client.Impl.GetTrainingStatus = scripted(map[string][]response{
			"train_1": {status(apitraining.Running, 10)},
		})
		testee := training.NewPoller(client, logger.Null(), training.WithInterval(time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		mux := new(sync.Mutex)
		count := 0
		cancelled := false
		_, err := testee.Poll(ctx, "train_1", func(u training.Update) {
			mux.Lock()
			defer mux.Unlock()
			if cancelled {
				t.Error("update after cancel")
			}
			count += 1
			if count == 3 {
				cancel()
				cancelled = true
			}
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
		if count != 3 {
			t.Errorf("updates: %d", count)
		}
	})
}

func TestTracker(t *testing.T) {
	t.Run("runs move to finished when they settle", func(t *testing.T) {
		client := mock.New(t)
		client.Impl.GetTrainingStatus = scripted(map[string][]response{
			"train_1": {
				status(apitraining.Running, 10),
				status(apitraining.Completed, 100),
			},
			"train_2": {
				status(apitraining.Running, 10),
				status(apitraining.Running, 40),
				status(apitraining.Running, 80),
				status(apitraining.Failed, 80),
			},
		})
		poller := training.NewPoller(client, logger.Null(), training.WithInterval(time.Millisecond))
		testee := training.NewTracker(poller, logger.Null())

		snapshots := []training.Snapshot{}
		last, err := testee.Track(
			context.Background(),
			[]apitraining.StartedRun{
				{TrainingId: "train_1", ModelName: "model_a", Status: apitraining.Started},
				{TrainingId: "train_2", ModelName: "model_b", Status: apitraining.Started},
			},
			func(s training.Snapshot) { snapshots = append(snapshots, s) },
		)
		if err != nil {
			t.Fatal(err)
		}

		if len(last.Active) != 0 || len(last.Finished) != 2 {
			t.Fatalf("last snapshot: %+v", last)
		}
		finished := map[string]training.Run{}
		for _, r := range last.Finished {
			finished[r.TrainingId] = r
		}
		if r := finished["train_1"]; r.Progress.Status != apitraining.Completed || r.ModelName != "model_a" {
			t.Errorf("train_1: %+v", r)
		}
		if r := finished["train_2"]; r.Progress.Status != apitraining.Failed || r.ModelName != "model_b" {
			t.Errorf("train_2: %+v", r)
		}

		// 2 updates for train_1 and 4 for train_2
		if len(snapshots) != 6 {
			t.Errorf("snapshots: %d", len(snapshots))
		}
		for _, s := range snapshots {
			if len(s.Active)+len(s.Finished) != 2 {
				t.Errorf("a run is lost or duplicated: %+v", s)
			}
			for _, r := range s.Active {
				if r.Progress.Status.Terminal() {
					t.Errorf("settled run is active: %+v", r)
				}
			}
		}
	})

	t.Run("snapshots are not modified later", func(t *testing.T) {
		client := mock.New(t)
		client.Impl.GetTrainingStatus = scripted(map[string][]response{
			"train_1": {status(apitraining.Running, 10), status(apitraining.Running, 20), status(apitraining.Completed, 100)},
		})
		poller := training.NewPoller(client, logger.Null(), training.WithInterval(time.Millisecond))
		testee := training.NewTracker(poller, logger.Null())

		first := training.Snapshot{}
		taken := false
		testee.Track(
			context.Background(),
			[]apitraining.StartedRun{{TrainingId: "train_1"}},
			func(s training.Snapshot) {
				if !taken {
					first = s
					taken = true
				}
			},
		)
		if len(first.Active) != 1 || first.Active[0].Progress.Progress != 10 {
			t.Errorf("first snapshot is modified: %+v", first)
		}
	})

	t.Run("progress going back is kept with a warning", func(t *testing.T) {
		client := mock.New(t)
		client.Impl.GetTrainingStatus = scripted(map[string][]response{
			"train_1": {status(apitraining.Running, 60), status(apitraining.Running, 30), status(apitraining.Completed, 100)},
		})
		poller := training.NewPoller(client, logger.Null(), training.WithInterval(time.Millisecond))
		logs := new(bytes.Buffer)
		testee := training.NewTracker(poller, log.New(logs, "", 0))

		seen := []float64{}
		_, err := testee.Track(
			context.Background(),
			[]apitraining.StartedRun{{TrainingId: "train_1"}},
			func(s training.Snapshot) {
				for _, r := range append(s.Active, s.Finished...) {
					seen = append(seen, r.Progress.Progress)
				}
			},
		)
		if err != nil {
			t.Fatal(err)
		}
		if !cmp.SliceEq(seen, []float64{60, 30, 100}) {
			t.Errorf("unexpected progress: %v", seen)
		}
		if !strings.Contains(logs.String(), "went back") {
			t.Errorf("no warning: %s", logs.String())
		}
	})

	t.Run("cancel stops all pollers", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		client := mock.New(t)
		client.Impl.GetTrainingStatus = scripted(map[string][]response{
			"train_1": {status(apitraining.Running, 10)},
			"train_2": {status(apitraining.Running, 20)},
		})
		poller := training.NewPoller(client, logger.Null(), training.WithInterval(time.Millisecond))
		testee := training.NewTracker(poller, logger.Null())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		returned := false
		count := 0
		snapshot, err := testee.Track(
			ctx,
			[]apitraining.StartedRun{{TrainingId: "train_1"}, {TrainingId: "train_2"}},
			func(s training.Snapshot) {
				if returned {
					t.Error("onChange after Track returns")
				}
				count += 1
				if count == 5 {
					cancel()
				}
			},
		)
		returned = true
		if !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
		if len(snapshot.Active) != 2 {
			t.Errorf("snapshot: %+v", snapshot)
		}
		if count != 5 {
			t.Errorf("onChange is called %d times", count)
		}
	})
}
