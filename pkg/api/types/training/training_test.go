package training_test

import (
	"testing"
	"time"

	"github.com/opst/mlstudio/pkg/api/types/training"
)

func TestStatus(t *testing.T) {
	for status, terminal := range map[training.Status]bool{
		training.Started:   false,
		training.Pending:   false,
		training.Running:   false,
		training.Completed: true,
		training.Failed:    true,
		"COMPLETED":        true,
		"unknown":          false,
	} {
		if actual := status.Terminal(); actual != terminal {
			t.Errorf("%s.Terminal() = %v", status, actual)
		}
	}
}

func TestRunDuration(t *testing.T) {
	now := time.Date(2025, 1, 2, 12, 0, 0, 0, time.Local)

	t.Run("completed run is measured until completed_at", func(t *testing.T) {
		run := training.Run{
			StartedAt:   "2025-01-02T10:00:00",
			CompletedAt: "2025-01-02T10:30:00.123456",
		}
		d, ok := run.Duration(now)
		if !ok {
			t.Fatal("duration is not computed")
		}
		if d.Truncate(time.Minute) != 30*time.Minute {
			t.Errorf("unexpected duration: %s", d)
		}
	})

	t.Run("running run is measured until now", func(t *testing.T) {
		run := training.Run{StartedAt: "2025-01-02 11:15:00"}
		d, ok := run.Duration(now)
		if !ok || d != 45*time.Minute {
			t.Errorf("unexpected duration: %s (%v)", d, ok)
		}
	})

	t.Run("run without started_at has no duration", func(t *testing.T) {
		run := training.Run{}
		if _, ok := run.Duration(now); ok {
			t.Errorf("duration should not be computed")
		}
	})
}
