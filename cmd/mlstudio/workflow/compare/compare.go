// Package compare selects two models and compares them.
package compare

import (
	"errors"
	"slices"
	"sort"
	"strconv"

	"github.com/opst/mlstudio/pkg/api/types/models"
)

// Capacity is how many models can be compared at once.
const Capacity = 2

var (
	ErrSelectionFull = errors.New("You can only compare 2 models at a time")
	ErrNotEnough     = errors.New("Please select exactly 2 models to compare")
)

// Selection is models picked for comparison, in picked order.
type Selection struct {
	models []models.Detail
}

// Toggle picks the model, or unpicks it if it has been picked.
//
// Picking a third model fails with ErrSelectionFull, and the selection is left as it was.
func (s *Selection) Toggle(m models.Detail) error {
	for n, picked := range s.models {
		if picked.Id == m.Id {
			s.models = append(append([]models.Detail{}, s.models[:n]...), s.models[n+1:]...)
			return nil
		}
	}
	if Capacity <= len(s.models) {
		return ErrSelectionFull
	}
	s.models = append(append([]models.Detail{}, s.models...), m)
	return nil
}

func (s *Selection) Models() []models.Detail {
	return append([]models.Detail{}, s.models...)
}

// Ready tells whether models can be compared.
func (s *Selection) Ready() bool {
	return len(s.models) == Capacity
}

func (s *Selection) Clear() {
	s.models = nil
}

// Comparison is a pair of models compared by accuracy.
type Comparison struct {
	Left  models.Detail
	Right models.Detail
}

// Compare returns a comparison of the selected pair, or ErrNotEnough.
func (s *Selection) Compare() (Comparison, error) {
	if !s.Ready() {
		return Comparison{}, ErrNotEnough
	}
	return Comparison{Left: s.models[0], Right: s.models[1]}, nil
}

// Winner returns the model with higher accuracy. ok is false when they tie.
func (c Comparison) Winner() (winner models.Detail, ok bool) {
	l, r := c.Left.Metrics.Accuracy(), c.Right.Metrics.Accuracy()
	switch {
	case l > r:
		return c.Left, true
	case r > l:
		return c.Right, true
	default:
		return models.Detail{}, false
	}
}

// Row is a line of comparison table.
type Row struct {
	Label string
	Left  string
	Right string
}

// Rows lists metrics and hyperparameters side by side.
func (c Comparison) Rows() []Row {
	rows := []Row{
		{Label: "Version", Left: c.Left.Version, Right: c.Right.Version},
		{Label: "Accuracy", Left: c.Left.Metrics.FormatAccuracy(), Right: c.Right.Metrics.FormatAccuracy()},
		{Label: "Loss", Left: c.Left.Metrics.FormatLoss(), Right: c.Right.Metrics.FormatLoss()},
		{Label: "Epochs", Left: strconv.Itoa(c.Left.Metrics.Epochs()), Right: strconv.Itoa(c.Right.Metrics.Epochs())},
	}

	keys := append(c.Left.Parameters.Keys(), c.Right.Parameters.Keys()...)
	sort.Strings(keys)
	for _, k := range slices.Compact(keys) {
		rows = append(rows, Row{
			Label: k,
			Left:  orDash(c.Left.Parameters.Get(k)),
			Right: orDash(c.Right.Parameters.Get(k)),
		})
	}
	return rows
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
