package split

import (
	"errors"
	"fmt"
)

var ErrInvalidSplit = errors.New("invalid data split")

// Split is percentages of a dataset used for training, validation and test.
//
// Valid splits have each value in [0, 100] and sum up to 100.
type Split struct {
	Train      int `json:"train_split" yaml:"train"`
	Validation int `json:"validation_split" yaml:"validation"`
	Test       int `json:"test_split" yaml:"test"`
}

func Default() Split {
	return Split{Train: 70, Validation: 20, Test: 10}
}

func (s Split) String() string {
	return fmt.Sprintf("train %d%% / validation %d%% / test %d%%", s.Train, s.Validation, s.Test)
}

func (s Split) Total() int {
	return s.Train + s.Validation + s.Test
}

// Verify returns ErrInvalidSplit unless the split is valid.
func (s Split) Verify() error {
	for name, v := range map[string]int{
		"train": s.Train, "validation": s.Validation, "test": s.Test,
	} {
		if v < 0 || 100 < v {
			return fmt.Errorf("%w: %s split should be in 0..100, but %d", ErrInvalidSplit, name, v)
		}
	}
	if total := s.Total(); total != 100 {
		return fmt.Errorf("%w: total should be 100%%, but %d%%", ErrInvalidSplit, total)
	}
	return nil
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if max < v {
		return max
	}
	return v
}

// WithTrain sets the train percentage.
//
// Validation is kept as long as it fits in the rest, and test takes the remainder.
func (s Split) WithTrain(v int) Split {
	train := clamp(v, 0, 100)
	remaining := 100 - train
	validation := clamp(s.Validation, 0, remaining)
	return Split{Train: train, Validation: validation, Test: remaining - validation}
}

// WithValidation sets the validation percentage, and test takes the remainder.
func (s Split) WithValidation(v int) Split {
	train := clamp(s.Train, 0, 100)
	validation := clamp(v, 0, 100-train)
	return Split{Train: train, Validation: validation, Test: 100 - train - validation}
}

// WithTest sets the test percentage, and validation takes the remainder.
func (s Split) WithTest(v int) Split {
	train := clamp(s.Train, 0, 100)
	test := clamp(v, 0, 100-train)
	return Split{Train: train, Validation: 100 - train - test, Test: test}
}

// Override applies percentages given explicitly. Nil means not given.
//
// When all of them are given, they are taken as they are.
// Otherwise they are applied one by one as WithTrain, WithValidation and WithTest do,
// and it fails if any given value does not fit.
func (s Split) Override(train, validation, test *int) (Split, error) {
	if train != nil && validation != nil && test != nil {
		ret := Split{Train: *train, Validation: *validation, Test: *test}
		return ret, ret.Verify()
	}

	ret := s
	if train != nil {
		ret = ret.WithTrain(*train)
	}
	if validation != nil {
		ret = ret.WithValidation(*validation)
	}
	if test != nil {
		ret = ret.WithTest(*test)
	}

	for _, given := range []struct {
		name      string
		requested *int
		actual    int
	}{
		{"train", train, ret.Train},
		{"validation", validation, ret.Validation},
		{"test", test, ret.Test},
	} {
		if given.requested != nil && *given.requested != given.actual {
			return s, fmt.Errorf(
				"%w: %s split %d%% does not fit (%s)", ErrInvalidSplit, given.name, *given.requested, ret,
			)
		}
	}
	return ret, ret.Verify()
}

// Partition is a dataset divided by a Split.
type Partition[T any] struct {
	Train      []T
	Validation []T
	Test       []T
}

// PartitionOf divides items keeping their order.
//
// Train and validation get floor(len * pct / 100) items each, and test gets the rest.
func PartitionOf[T any](items []T, s Split) (Partition[T], error) {
	if err := s.Verify(); err != nil {
		return Partition[T]{}, err
	}
	n := len(items)
	trainCount := n * s.Train / 100
	validationCount := n * s.Validation / 100

	return Partition[T]{
		Train:      items[:trainCount],
		Validation: items[trainCount : trainCount+validationCount],
		Test:       items[trainCount+validationCount:],
	}, nil
}
