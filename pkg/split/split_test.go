package split_test

import (
	"errors"
	"testing"

	"github.com/opst/mlstudio/pkg/cmp"
	"github.com/opst/mlstudio/pkg/split"
)

func TestVerify(t *testing.T) {
	for _, valid := range []split.Split{
		split.Default(),
		{Train: 100, Validation: 0, Test: 0},
		{Train: 34, Validation: 33, Test: 33},
	} {
		if err := valid.Verify(); err != nil {
			t.Errorf("%s: unexpected error: %s", valid, err)
		}
	}

	for _, invalid := range []split.Split{
		{Train: 70, Validation: 20, Test: 20},
		{Train: 60, Validation: 20, Test: 10},
		{Train: 120, Validation: -10, Test: -10},
		{},
	} {
		if err := invalid.Verify(); !errors.Is(err, split.ErrInvalidSplit) {
			t.Errorf("%s: unexpected error: %v", invalid, err)
		}
	}
}

func TestSliders(t *testing.T) {
	type when struct {
		before split.Split
		change func(split.Split) split.Split
	}
	theory := func(when when, then split.Split) func(*testing.T) {
		return func(t *testing.T) {
			actual := when.change(when.before)
			if actual != then {
				t.Errorf("(actual, expected) = (%s, %s)", actual, then)
			}
			if err := actual.Verify(); err != nil {
				t.Errorf("slider produces invalid split: %s", err)
			}
		}
	}

	t.Run("raising train shrinks test first", theory(
		when{before: split.Default(), change: func(s split.Split) split.Split { return s.WithTrain(75) }},
		split.Split{Train: 75, Validation: 20, Test: 5},
	))
	t.Run("raising train over the rest clips validation", theory(
		when{before: split.Default(), change: func(s split.Split) split.Split { return s.WithTrain(90) }},
		split.Split{Train: 90, Validation: 10, Test: 0},
	))
	t.Run("lowering train gives the rest to test", theory(
		when{before: split.Default(), change: func(s split.Split) split.Split { return s.WithTrain(50) }},
		split.Split{Train: 50, Validation: 20, Test: 30},
	))
	t.Run("changing validation gives the rest to test", theory(
		when{before: split.Default(), change: func(s split.Split) split.Split { return s.WithValidation(5) }},
		split.Split{Train: 70, Validation: 5, Test: 25},
	))
	t.Run("validation is capped by train", theory(
		when{before: split.Default(), change: func(s split.Split) split.Split { return s.WithValidation(50) }},
		split.Split{Train: 70, Validation: 30, Test: 0},
	))
	t.Run("changing test gives the rest to validation", theory(
		when{before: split.Default(), change: func(s split.Split) split.Split { return s.WithTest(15) }},
		split.Split{Train: 70, Validation: 15, Test: 15},
	))
	t.Run("train out of range is clamped", theory(
		when{before: split.Default(), change: func(s split.Split) split.Split { return s.WithTrain(150) }},
		split.Split{Train: 100, Validation: 0, Test: 0},
	))
}

func TestPartitionOf(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}

	t.Run("it gives floor to train and validation and the rest to test", func(t *testing.T) {
		p, err := split.PartitionOf(items, split.Default())
		if err != nil {
			t.Fatal(err)
		}
		// 11 * 70 / 100 = 7, 11 * 20 / 100 = 2
		if !cmp.SliceEq(p.Train, []string{"a", "b", "c", "d", "e", "f", "g"}) {
			t.Errorf("train: %v", p.Train)
		}
		if !cmp.SliceEq(p.Validation, []string{"h", "i"}) {
			t.Errorf("validation: %v", p.Validation)
		}
		if !cmp.SliceEq(p.Test, []string{"j", "k"}) {
			t.Errorf("test: %v", p.Test)
		}
	})

	t.Run("empty input gives empty partitions", func(t *testing.T) {
		p, err := split.PartitionOf([]string{}, split.Default())
		if err != nil {
			t.Fatal(err)
		}
		if len(p.Train)+len(p.Validation)+len(p.Test) != 0 {
			t.Errorf("unexpected partition: %+v", p)
		}
	})

	t.Run("invalid split is rejected", func(t *testing.T) {
		_, err := split.PartitionOf(items, split.Split{Train: 50, Validation: 10, Test: 10})
		if !errors.Is(err, split.ErrInvalidSplit) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestOverride(t *testing.T) {
	ref := func(v int) *int { return &v }

	for name, c := range map[string]struct {
		train, validation, test *int
		expected                split.Split
	}{
		"nothing given keeps the base": {
			expected: split.Split{Train: 70, Validation: 20, Test: 10},
		},
		"train gives the rest to validation then test": {
			train:    ref(80),
			expected: split.Split{Train: 80, Validation: 20, Test: 0},
		},
		"train and test": {
			train: ref(80), test: ref(10),
			expected: split.Split{Train: 80, Validation: 10, Test: 10},
		},
		"all given are taken as they are": {
			train: ref(60), validation: ref(20), test: ref(20),
			expected: split.Split{Train: 60, Validation: 20, Test: 20},
		},
	} {
		t.Run(name, func(t *testing.T) {
			actual, err := split.Default().Override(c.train, c.validation, c.test)
			if err != nil {
				t.Fatal(err)
			}
			if actual != c.expected {
				t.Errorf("expected %v, but %v", c.expected, actual)
			}
		})
	}

	for name, c := range map[string]struct {
		train, validation, test *int
	}{
		"all given but not 100":   {train: ref(60), validation: ref(20), test: ref(10)},
		"validation does not fit": {train: ref(80), validation: ref(30)},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := split.Default().Override(c.train, c.validation, c.test)
			if !errors.Is(err, split.ErrInvalidSplit) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
