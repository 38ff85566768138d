package cmp_test

import (
	"testing"

	"github.com/opst/mlstudio/pkg/cmp"
)

func TestSliceContentEq(t *testing.T) {
	for _, c := range []struct {
		a, b     []string
		expected bool
	}{
		{a: []string{"a", "b", "c"}, b: []string{"c", "b", "a"}, expected: true},
		{a: []string{"a", "b", "c"}, b: []string{"c", "b", "a", "z"}, expected: false},
		{a: []string{"a", "b", "c", "c"}, b: []string{"a", "b", "c", "b"}, expected: false},
		{a: []string{}, b: nil, expected: true},
	} {
		if actual := cmp.SliceContentEq(c.a, c.b); actual != c.expected {
			t.Errorf("SliceContentEq(%v, %v) = %v", c.a, c.b, actual)
		}
	}
}

func TestMapEq(t *testing.T) {
	if !cmp.MapEq(map[string]int{"a": 1, "b": 2}, map[string]int{"b": 2, "a": 1}) {
		t.Errorf("equal maps are not equal")
	}
	if cmp.MapEq(map[string]int{"a": 1}, map[string]int{"a": 2}) {
		t.Errorf("different values are equal")
	}
	if cmp.MapEq(map[string]int{"a": 1}, map[string]int{"b": 1}) {
		t.Errorf("different keys are equal")
	}
}
