package sequence

import (
	"testing"
)

func TestSortIsStableAndNonMutating(t *testing.T) {
	src := []int{3, 1, 2}
	got := From(src).
		Sort(func(a, b int) bool { return a < b }).
		Collect()
	if got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("sorted = %v", got)
	}
	if src[0] != 3 {
		t.Fatalf("source mutated: %v", src)
	}
}

func TestFilterCount(t *testing.T) {
	n := From([]int{1, 2, 3, 4, 5}).
		Filter(func(v int) bool { return v%2 == 0 }).
		Count()
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
}

func TestFromMapKeys(t *testing.T) {
	keys := FromMapKeys(map[string]int{"b": 1, "a": 2}).
		Sort(func(a, b string) bool { return a < b }).
		Collect()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("keys = %v", keys)
	}
}
