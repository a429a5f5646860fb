package store

import "testing"

func TestSeasonLockKey(t *testing.T) {
	if seasonLockKey(7) != seasonLockKey(7) {
		t.Fatal("lock key is not stable")
	}
	seen := map[int64]int64{}
	for _, id := range []int64{0, 1, 2, 1 << 32, 1<<32 + 1, 1<<33 + 1, -1} {
		k := seasonLockKey(id)
		if other, ok := seen[k]; ok {
			t.Errorf("seasons %d and %d share lock key %d", other, id, k)
		}
		seen[k] = id
	}
}
