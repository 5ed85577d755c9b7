package testkit

import (
	"testing"
	"time"
)

var nowFn = func() int { return 1 }

func TestSwap_RestoresAfterSubtest(t *testing.T) {
	t.Run("swapped", func(t *testing.T) {
		Swap(t, &nowFn, func() int { return 2 })
		if got := nowFn(); got != 2 {
			t.Fatalf("swap not applied, got %d", got)
		}
	})
	if got := nowFn(); got != 1 {
		t.Fatalf("swap not restored, got %d", got)
	}
}

func TestClock(t *testing.T) {
	t.Parallel()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewClock(base)
	if !c.Now().Equal(base) {
		t.Fatalf("Now = %v, want %v", c.Now(), base)
	}
	c.Advance(90 * time.Minute)
	if want := base.Add(90 * time.Minute); !c.Now().Equal(want) {
		t.Fatalf("after Advance Now = %v, want %v", c.Now(), want)
	}
	c.Set(base)
	if !c.Now().Equal(base) {
		t.Fatalf("after Set Now = %v, want %v", c.Now(), base)
	}
}
