package commentary

import (
	"fmt"
	"slices"
	"testing"
)

func TestSeenCache_FilterNew(t *testing.T) {
	c := NewSeenCache(10)

	first := c.FilterNew([]string{"LOL", "LOL", "nice"})
	if !slices.Equal(first, []string{"LOL", "nice"}) {
		t.Fatalf("expected in-batch duplicates removed, got %v", first)
	}

	second := c.FilterNew([]string{"nice", "wow"})
	if !slices.Equal(second, []string{"wow"}) {
		t.Fatalf("expected only unseen comments, got %v", second)
	}
	if c.Len() != 3 {
		t.Errorf("expected 3 seen, got %d", c.Len())
	}
}

func TestSeenCache_FilterNewAllSeen(t *testing.T) {
	c := NewSeenCache(10)
	c.Add("a")

	if got := c.FilterNew([]string{"a", "a"}); len(got) != 0 {
		t.Errorf("expected nothing new, got %v", got)
	}
}

func TestSeenCache_EvictsOldest(t *testing.T) {
	c := NewSeenCache(3)
	for i := range 4 {
		c.Add(fmt.Sprint(i))
	}

	if c.Len() != 3 {
		t.Fatalf("expected capacity 3, got %d", c.Len())
	}
	if c.Contains("0") {
		t.Error("expected oldest entry evicted")
	}
	if !c.Contains("3") {
		t.Error("expected newest entry kept")
	}
}

func TestSeenCache_AddExisting(t *testing.T) {
	c := NewSeenCache(2)
	c.Add("a")
	c.Add("a")
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
}

func TestSeenCache_Reset(t *testing.T) {
	c := NewSeenCache(0)
	c.Add("a")
	c.Reset()

	if c.Len() != 0 || c.Contains("a") {
		t.Error("expected empty cache after reset")
	}
	if c.capacity != MaxMessages {
		t.Errorf("expected default capacity %d, got %d", MaxMessages, c.capacity)
	}
}
