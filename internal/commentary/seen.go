package commentary

// SeenCache is an insertion-ordered set of comment texts. When it grows past
// its capacity the oldest entry is evicted. It is not safe for concurrent use.
type SeenCache struct {
	capacity int
	order    []string
	set      map[string]struct{}
}

func NewSeenCache(capacity int) *SeenCache {
	if capacity <= 0 {
		capacity = MaxMessages
	}
	return &SeenCache{
		capacity: capacity,
		set:      make(map[string]struct{}, capacity+1),
	}
}

func (c *SeenCache) Contains(text string) bool {
	_, ok := c.set[text]
	return ok
}

func (c *SeenCache) Add(text string) {
	if c.Contains(text) {
		return
	}
	c.set[text] = struct{}{}
	c.order = append(c.order, text)
	if len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.set, oldest)
	}
}

func (c *SeenCache) Len() int {
	return len(c.order)
}

func (c *SeenCache) Reset() {
	c.order = nil
	c.set = make(map[string]struct{}, c.capacity+1)
}

// FilterNew returns the texts of batch not seen before, in first-occurrence
// order, and records them.
func (c *SeenCache) FilterNew(batch []string) []string {
	var fresh []string
	inBatch := make(map[string]struct{}, len(batch))
	for _, text := range batch {
		if _, dup := inBatch[text]; dup {
			continue
		}
		inBatch[text] = struct{}{}
		if c.Contains(text) {
			continue
		}
		c.Add(text)
		fresh = append(fresh, text)
	}
	return fresh
}
