package compute

// Unknown is reported by Top for an empty counter.
const Unknown = "Unknown"

// Counts is a string counter that keeps keys in first-seen order.
// The zero value is ready to use.
type Counts struct {
	keys []string
	n    map[string]int
}

// Add increments key by one.
func (c *Counts) Add(key string) {
	c.AddN(key, 1)
}

// AddN increments key by n.
func (c *Counts) AddN(key string, n int) {
	if c.n == nil {
		c.n = make(map[string]int)
	}
	if _, ok := c.n[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.n[key] += n
}

// Get returns the count for key, 0 if never added.
func (c *Counts) Get(key string) int {
	return c.n[key]
}

// Len returns the number of distinct keys.
func (c *Counts) Len() int {
	return len(c.keys)
}

// Keys returns the keys in first-seen order.
func (c *Counts) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Top returns the key with the highest count. Ties go to the key seen first.
// An empty counter returns Unknown and 0.
func (c *Counts) Top() (string, int) {
	best, bestN := Unknown, 0
	for _, k := range c.keys {
		if n := c.n[k]; n > bestN {
			best, bestN = k, n
		}
	}
	return best, bestN
}

// Map returns a copy of the counts.
func (c *Counts) Map() map[string]int {
	out := make(map[string]int, len(c.keys))
	for _, k := range c.keys {
		out[k] = c.n[k]
	}
	return out
}

// Clone returns an independent copy.
func (c *Counts) Clone() Counts {
	out := Counts{keys: append([]string(nil), c.keys...)}
	if c.n != nil {
		out.n = make(map[string]int, len(c.n))
		for k, v := range c.n {
			out.n[k] = v
		}
	}
	return out
}

// Reset removes every key.
func (c *Counts) Reset() {
	c.keys = nil
	c.n = nil
}

// Summary accumulates count, sum and extremes of a numeric series.
type Summary struct {
	Count    int
	Sum      float64
	Min, Max float64
}

// Add folds v into the summary.
func (s *Summary) Add(v float64) {
	if s.Count == 0 || v < s.Min {
		s.Min = v
	}
	if s.Count == 0 || v > s.Max {
		s.Max = v
	}
	s.Count++
	s.Sum += v
}

// Mean returns the average, 0 for an empty summary.
func (s Summary) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}
