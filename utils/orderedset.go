package utils

// OrderedSet keeps distinct strings in first-seen order.
// Not safe for concurrent use; build one per computation.
type OrderedSet struct {
	seen  map[string]struct{}
	items []string
}

// NewOrderedSet creates an empty set
func NewOrderedSet() *OrderedSet {
	return &OrderedSet{seen: make(map[string]struct{})}
}

// Add returns true if s is new (not seen before), false if duplicate
func (s *OrderedSet) Add(item string) bool {
	if _, exists := s.seen[item]; exists {
		return false
	}
	s.seen[item] = struct{}{}
	s.items = append(s.items, item)
	return true
}

// AddAll adds each item in order
func (s *OrderedSet) AddAll(items ...string) {
	for _, item := range items {
		s.Add(item)
	}
}

// Contains reports whether item has been added
func (s *OrderedSet) Contains(item string) bool {
	_, ok := s.seen[item]
	return ok
}

// Len returns the number of distinct items
func (s *OrderedSet) Len() int {
	return len(s.items)
}

// Items returns the distinct items in first-seen order
func (s *OrderedSet) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Dedupe returns items without repeats, keeping first appearances
func Dedupe(items []string) []string {
	set := NewOrderedSet()
	set.AddAll(items...)
	return set.Items()
}
