package utils

// IDSet tracks ids in first-seen order.
type IDSet struct {
	seen  map[string]struct{}
	order []string
}

// NewIDSet creates an empty IDSet.
func NewIDSet() *IDSet {
	return &IDSet{seen: make(map[string]struct{})}
}

// Add returns true if the id was newly added, false if already present.
// Empty ids are never added.
func (s *IDSet) Add(id string) bool {
	if id == "" {
		return false
	}
	if _, exists := s.seen[id]; exists {
		return false
	}
	s.seen[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Contains returns true if the id has already been seen.
func (s *IDSet) Contains(id string) bool {
	_, exists := s.seen[id]
	return exists
}

// Size returns the number of distinct ids tracked.
func (s *IDSet) Size() int {
	return len(s.order)
}

// IDs returns the ids in first-seen order.
func (s *IDSet) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
