package recipe

// State is mutable storage scoped to one render. Helpers use it to keep
// counters or accumulated values between invocations.
// It is not safe for concurrent use; a render runs on a single goroutine.
type State struct {
	values map[string]any
}

// NewState returns an empty State.
func NewState() *State {
	return &State{values: make(map[string]any)}
}

// Get returns the value stored under key.
func (s *State) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (s *State) Set(key string, value any) {
	s.values[key] = value
}

// Delete removes key.
func (s *State) Delete(key string) {
	delete(s.values, key)
}

// Len returns the number of stored keys.
func (s *State) Len() int {
	return len(s.values)
}
