package upload

import "sync"

// RemovalSet holds the server image URLs marked for deletion during an edit,
// in the order they were first marked. Each URL appears at most once.
type RemovalSet struct {
	mu    sync.Mutex
	order []string
	index map[string]struct{}
}

func NewRemovalSet() *RemovalSet {
	return &RemovalSet{index: make(map[string]struct{})}
}

// Mark adds url and reports whether it was not already present.
func (s *RemovalSet) Mark(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[url]; ok || url == "" {
		return false
	}
	s.index[url] = struct{}{}
	s.order = append(s.order, url)
	return true
}

// Unmark removes url, which happens when the user restores a removed image.
func (s *RemovalSet) Unmark(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[url]; !ok {
		return false
	}
	delete(s.index, url)
	for i, u := range s.order {
		if u == url {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *RemovalSet) Has(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[url]
	return ok
}

// List returns a copy of the marked URLs.
func (s *RemovalSet) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

func (s *RemovalSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
