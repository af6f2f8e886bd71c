package mirror

import "sync"

// URLSet is an insert-once set of URL strings. Entries are never removed,
// which keeps the concurrent discipline down to a single insert-if-absent
// under a coarse lock.
type URLSet struct {
	mu      sync.Mutex
	entries map[string]struct{}
	order   []string
}

func NewURLSet() *URLSet {
	return &URLSet{
		entries: make(map[string]struct{}),
	}
}

// Add inserts the URL and reports whether it was absent
func (s *URLSet) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.entries[url]; found {
		return false
	}

	s.entries[url] = struct{}{}
	s.order = append(s.order, url)
	return true
}

// Contains reports whether the URL was ever added
func (s *URLSet) Contains(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, found := s.entries[url]
	return found
}

// Snapshot returns a copy of the set's contents in insertion order
func (s *URLSet) Snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.order...)
}

func (s *URLSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// ResolvedMap maps a fetched URL to its local relative path. Entries are
// written once per URL; re-resolving an already resolved URL is a no-op.
type ResolvedMap struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewResolvedMap() *ResolvedMap {
	return &ResolvedMap{
		entries: make(map[string]string),
	}
}

// Set records the local path for a URL. The first write wins.
func (m *ResolvedMap) Set(url, localPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, found := m.entries[url]; found {
		return
	}

	m.entries[url] = localPath
}

func (m *ResolvedMap) Get(url string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	localPath, found := m.entries[url]
	return localPath, found
}

func (m *ResolvedMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}
