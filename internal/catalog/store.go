package catalog

import "sync"

// Store is the thread-safe in-memory track catalog. Many connection handlers
// read it concurrently; Rebuild holds the write lock for the entire rebuild,
// so readers never observe a partially repopulated catalog, at the cost of
// serializing every read against an in-flight reload.
type Store struct {
	mu     sync.RWMutex
	tracks map[string]Track
}

// NewStore creates an empty catalog store
func NewStore() *Store {
	return &Store{
		tracks: make(map[string]Track),
	}
}

// Get returns the track with the given id
func (s *Store) Get(id string) (Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	track, ok := s.tracks[id]
	return track, ok
}

// List returns all cataloged tracks. Order is unspecified.
func (s *Store) List() []Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tracks := make([]Track, 0, len(s.tracks))
	for _, track := range s.tracks {
		tracks = append(tracks, track)
	}
	return tracks
}

// Len returns the number of cataloged tracks
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.tracks)
}

// Rebuild replaces the catalog contents with the result of load. The write
// lock is held while load runs, not just around the map swap; that matches
// the rebuild semantics this server has always had, where a slow filesystem
// scan blocks out all catalog reads. If load fails the previous contents are
// left untouched and the error is returned.
func (s *Store) Rebuild(load func() (map[string]Track, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tracks, err := load()
	if err != nil {
		return err
	}

	if tracks == nil {
		tracks = make(map[string]Track)
	}
	s.tracks = tracks
	return nil
}
