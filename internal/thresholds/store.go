package thresholds

import (
	"sync/atomic"
	"time"
)

// Store holds the active table. Reload is explicit; the file is never watched.
type Store struct {
	path     string
	current  atomic.Pointer[Table]
	loadedAt atomic.Pointer[time.Time]
}

// NewStore loads path, or the built-in defaults when path is empty.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStaticStore wraps an already built table; Reload keeps it unchanged.
func NewStaticStore(t *Table) *Store {
	s := &Store{}
	s.set(t)
	return s
}

// Current returns the active table.
func (s *Store) Current() *Table {
	return s.current.Load()
}

// LoadedAt is when the active table was installed.
func (s *Store) LoadedAt() time.Time {
	if p := s.loadedAt.Load(); p != nil {
		return *p
	}
	return time.Time{}
}

// Path of the thresholds file, empty for built-in defaults.
func (s *Store) Path() string { return s.path }

// Reload re-reads the file. On error the previous table stays active.
func (s *Store) Reload() error {
	if s.path == "" {
		if s.Current() == nil {
			s.set(Default())
		}
		return nil
	}
	t, err := LoadFile(s.path)
	if err != nil {
		return err
	}
	s.set(t)
	return nil
}

func (s *Store) set(t *Table) {
	now := time.Now().UTC()
	s.current.Store(t)
	s.loadedAt.Store(&now)
}
