// Package exceptions persists the review-workflow state for variance
// exceptions in a plain CSV file. The engine emits stateless candidates each
// run; this store owns identity dedup and resolution fields, so a record an
// accountant already resolved is never overwritten by a fresh run of the
// same day.
package exceptions

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/recondesk-dev/recondesk/internal/model"
)

// FileName is the store's file under the output directory.
const FileName = "exceptions.csv"

// Store is a CSV-backed exception store. Safe for concurrent use within one
// process.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store rooted at dir. The file is created lazily on
// first write.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, FileName)}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// List returns all records, sorted by ID for stable output. A missing file
// is an empty store.
func (s *Store) List() ([]model.ReconException, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Merge inserts candidates whose identity (the record ID) is not already on
// file, marking them needs_review. Existing records keep their resolution
// state untouched. Returns the number of records inserted.
func (s *Store) Merge(candidates []model.ReconException) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load()
	if err != nil {
		return 0, err
	}
	known := make(map[string]bool, len(existing))
	for _, ex := range existing {
		known[ex.ID] = true
	}

	added := 0
	for _, c := range candidates {
		if known[c.ID] {
			continue
		}
		known[c.ID] = true
		c.Resolution = model.ResolutionNeedsReview
		existing = append(existing, c)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, s.save(existing)
}

// Resolve updates one record's workflow fields. The resolution timestamp is
// supplied by the caller so the store itself stays clock-free.
func (s *Store) Resolve(id string, status model.ResolutionStatus, resolvedBy, notes string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].ID != id {
			continue
		}
		records[i].Resolution = status
		records[i].ResolvedBy = resolvedBy
		records[i].ResolvedAt = at
		if notes != "" {
			records[i].Notes = notes
		}
		return s.save(records)
	}
	return fmt.Errorf("unknown exception %q", id)
}

func (s *Store) load() ([]model.ReconException, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.path, err)
	}
	defer f.Close()

	records, err := ReadExceptions(f)
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (s *Store) save(records []model.ReconException) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	if err := WriteExceptions(f, records); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}
