package testsupport

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bergsfam/calibre-audible-integration/internal/calibre"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

// StoreCall records one mutating call made against a MemoryStore.
type StoreCall struct {
	Op        string
	LibraryID int
	Fields    []calibre.FieldValue
}

// MemoryStore is an in-memory calibre.Store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[int]calibre.Record
	columns calibre.ColumnSet
	nextID  int
	calls   []StoreCall

	// FailUpdate, when set, makes Update fail for that library id.
	FailUpdate int
	// FailInsert makes every Insert fail.
	FailInsert bool
}

// NewMemoryStore returns a store holding records with every custom column
// defined.
func NewMemoryStore(records ...calibre.Record) *MemoryStore {
	labels := make([]string, 0, len(calibre.Columns))
	for _, spec := range calibre.Columns {
		labels = append(labels, spec.Label)
	}
	store := &MemoryStore{
		records: make(map[int]calibre.Record, len(records)),
		columns: calibre.NewColumnSet(labels...),
		nextID:  1,
	}
	for _, rec := range records {
		store.records[rec.ID] = rec
		if rec.ID >= store.nextID {
			store.nextID = rec.ID + 1
		}
	}
	return store
}

// SetColumns replaces the defined custom columns.
func (s *MemoryStore) SetColumns(labels ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.columns = calibre.NewColumnSet(labels...)
}

// Columns implements calibre.Store.
func (s *MemoryStore) Columns(ctx context.Context) (calibre.ColumnSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(calibre.ColumnSet, len(s.columns))
	for label := range s.columns {
		out[label] = struct{}{}
	}
	return out, nil
}

// List implements calibre.Store. Records are returned ordered by id.
func (s *MemoryStore) List(ctx context.Context) ([]calibre.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]calibre.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update implements calibre.Store.
func (s *MemoryStore) Update(ctx context.Context, id int, patch calibre.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpdate != 0 && s.FailUpdate == id {
		return services.Wrap(services.ErrStoreAccess, "calibre", "set_metadata", fmt.Sprintf("book %d", id), errors.New("simulated failure"))
	}
	rec, ok := s.records[id]
	if !ok {
		return services.Wrap(services.ErrStoreAccess, "calibre", "set_metadata", fmt.Sprintf("book %d", id), errors.New("no such book"))
	}
	fields := s.columns.Filter(patch.Fields())
	patch.Apply(&rec)
	s.records[id] = rec
	s.calls = append(s.calls, StoreCall{Op: "update", LibraryID: id, Fields: fields})
	return nil
}

// Insert implements calibre.Store.
func (s *MemoryStore) Insert(ctx context.Context, placeholder calibre.Placeholder) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailInsert {
		return 0, services.Wrap(services.ErrStoreAccess, "calibre", "add", placeholder.Title, errors.New("simulated failure"))
	}
	id := s.nextID
	s.nextID++
	rec := calibre.Record{
		ID:      id,
		Title:   placeholder.Title,
		Authors: append([]string(nil), placeholder.Authors...),
		Tags:    append([]string(nil), placeholder.Tags...),
	}
	placeholder.Patch.Apply(&rec)
	s.records[id] = rec
	s.calls = append(s.calls, StoreCall{Op: "insert", LibraryID: id, Fields: s.columns.Filter(placeholder.Patch.Fields())})
	return id, nil
}

// Record returns the stored record with the given id.
func (s *MemoryStore) Record(id int) (calibre.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	return rec, ok
}

// Calls returns the mutating calls made so far.
func (s *MemoryStore) Calls() []StoreCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StoreCall(nil), s.calls...)
}

// ResetCalls clears the call log.
func (s *MemoryStore) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}
