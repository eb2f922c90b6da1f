// Package store implements the in-memory vector store: a growable,
// index-addressed sequence of Vector records mirrored by a k-d tree for
// nearest-neighbor lookup, guarded by a single mutex.
//
// Concurrency Model:
//   - A single sync.Mutex guards all store state (records, the UUID
//     index, and the k-d tree). Every exported method acquires it at
//     entry and releases it before returning, on every path including
//     panics recovered upstream by the HTTP adapter.
//   - Reads return deep copies (see Vector.Clone), never slices that
//     alias internal state. No pointer into the store is ever handed
//     back to a caller running outside the lock.
//   - There is no distinction between a read lock and a write lock: the
//     spec this store implements requires a single mutex that every
//     operation — including reads — holds for its entire duration.
//
// Tree/store coupling:
//   - Insert appends the record and inserts its point into the k-d tree
//     under the same index in the same critical section.
//   - Update overwrites the record at index i and re-inserts into the
//     tree under index i, but the old node for i is not removed — the
//     tree is append-only. A record updated more than once may have
//     several stale nodes pointing at the same index, only the last of
//     which is current.
//   - Delete shifts the tail down and decrements size, but does not
//     touch the tree at all: a Nearest query issued after a Delete may
//     return an index that now refers to a different (shifted) record,
//     or one beyond the new size.
//   - Load rebuilds the tree from scratch by re-inserting every record
//     in ascending index order, which is the one point at which the
//     tree is guaranteed consistent with the store.
package store

import (
	"sync"

	"github.com/edirooss/vectordb-server/internal/engine/kdtree"
	"go.uber.org/zap"
)

// Store is a dynamically-sized sequence of Vector records plus the
// k-d tree that indexes them, all guarded by a single mutex.
type Store struct {
	mu sync.Mutex

	dim     int
	records []Vector
	byUUID  map[string]int
	tree    *kdtree.Tree
	log     *zap.Logger

	// stale counts mutations (Update/Delete) applied since the tree was
	// last rebuilt from scratch (on New or Load). It is exposed via
	// Stale for diagnostics; the engine itself never auto-rebuilds
	// mid-process, per the Open Question decision recorded in
	// SPEC_FULL.md — only Load rebuilds.
	stale int
}

// New returns an empty store configured for vectors of the given
// dimension. capacityHint is accepted for parity with the source's
// init(capacity, D) contract; Go slices grow on their own, so it only
// pre-sizes the initial backing array. A nil logger is replaced with a
// no-op logger.
func New(dim int, capacityHint int, log *zap.Logger) *Store {
	if dim < 1 {
		dim = 1
	}
	if capacityHint <= 0 {
		capacityHint = 10
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		dim:     dim,
		records: make([]Vector, 0, capacityHint),
		byUUID:  make(map[string]int),
		tree:    kdtree.New(dim),
		log:     log,
	}
}

// Dim returns the store's configured dimension.
func (s *Store) Dim() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dim
}

// Size returns the current number of live records.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Insert appends vec to the store and indexes it in the k-d tree.
// Returns the insertion index. len(vec.Data) must equal the store's
// dimension.
// vec.UUID must fit the on-disk fixed-width UUID field (see
// uuidFieldSize in persistence.go), or Insert fails rather than letting
// Save silently truncate it later. vec.UUID must not already belong to
// another live record, or Insert fails rather than letting the new
// record silently steal the UUID's byUUID entry.
func (s *Store) Insert(vec Vector) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(vec.Data) != s.dim {
		return 0, ErrDimensionMismatch
	}
	if len(vec.UUID) >= uuidFieldSize {
		return 0, ErrUUIDTooLong
	}
	if _, exists := s.byUUID[vec.UUID]; exists {
		return 0, ErrUUIDExists
	}
	if len(s.records) == maxStoreSize {
		return 0, ErrOverflow
	}

	rec := vec.Clone()
	idx := len(s.records)
	s.records = append(s.records, rec)
	s.byUUID[rec.UUID] = idx
	s.tree.Insert(rec.Data, idx)
	return idx, nil
}

// Get returns a copy of the record at index i.
func (s *Store) Get(i int) (Vector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.records) {
		return Vector{}, ErrNotFound
	}
	return s.records[i].Clone(), nil
}

// GetByUUID returns a copy of the record with the given UUID and its
// current index, or ErrNotFound if no record carries that UUID.
func (s *Store) GetByUUID(uuid string) (Vector, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byUUID[uuid]
	if !ok || idx < 0 || idx >= len(s.records) {
		return Vector{}, 0, ErrNotFound
	}
	return s.records[idx].Clone(), idx, nil
}

// Update replaces the record at index i with vec. The k-d tree gets a
// fresh node for index i; the node it held before this call is not
// removed (see the package doc comment's Tree/store coupling section).
func (s *Store) Update(i int, vec Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.records) {
		return ErrNotFound
	}
	if len(vec.Data) != s.dim {
		return ErrDimensionMismatch
	}
	if len(vec.UUID) >= uuidFieldSize {
		return ErrUUIDTooLong
	}
	if owner, exists := s.byUUID[vec.UUID]; exists && owner != i {
		return ErrUUIDExists
	}

	old := s.records[i]
	delete(s.byUUID, old.UUID)

	rec := vec.Clone()
	s.records[i] = rec
	s.byUUID[rec.UUID] = i
	s.tree.Insert(rec.Data, i)
	s.stale++
	return nil
}

// Delete removes the record at index i, shifting every record at a
// larger index down by one. Indices at or after i are therefore no
// longer stable across this call; UUIDs remain the stable handle. The
// k-d tree is left untouched.
func (s *Store) Delete(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.records) {
		return ErrNotFound
	}

	delete(s.byUUID, s.records[i].UUID)
	s.records = append(s.records[:i], s.records[i+1:]...)
	for idx := i; idx < len(s.records); idx++ {
		s.byUUID[s.records[idx].UUID] = idx
	}
	s.stale++
	return nil
}

// Nearest returns a copy of the record whose point minimizes squared
// Euclidean distance to query, and its current index. ErrNotFound if
// the store (and therefore the tree) is empty.
//
// Because Delete and Update do not keep the tree in lockstep with the
// store (see the package doc comment), the returned index may refer to
// a record other than the one actually nearest, if deletes or updates
// have happened since the last Load. This is documented engine
// behavior, not a bug: see SPEC_FULL.md's Open Question decision.
func (s *Store) Nearest(query []float64) (Vector, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(query) != s.dim {
		return Vector{}, 0, ErrDimensionMismatch
	}

	idx, ok := s.tree.Nearest(query)
	if !ok || idx < 0 || idx >= len(s.records) {
		return Vector{}, 0, ErrNotFound
	}
	return s.records[idx].Clone(), idx, nil
}

// Stale reports how many Update/Delete operations have been applied
// since the k-d tree was last rebuilt from scratch (construction or
// Load). Exposed for diagnostics/metrics; the engine does not act on it
// automatically.
func (s *Store) Stale() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// maxStoreSize bounds the store to the largest slice length Go
// guarantees addressable on any supported platform. This is the
// practical equivalent of the source's SIZE_MAX/sizeof(record) check.
const maxStoreSize = int(^uint(0) >> 1)
