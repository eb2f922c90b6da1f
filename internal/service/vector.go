// Package service holds the business logic sitting between the HTTP
// adapter and the engine: UUID assignment on insert, and dispatch to
// the similarity kernels for the /compare routes. The engine itself
// (internal/engine/store) has no notion of request context or
// cancellation — per its concurrency model, an operation once begun
// runs to completion — so this layer does not thread a context.Context
// through to it either.
package service

import (
	"errors"

	"github.com/edirooss/vectordb-server/internal/engine/similarity"
	"github.com/edirooss/vectordb-server/internal/engine/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUnknownKernel is returned by Compare for a Kernel value other than
// the three named constants.
var ErrUnknownKernel = errors.New("unknown comparison kernel")

// VectorService is the CRUD + query façade over a single vector store.
type VectorService struct {
	log *zap.Logger
	st  *store.Store
}

// NewVectorService wraps st for use by the HTTP adapter.
func NewVectorService(log *zap.Logger, st *store.Store) *VectorService {
	if log == nil {
		log = zap.NewNop()
	}
	return &VectorService{log: log.Named("vector"), st: st}
}

// Create inserts vec under id. If id is empty, a new UUID is generated —
// this is the adapter-level responsibility spec.md §4.1 calls out.
func (s *VectorService) Create(id string, vec []float64) (store.Vector, int, error) {
	if id == "" {
		id = uuid.New().String()
	}
	rec := store.Vector{UUID: id, Dim: len(vec), Data: vec}
	idx, err := s.st.Insert(rec)
	if err != nil {
		return store.Vector{}, 0, err
	}
	return rec, idx, nil
}

// Get returns the record at the given index.
func (s *VectorService) Get(index int) (store.Vector, error) {
	return s.st.Get(index)
}

// GetByUUID returns the record with the given UUID and its current index.
func (s *VectorService) GetByUUID(id string) (store.Vector, int, error) {
	return s.st.GetByUUID(id)
}

// Update replaces the record at index with vec, keeping its UUID.
func (s *VectorService) Update(index int, vec []float64) (store.Vector, error) {
	existing, err := s.st.Get(index)
	if err != nil {
		return store.Vector{}, err
	}
	rec := store.Vector{UUID: existing.UUID, Dim: len(vec), Data: vec}
	if err := s.st.Update(index, rec); err != nil {
		return store.Vector{}, err
	}
	return rec, nil
}

// Delete removes the record at index, shifting later indices down.
func (s *VectorService) Delete(index int) error {
	return s.st.Delete(index)
}

// Nearest returns the record nearest to query by squared Euclidean
// distance, and its current index.
func (s *VectorService) Nearest(query []float64) (store.Vector, int, error) {
	return s.st.Nearest(query)
}

// Kernel identifies one of the three pairwise similarity/distance measures.
type Kernel string

const (
	KernelCosineSimilarity Kernel = "cosine_similarity"
	KernelEuclideanDist    Kernel = "euclidean_distance"
	KernelDotProduct       Kernel = "dot_product"
)

// Compare reads the two records at index1 and index2 and applies kernel
// to their payloads.
func (s *VectorService) Compare(kernel Kernel, index1, index2 int) (float32, error) {
	v1, err := s.st.Get(index1)
	if err != nil {
		return 0, err
	}
	v2, err := s.st.Get(index2)
	if err != nil {
		return 0, err
	}

	switch kernel {
	case KernelCosineSimilarity:
		return similarity.CosineSimilarity(v1.Data, v2.Data)
	case KernelEuclideanDist:
		return similarity.EuclideanDistance(v1.Data, v2.Data)
	case KernelDotProduct:
		return similarity.DotProduct(v1.Data, v2.Data)
	default:
		return 0, ErrUnknownKernel
	}
}

// Save persists the store to path.
func (s *VectorService) Save(path string) error { return s.st.Save(path) }
