package store

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func mustInsert(t *testing.T, s *Store, uuid string, data []float64) int {
	t.Helper()
	idx, err := s.Insert(Vector{UUID: uuid, Dim: len(data), Data: data})
	require.NoError(t, err)
	return idx
}

func TestInsertReturnsSequentialIndices(t *testing.T) {
	s := New(3, 0, zap.NewNop())
	for i := 0; i < 5; i++ {
		idx := mustInsert(t, s, fmt.Sprintf("u%d", i), []float64{1, 2, 3})
		assert.Equal(t, i, idx)
	}
	assert.Equal(t, 5, s.Size())
}

func TestInsertThenReadRoundTrips(t *testing.T) {
	s := New(3, 0, zap.NewNop())
	idx := mustInsert(t, s, "u1", []float64{1, 2, 3})

	got, err := s.Get(idx)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UUID)
	assert.Equal(t, []float64{1, 2, 3}, got.Data)
}

func TestInsertDimensionMismatch(t *testing.T) {
	s := New(3, 0, zap.NewNop())
	_, err := s.Insert(Vector{UUID: "u", Dim: 2, Data: []float64{1, 2}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestInsertRejectsUUIDTooLongForOnDiskField(t *testing.T) {
	s := New(3, 0, zap.NewNop())

	fits := make([]byte, uuidFieldSize-1)
	for i := range fits {
		fits[i] = 'a'
	}
	_, err := s.Insert(Vector{UUID: string(fits), Dim: 3, Data: []float64{1, 2, 3}})
	assert.NoError(t, err, "a UUID exactly one byte short of the field width (room for the NUL pad) must be accepted")

	tooLong := make([]byte, uuidFieldSize)
	for i := range tooLong {
		tooLong[i] = 'b'
	}
	_, err = s.Insert(Vector{UUID: string(tooLong), Dim: 3, Data: []float64{1, 2, 3}})
	assert.ErrorIs(t, err, ErrUUIDTooLong)
}

func TestUpdateRejectsUUIDTooLongForOnDiskField(t *testing.T) {
	s := New(3, 0, zap.NewNop())
	idx := mustInsert(t, s, "u1", []float64{1, 2, 3})

	tooLong := make([]byte, uuidFieldSize)
	for i := range tooLong {
		tooLong[i] = 'c'
	}
	err := s.Update(idx, Vector{UUID: string(tooLong), Dim: 3, Data: []float64{4, 5, 6}})
	assert.ErrorIs(t, err, ErrUUIDTooLong)

	// A rejected update must not have touched the existing record.
	v, err := s.Get(idx)
	require.NoError(t, err)
	assert.Equal(t, "u1", v.UUID)
}

func TestInsertRejectsDuplicateUUID(t *testing.T) {
	s := New(3, 0, zap.NewNop())
	mustInsert(t, s, "dup", []float64{1, 2, 3})

	_, err := s.Insert(Vector{UUID: "dup", Dim: 3, Data: []float64{4, 5, 6}})
	assert.ErrorIs(t, err, ErrUUIDExists)

	// The first record must still own the UUID.
	v, idx, err := s.GetByUUID("dup")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, []float64{1, 2, 3}, v.Data)
	assert.Equal(t, 1, s.Size(), "the rejected insert must not have appended a second record")
}

func TestUpdateRejectsUUIDOwnedByAnotherRecord(t *testing.T) {
	s := New(3, 0, zap.NewNop())
	mustInsert(t, s, "u1", []float64{1, 2, 3})
	idx2 := mustInsert(t, s, "u2", []float64{4, 5, 6})

	err := s.Update(idx2, Vector{UUID: "u1", Dim: 3, Data: []float64{7, 8, 9}})
	assert.ErrorIs(t, err, ErrUUIDExists)

	// The second record must be untouched, and the first still reachable.
	v, err := s.Get(idx2)
	require.NoError(t, err)
	assert.Equal(t, "u2", v.UUID)
	assert.Equal(t, []float64{4, 5, 6}, v.Data)

	_, firstIdx, err := s.GetByUUID("u1")
	require.NoError(t, err)
	assert.Equal(t, 0, firstIdx)
}

func TestUpdateAllowsKeepingItsOwnUUID(t *testing.T) {
	s := New(3, 0, zap.NewNop())
	idx := mustInsert(t, s, "u1", []float64{1, 2, 3})

	err := s.Update(idx, Vector{UUID: "u1", Dim: 3, Data: []float64{9, 9, 9}})
	require.NoError(t, err)

	v, err := s.Get(idx)
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 9, 9}, v.Data)
}

func TestGetOutOfRange(t *testing.T) {
	s := New(3, 0, zap.NewNop())
	mustInsert(t, s, "u", []float64{1, 2, 3})
	_, err := s.Get(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByUUID(t *testing.T) {
	s := New(3, 0, zap.NewNop())
	mustInsert(t, s, "u1", []float64{1, 0, 0})
	mustInsert(t, s, "u2", []float64{0, 1, 0})
	mustInsert(t, s, "u3", []float64{0, 0, 1})

	v, idx, err := s.GetByUUID("u2")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, []float64{0, 1, 0}, v.Data)

	_, _, err = s.GetByUUID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteShiftsTail(t *testing.T) {
	s := New(3, 0, zap.NewNop())
	mustInsert(t, s, "u0", []float64{0, 0, 0})
	mustInsert(t, s, "u1", []float64{1, 1, 1})
	mustInsert(t, s, "u2", []float64{2, 2, 2})

	require.NoError(t, s.Delete(0))
	assert.Equal(t, 2, s.Size())

	v0, err := s.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "u1", v0.UUID, "spew dump: %s", spew.Sdump(v0))

	v1, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "u2", v1.UUID)

	// UUID index follows the shift.
	_, idx, err := s.GetByUUID("u2")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestDeleteOutOfRange(t *testing.T) {
	s := New(3, 0, zap.NewNop())
	assert.ErrorIs(t, s.Delete(0), ErrNotFound)
}

func TestUpdateReplacesPayloadKeepsUUID(t *testing.T) {
	s := New(3, 0, zap.NewNop())
	idx := mustInsert(t, s, "u1", []float64{1, 2, 3})

	require.NoError(t, s.Update(idx, Vector{UUID: "u1", Dim: 3, Data: []float64{4, 5, 6}}))

	v, err := s.Get(idx)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5, 6}, v.Data)
}

func TestUpdateDimensionMismatch(t *testing.T) {
	s := New(3, 0, zap.NewNop())
	idx := mustInsert(t, s, "u1", []float64{1, 2, 3})
	err := s.Update(idx, Vector{UUID: "u1", Dim: 2, Data: []float64{1, 2}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestNearestReturnsClosestRecord(t *testing.T) {
	s := New(2, 0, zap.NewNop())
	mustInsert(t, s, "a", []float64{0, 0})
	mustInsert(t, s, "b", []float64{10, 10})
	mustInsert(t, s, "c", []float64{3, 4})

	v, idx, err := s.Nearest([]float64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
	assert.Equal(t, "c", v.UUID)
}

func TestNearestOnEmptyStore(t *testing.T) {
	s := New(2, 0, zap.NewNop())
	_, _, err := s.Nearest([]float64{0, 0})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadReturnsIndependentCopy(t *testing.T) {
	s := New(3, 0, zap.NewNop())
	idx := mustInsert(t, s, "u1", []float64{1, 2, 3})

	v, err := s.Get(idx)
	require.NoError(t, err)
	v.Data[0] = 999

	v2, err := s.Get(idx)
	require.NoError(t, err)
	assert.Equal(t, float64(1), v2.Data[0], "mutating a returned copy must not affect store state")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.bin")

	s := New(3, 0, zap.NewNop())
	mustInsert(t, s, "11111111-1111-1111-1111-111111111111", []float64{1.5, 2.5, 3.5})
	mustInsert(t, s, "22222222-2222-2222-2222-222222222222", []float64{-1, 0, 1})

	require.NoError(t, s.Save(path))

	loaded, err := Load(path, 3, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, s.Size(), loaded.Size())
	for i := 0; i < s.Size(); i++ {
		want, err := s.Get(i)
		require.NoError(t, err)
		got, err := loaded.Get(i)
		require.NoError(t, err)
		assert.Equal(t, want, got, "record %d mismatch after round trip:\nwant=%s\ngot=%s", i, spew.Sdump(want), spew.Sdump(got))
	}

	// The reconstructed tree must be usable immediately.
	_, idx, err := loaded.Nearest([]float64{1.4, 2.4, 3.4})
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestSaveSkipsDegenerateRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.bin")

	s := New(3, 0, zap.NewNop())
	mustInsert(t, s, "u1", []float64{1, 2, 3})
	// Directly poke a degenerate record past the public API to exercise
	// the save-time skip.
	s.records = append(s.records, Vector{UUID: "bad", Dim: 0, Data: nil})

	require.NoError(t, s.Save(path))

	loaded, err := Load(path, 3, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Size())
}

func TestLoadRejectsDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.bin")

	s := New(3, 0, zap.NewNop())
	mustInsert(t, s, "u1", []float64{1, 2, 3})
	require.NoError(t, s.Save(path))

	_, err := Load(path, 4, zap.NewNop())
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

// TestStoreConcurrentAccess exercises the single-mutex concurrency
// envelope under concurrent HTTP-handler-like access: the hard
// invariant is that any interleaving of Insert/Get/Update/Delete/Nearest
// from many goroutines is equivalent to some serial execution order,
// never a torn read or a corrupted index.
func TestStoreConcurrentAccess(t *testing.T) {
	t.Run("concurrent inserts", func(t *testing.T) {
		s := New(3, 0, zap.NewNop())

		numGoroutines := 50
		numOpsEach := 50

		var wg sync.WaitGroup
		wg.Add(numGoroutines)

		var mu sync.Mutex
		seen := make(map[int]bool)

		for g := 0; g < numGoroutines; g++ {
			go func(id int) {
				defer wg.Done()
				for j := 0; j < numOpsEach; j++ {
					uuid := fmt.Sprintf("g%d-u%d", id, j)
					idx, err := s.Insert(Vector{UUID: uuid, Dim: 3, Data: []float64{float64(id), float64(j), 0}})
					if err != nil {
						t.Errorf("insert failed: %v", err)
						continue
					}

					mu.Lock()
					if seen[idx] {
						t.Errorf("index %d returned to two different Insert calls", idx)
					}
					seen[idx] = true
					mu.Unlock()
				}
			}(g)
		}

		wg.Wait()

		assert.Equal(t, numGoroutines*numOpsEach, s.Size())
		assert.Len(t, seen, numGoroutines*numOpsEach, "every Insert must hand out a distinct index")
	})

	t.Run("concurrent reads", func(t *testing.T) {
		s := New(3, 0, zap.NewNop())

		numRecords := 100
		for i := 0; i < numRecords; i++ {
			mustInsert(t, s, fmt.Sprintf("u%d", i), []float64{float64(i), float64(i), float64(i)})
		}

		numReaders := 50
		numReadsEach := 200

		var wg sync.WaitGroup
		wg.Add(numReaders)

		for r := 0; r < numReaders; r++ {
			go func(id int) {
				defer wg.Done()
				for j := 0; j < numReadsEach; j++ {
					idx := j % numRecords
					v, err := s.Get(idx)
					if err != nil {
						t.Errorf("reader %d: get(%d) failed: %v", id, idx, err)
						continue
					}
					want := float64(idx)
					if v.Data[0] != want || v.Data[1] != want || v.Data[2] != want {
						t.Errorf("reader %d: get(%d) returned %v, want all %v", id, idx, v.Data, want)
					}
				}
			}(r)
		}

		wg.Wait()
	})

	t.Run("concurrent mixed operations", func(t *testing.T) {
		s := New(3, 0, zap.NewNop())
		numRecords := 200
		for i := 0; i < numRecords; i++ {
			mustInsert(t, s, fmt.Sprintf("u%d", i), []float64{float64(i), float64(i), float64(i)})
		}

		numGoroutines := 25
		var wg sync.WaitGroup
		wg.Add(numGoroutines * 4)

		// Writers: append new records.
		for g := 0; g < numGoroutines; g++ {
			go func(id int) {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					uuid := fmt.Sprintf("writer-%d-%d", id, j)
					_, _ = s.Insert(Vector{UUID: uuid, Dim: 3, Data: []float64{1, 2, 3}})
				}
			}(g)
		}

		// Updaters: overwrite existing records in place.
		for g := 0; g < numGoroutines; g++ {
			go func(id int) {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					_ = s.Update(j%numRecords, Vector{UUID: fmt.Sprintf("u%d", j%numRecords), Dim: 3, Data: []float64{9, 9, 9}})
				}
			}(g)
		}

		// Deleters: shrink the tail.
		for g := 0; g < numGoroutines; g++ {
			go func(id int) {
				defer wg.Done()
				for j := 0; j < 5; j++ {
					_ = s.Delete(0)
				}
			}(g)
		}

		// Readers/queriers: Get and Nearest, tolerating ErrNotFound as sizes shift.
		for g := 0; g < numGoroutines; g++ {
			go func(id int) {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					_, _ = s.Get(0)
					_, _, _ = s.Nearest([]float64{0, 0, 0})
					time.Sleep(time.Microsecond)
				}
			}(g)
		}

		wg.Wait()

		// The store must still be fully functional after the storm: a
		// fresh insert and a fresh read must agree with each other, the
		// way a correct serialization of the interleaving guarantees.
		idx, err := s.Insert(Vector{UUID: "final", Dim: 3, Data: []float64{7, 7, 7}})
		require.NoError(t, err)
		v, err := s.Get(idx)
		require.NoError(t, err)
		assert.Equal(t, []float64{7, 7, 7}, v.Data)
	})
}
