package store

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// uuidFieldSize is the on-disk width of the UUID field: a 36-character
// canonical UUID string plus one NUL terminator/pad byte.
const uuidFieldSize = 37

// Save writes the store's live records to path in the canonical binary
// format:
//
//	[8 bytes size, little-endian uint64]
//	repeat size times:
//	  [37 bytes uuid, NUL-padded]
//	  [8 bytes dimension, little-endian uint64]
//	  [8*dimension bytes payload, float64 little-endian, in vector order]
//
// Degenerate records (dimension 0 or nil payload) are skipped with a
// warning logged rather than failing the whole save.
func (s *Store) Save(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s for writing: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	live := make([]Vector, 0, len(s.records))
	for i, rec := range s.records {
		if rec.Dim == 0 || rec.Data == nil {
			s.log.Warn("skipping degenerate record on save", zap.Int("index", i))
			continue
		}
		live = append(live, rec)
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(live))); err != nil {
		return fmt.Errorf("write size: %w", err)
	}

	for _, rec := range live {
		if err := writeUUID(w, rec.UUID); err != nil {
			return fmt.Errorf("write uuid: %w", err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(len(rec.Data))); err != nil {
			return fmt.Errorf("write dimension: %w", err)
		}
		if err := binary.Write(w, binary.LittleEndian, rec.Data); err != nil {
			return fmt.Errorf("write payload: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	s.log.Info("database saved",
		zap.String("path", path),
		zap.Int("records", len(live)),
	)
	return nil
}

// Load reconstructs a store from path, validating that every record's
// dimension equals dim, then rebuilds the k-d tree by inserting records
// in ascending index order. On any I/O or format failure the partial
// read is discarded and a non-nil error returned; the caller should
// fall back to New(dim, 0, log) rather than using a half-built store.
func Load(path string, dim int, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s for reading: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var size uint64
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, fmt.Errorf("read size: %w", err)
	}

	s := New(dim, int(size), log)

	for i := uint64(0); i < size; i++ {
		uuid, err := readUUID(r)
		if err != nil {
			return nil, fmt.Errorf("read uuid at record %d: %w", i, err)
		}

		var recDim uint64
		if err := binary.Read(r, binary.LittleEndian, &recDim); err != nil {
			return nil, fmt.Errorf("read dimension at record %d: %w", i, err)
		}
		if int(recDim) != dim {
			return nil, fmt.Errorf("%w: record %d has dimension %d, expected %d", ErrDimensionMismatch, i, recDim, dim)
		}

		data := make([]float64, recDim)
		if err := binary.Read(r, binary.LittleEndian, data); err != nil {
			return nil, fmt.Errorf("read payload at record %d: %w", i, err)
		}

		s.records = append(s.records, Vector{UUID: uuid, Dim: int(recDim), Data: data})
		s.byUUID[uuid] = int(i)
	}

	// Rebuild the tree from the freshly loaded sequence, in ascending
	// index order — the one point where tree and store are guaranteed
	// to agree (see store.go's package doc comment).
	for i, rec := range s.records {
		s.tree.Insert(rec.Data, i)
	}
	s.stale = 0

	log.Info("database loaded",
		zap.String("path", path),
		zap.Int("records", len(s.records)),
	)
	return s, nil
}

func writeUUID(w io.Writer, uuid string) error {
	var buf [uuidFieldSize]byte
	copy(buf[:], uuid)
	_, err := w.Write(buf[:])
	return err
}

func readUUID(r io.Reader) (string, error) {
	var buf [uuidFieldSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return "", err
	}
	n := 0
	for n < len(buf) && buf[n] != 0 {
		n++
	}
	return string(buf[:n]), nil
}
