package store

import "errors"

var (
	// ErrNotFound means the given index or UUID does not exist in the store.
	ErrNotFound = errors.New("record not found")

	// ErrDimensionMismatch means a record's payload length does not match
	// the store's configured dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrOverflow means the store cannot grow further (size would exceed
	// the maximum representable slice length). Unreachable in practice on
	// 64-bit platforms; preserved as a defined failure mode per the
	// source's capacity-overflow contract.
	ErrOverflow = errors.New("store capacity overflow")

	// ErrUUIDTooLong means a record's UUID does not fit the on-disk
	// fixed-width field (uuidFieldSize bytes, including the NUL
	// terminator/pad). Rejected at Insert/Update time so Save never has
	// to silently truncate it.
	ErrUUIDTooLong = errors.New("uuid exceeds on-disk field width")

	// ErrUUIDExists means the UUID is already held by a different live
	// record. UUID is the store's stable handle, so a collision is
	// rejected rather than silently repointing byUUID at the new record.
	ErrUUIDExists = errors.New("uuid already in use")
)
