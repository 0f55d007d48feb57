// Package db defines the minimal key-value storage abstraction that the
// persistence layer is built on: a Database that can be read directly or
// written to via an isolated WriteTx. Two backends are provided: pebbledb
// (production, disk-backed) and memdb (tests, in-memory).
package db

import "errors"

// ErrKeyNotFound is returned by Get when no value is stored for a key.
var ErrKeyNotFound = errors.New("db: key not found")

// ErrConflict is returned by WriteTx.Commit when a key read or written by
// the transaction was concurrently modified by another committed
// transaction (optimistic-concurrency backends such as memdb).
var ErrConflict = errors.New("db: write conflict")

// Options configures a Database backend. Path is ignored by in-memory
// backends.
type Options struct {
	Path string
}

// Database is a key-value store supporting point reads, prefix iteration,
// and atomic write transactions.
type Database interface {
	// Get returns the value stored for k, or ErrKeyNotFound.
	Get(k []byte) ([]byte, error)
	// Iterate calls callback for every key with the given prefix, in
	// ascending key order, with the prefix stripped from the key passed to
	// callback. Iteration stops early if callback returns false.
	Iterate(prefix []byte, callback func(k, v []byte) bool) error
	// WriteTx starts a new write transaction.
	WriteTx() WriteTx
	// Close releases the backend's resources.
	Close() error
	// Compact reclaims space from deleted/overwritten keys. A no-op on
	// backends that don't need it.
	Compact() error
}

// WriteTx is an isolated set of writes applied atomically on Commit. Reads
// within the transaction observe its own uncommitted writes.
type WriteTx interface {
	Get(k []byte) ([]byte, error)
	Iterate(prefix []byte, callback func(k, v []byte) bool) error
	Set(k, v []byte) error
	Delete(k []byte) error
	// Apply merges another transaction's writes into this one. Both
	// transactions must come from the same underlying Database
	// implementation.
	Apply(other WriteTx) error
	// Commit atomically applies all writes. The transaction is unusable
	// afterward.
	Commit() error
	// Discard abandons the transaction without applying its writes. Safe to
	// call after Commit or a previous Discard.
	Discard()
}

// unwrapper is implemented by WriteTx values that wrap a concrete backend
// transaction, allowing Apply implementations to recover their own backend
// type from a db.WriteTx passed in by the caller.
type unwrapper interface {
	Unwrap() any
}

// UnwrapWriteTx returns the backend-specific transaction wrapped inside tx,
// for use by Apply implementations that need the concrete type of another
// transaction in order to merge it.
func UnwrapWriteTx(tx WriteTx) any {
	if u, ok := tx.(unwrapper); ok {
		return u.Unwrap()
	}
	return tx
}
