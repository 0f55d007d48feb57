// Package memdb is an ephemeral, in-memory db.Database used by tests and by
// short-lived tooling that doesn't need durability.
package memdb

import (
	"bytes"
	"fmt"
	"slices"
	"sync"

	"github.com/vocdoni/tallycore/storage/db"
)

// MemDB implements db.Database over a plain map guarded by a single mutex.
// Write transactions are validated optimistically at commit time: the
// database keeps a global commit counter and records, per key, the commit
// at which that key last changed, so Commit can reject any transaction
// whose read or write set was touched by a commit that landed after the
// transaction began.
type MemDB struct {
	mu           sync.RWMutex
	data         map[string][]byte
	lastModified map[string]uint64
	commits      uint64
}

var _ db.Database = (*MemDB)(nil)

// New returns an empty MemDB. opts is accepted for signature parity with
// other backends and is otherwise ignored.
func New(_ db.Options) (*MemDB, error) {
	return &MemDB{
		data:         make(map[string][]byte),
		lastModified: make(map[string]uint64),
	}, nil
}

// Close implements db.Database; a no-op for memdb.
func (d *MemDB) Close() error { return nil }

// Compact implements db.Database; a no-op for memdb.
func (d *MemDB) Compact() error { return nil }

// Get implements db.Database.
func (d *MemDB) Get(key []byte) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.data[string(key)]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return bytes.Clone(v), nil
}

// Iterate implements db.Database.
func (d *MemDB) Iterate(prefix []byte, callback func(key, value []byte) bool) error {
	d.mu.RLock()
	snapshot := d.cloneUnderPrefix(prefix)
	d.mu.RUnlock()
	return iterateSorted(snapshot, prefix, callback)
}

// cloneUnderPrefix copies every live key/value under prefix. Callers must
// hold d.mu.
func (d *MemDB) cloneUnderPrefix(prefix []byte) map[string][]byte {
	out := make(map[string][]byte)
	for k, v := range d.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			out[k] = bytes.Clone(v)
		}
	}
	return out
}

// WriteTx implements db.Database.
func (d *MemDB) WriteTx() db.WriteTx {
	d.mu.RLock()
	start := d.commits
	d.mu.RUnlock()
	return &WriteTx{
		db:      d,
		start:   start,
		pending: make(map[string][]byte),
		deletes: make(map[string]bool),
		touched: make(map[string]bool),
	}
}

// WriteTx buffers writes and deletions until Commit. Every key the
// transaction reads, writes or deletes joins its touched set; Commit
// re-checks the whole set against the per-key last-modified counter and
// fails with db.ErrConflict if any entry changed after the transaction
// started (first committer wins).
type WriteTx struct {
	db      *MemDB
	start   uint64
	pending map[string][]byte
	deletes map[string]bool
	touched map[string]bool
	done    bool
}

var _ db.WriteTx = (*WriteTx)(nil)

// Get implements db.WriteTx, observing the transaction's own buffered
// writes and deletions over the committed state.
func (tx *WriteTx) Get(key []byte) ([]byte, error) {
	k := string(key)
	tx.touched[k] = true
	if tx.deletes[k] {
		return nil, db.ErrKeyNotFound
	}
	if v, ok := tx.pending[k]; ok {
		return bytes.Clone(v), nil
	}
	return tx.db.Get(key)
}

// Iterate implements db.WriteTx, merging buffered writes over the committed
// state. Iterated keys join the touched set the same way point reads do.
func (tx *WriteTx) Iterate(prefix []byte, callback func(k, v []byte) bool) error {
	tx.db.mu.RLock()
	merged := tx.db.cloneUnderPrefix(prefix)
	tx.db.mu.RUnlock()

	for k, v := range tx.pending {
		if bytes.HasPrefix([]byte(k), prefix) {
			merged[k] = bytes.Clone(v)
		}
	}
	for k := range tx.deletes {
		delete(merged, k)
	}
	for k := range merged {
		tx.touched[k] = true
	}
	return iterateSorted(merged, prefix, callback)
}

// Set implements db.WriteTx.
func (tx *WriteTx) Set(key, value []byte) error {
	k := string(key)
	tx.touched[k] = true
	delete(tx.deletes, k)
	tx.pending[k] = bytes.Clone(value)
	return nil
}

// Delete implements db.WriteTx.
func (tx *WriteTx) Delete(key []byte) error {
	k := string(key)
	tx.touched[k] = true
	delete(tx.pending, k)
	tx.deletes[k] = true
	return nil
}

// Unwrap returns tx itself, for use by other memdb Apply implementations.
func (tx *WriteTx) Unwrap() any { return tx }

// Apply implements db.WriteTx, replaying another memdb transaction's
// buffered writes and deletions onto tx.
func (tx *WriteTx) Apply(other db.WriteTx) error {
	otherMem, ok := db.UnwrapWriteTx(other).(*WriteTx)
	if !ok {
		return fmt.Errorf("memdb: Apply requires another memdb transaction")
	}
	for k, v := range otherMem.pending {
		if err := tx.Set([]byte(k), v); err != nil {
			return err
		}
	}
	for k := range otherMem.deletes {
		if err := tx.Delete([]byte(k)); err != nil {
			return err
		}
	}
	return nil
}

// Commit implements db.WriteTx, failing with db.ErrConflict if any touched
// key was modified by a commit that landed after this transaction started.
func (tx *WriteTx) Commit() error {
	if tx.done {
		return fmt.Errorf("memdb: cannot commit: already committed or discarded")
	}

	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()

	for k := range tx.touched {
		if tx.db.lastModified[k] > tx.start {
			return db.ErrConflict
		}
	}

	tx.db.commits++
	for k, v := range tx.pending {
		tx.db.data[k] = v
		tx.db.lastModified[k] = tx.db.commits
	}
	for k := range tx.deletes {
		delete(tx.db.data, k)
		tx.db.lastModified[k] = tx.db.commits
	}
	tx.done = true
	return nil
}

// Discard implements db.WriteTx. Safe to call more than once.
func (tx *WriteTx) Discard() {
	tx.pending = nil
	tx.deletes = nil
	tx.touched = nil
	tx.done = true
}

// iterateSorted invokes callback over entries in ascending key order, with
// the search prefix stripped from the key handed to callback.
func iterateSorted(entries map[string][]byte, prefix []byte, callback func(key, value []byte) bool) error {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		if !callback([]byte(k)[len(prefix):], entries[k]) {
			break
		}
	}
	return nil
}
