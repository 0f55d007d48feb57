package storage

import "github.com/vocdoni/tallycore/storage/db"

// prefixedReader is a read-only view of a db.Database restricted to keys
// under a fixed prefix, with the prefix transparently stripped/added.
type prefixedReader struct {
	d      db.Database
	prefix []byte
}

func newPrefixedReader(d db.Database, prefix []byte) *prefixedReader {
	return &prefixedReader{d: d, prefix: prefix}
}

func (r *prefixedReader) fullKey(k []byte) []byte {
	full := make([]byte, 0, len(r.prefix)+len(k))
	full = append(full, r.prefix...)
	full = append(full, k...)
	return full
}

func (r *prefixedReader) Get(k []byte) ([]byte, error) {
	return r.d.Get(r.fullKey(k))
}

func (r *prefixedReader) Iterate(innerPrefix []byte, callback func(k, v []byte) bool) error {
	return r.d.Iterate(r.fullKey(innerPrefix), callback)
}

// prefixedWriteTx is a db.WriteTx restricted to keys under a fixed prefix.
type prefixedWriteTx struct {
	tx     db.WriteTx
	prefix []byte
}

func newPrefixedWriteTx(tx db.WriteTx, prefix []byte) *prefixedWriteTx {
	return &prefixedWriteTx{tx: tx, prefix: prefix}
}

func (w *prefixedWriteTx) fullKey(k []byte) []byte {
	full := make([]byte, 0, len(w.prefix)+len(k))
	full = append(full, w.prefix...)
	full = append(full, k...)
	return full
}

func (w *prefixedWriteTx) Set(k, v []byte) error {
	return w.tx.Set(w.fullKey(k), v)
}

func (w *prefixedWriteTx) Delete(k []byte) error {
	return w.tx.Delete(w.fullKey(k))
}

func (w *prefixedWriteTx) Commit() error {
	return w.tx.Commit()
}

func (w *prefixedWriteTx) Discard() {
	w.tx.Discard()
}
