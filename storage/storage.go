// Package storage is the persistence layer backing the tallying core: a
// prefixed key-value store over a db.Database that keeps one table per
// record kind. The following prefixes are used:
//   - 'e/'  for elections
//   - 't/'  for trustees
//   - 'v/'  for encrypted ballots (votes)
//   - 'pd/' for partial decryptions
//   - 's/'  for tallying sessions
//   - 'r/'  for election results
//   - 'a/'  for the append-only audit log
//   - 'pp/' for threshold public ceremony parameters
package storage

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/vocdoni/tallycore/storage/db"
)

var (
	electionPrefix = []byte("e/")
	trusteePrefix  = []byte("t/")
	ballotPrefix   = []byte("v/")
	partialPrefix  = []byte("pd/")
	sessionPrefix  = []byte("s/")
	resultPrefix   = []byte("r/")
	auditPrefix    = []byte("a/")

	// ErrKeyAlreadyExists is returned by set operations that must not
	// overwrite an existing record (elections, ballots, partial decryptions,
	// results, and every audit append).
	ErrKeyAlreadyExists = fmt.Errorf("storage: key already exists")
	// ErrNotFound is returned when a record is looked up by key and absent.
	ErrNotFound = fmt.Errorf("storage: key not found")
	// ErrNoMoreElements is not returned by any Storage method; lookups of
	// absent records return ErrNotFound.
	ErrNoMoreElements = fmt.Errorf("storage: no more elements")
)

// Storage wraps a db.Database with typed accessors for every record kind the
// tallying core persists.
type Storage struct {
	db db.Database
}

// New creates a Storage instance backed by d.
func New(d db.Database) *Storage {
	return &Storage{db: d}
}

// Close closes the underlying database.
func (s *Storage) Close() error {
	return s.db.Close()
}

// setArtifact gob-encodes artifact and stores it under prefix/key. It
// returns ErrKeyAlreadyExists if overwrite is false and the key is already
// present.
func setArtifact(d db.Database, prefix, key []byte, artifact any, overwrite bool) error {
	buf := bytes.NewBuffer(nil)
	if err := gob.NewEncoder(buf).Encode(artifact); err != nil {
		return fmt.Errorf("storage: could not encode artifact: %w", err)
	}

	reader := newPrefixedReader(d, prefix)
	if !overwrite {
		if _, err := reader.Get(key); err == nil {
			return ErrKeyAlreadyExists
		}
	}

	wTx := newPrefixedWriteTx(d.WriteTx(), prefix)
	if err := wTx.Set(key, buf.Bytes()); err != nil {
		wTx.Discard()
		return err
	}
	return wTx.Commit()
}

// getArtifact decodes the value stored under prefix/key into a fresh *T.
func getArtifact[T any](d db.Database, prefix, key []byte) (*T, error) {
	data, err := newPrefixedReader(d, prefix).Get(key)
	if err != nil {
		if err == db.ErrKeyNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	out := new(T)
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(out); err != nil {
		return nil, fmt.Errorf("storage: could not decode artifact: %w", err)
	}
	return out, nil
}

// deleteArtifact removes the value stored under prefix/key.
func deleteArtifact(d db.Database, prefix, key []byte) error {
	wTx := newPrefixedWriteTx(d.WriteTx(), prefix)
	if err := wTx.Delete(key); err != nil {
		wTx.Discard()
		return err
	}
	return wTx.Commit()
}

// iterateArtifacts decodes every value under prefix into a *T and invokes
// callback with each, in key order. Iteration stops early if callback
// returns false.
func iterateArtifacts[T any](d db.Database, prefix []byte, callback func(key []byte, item *T) bool) error {
	reader := newPrefixedReader(d, prefix)
	var iterErr error
	err := reader.Iterate(nil, func(k, v []byte) bool {
		out := new(T)
		if err := gob.NewDecoder(bytes.NewReader(v)).Decode(out); err != nil {
			iterErr = fmt.Errorf("storage: could not decode artifact: %w", err)
			return false
		}
		return callback(k, out)
	})
	if err != nil {
		return err
	}
	return iterErr
}
