package memdb

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/vocdoni/tallycore/storage/db"
)

func TestGetSetRoundTrip(t *testing.T) {
	c := qt.New(t)
	d, err := New(db.Options{})
	c.Assert(err, qt.IsNil)

	_, err = d.Get([]byte("missing"))
	c.Assert(err, qt.ErrorIs, db.ErrKeyNotFound)

	tx := d.WriteTx()
	c.Assert(tx.Set([]byte("k1"), []byte("v1")), qt.IsNil)
	c.Assert(tx.Commit(), qt.IsNil)

	got, err := d.Get([]byte("k1"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(got), qt.Equals, "v1")
}

func TestIteratePrefixStripped(t *testing.T) {
	c := qt.New(t)
	d, err := New(db.Options{})
	c.Assert(err, qt.IsNil)

	tx := d.WriteTx()
	c.Assert(tx.Set([]byte("p/a"), []byte("1")), qt.IsNil)
	c.Assert(tx.Set([]byte("p/b"), []byte("2")), qt.IsNil)
	c.Assert(tx.Set([]byte("q/c"), []byte("3")), qt.IsNil)
	c.Assert(tx.Commit(), qt.IsNil)

	seen := map[string]string{}
	err = d.Iterate([]byte("p/"), func(k, v []byte) bool {
		seen[string(k)] = string(v)
		return true
	})
	c.Assert(err, qt.IsNil)
	c.Assert(seen, qt.DeepEquals, map[string]string{"a": "1", "b": "2"})
}

func TestDeleteRemovesKey(t *testing.T) {
	c := qt.New(t)
	d, err := New(db.Options{})
	c.Assert(err, qt.IsNil)

	tx := d.WriteTx()
	c.Assert(tx.Set([]byte("k"), []byte("v")), qt.IsNil)
	c.Assert(tx.Commit(), qt.IsNil)

	tx2 := d.WriteTx()
	c.Assert(tx2.Delete([]byte("k")), qt.IsNil)
	c.Assert(tx2.Commit(), qt.IsNil)

	_, err = d.Get([]byte("k"))
	c.Assert(err, qt.ErrorIs, db.ErrKeyNotFound)
}

func TestCommitConflict(t *testing.T) {
	c := qt.New(t)
	d, err := New(db.Options{})
	c.Assert(err, qt.IsNil)

	seedTx := d.WriteTx()
	c.Assert(seedTx.Set([]byte("k"), []byte("seed")), qt.IsNil)
	c.Assert(seedTx.Commit(), qt.IsNil)

	tx1 := d.WriteTx()
	_, err = tx1.Get([]byte("k"))
	c.Assert(err, qt.IsNil)

	tx2 := d.WriteTx()
	c.Assert(tx2.Set([]byte("k"), []byte("winner")), qt.IsNil)
	c.Assert(tx2.Commit(), qt.IsNil)

	c.Assert(tx1.Set([]byte("k"), []byte("loser")), qt.IsNil)
	err = tx1.Commit()
	c.Assert(err, qt.ErrorIs, db.ErrConflict)

	got, err := d.Get([]byte("k"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(got), qt.Equals, "winner")
}

func TestDiscardAbandonsWrites(t *testing.T) {
	c := qt.New(t)
	d, err := New(db.Options{})
	c.Assert(err, qt.IsNil)

	tx := d.WriteTx()
	c.Assert(tx.Set([]byte("k"), []byte("v")), qt.IsNil)
	tx.Discard()

	_, err = d.Get([]byte("k"))
	c.Assert(err, qt.ErrorIs, db.ErrKeyNotFound)
}
