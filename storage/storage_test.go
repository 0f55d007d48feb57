package storage

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/vocdoni/tallycore/storage/db"
	"github.com/vocdoni/tallycore/storage/db/memdb"
	"github.com/vocdoni/tallycore/types"
)

func newTestStorage(c *qt.C) *Storage {
	d, err := memdb.New(db.Options{})
	c.Assert(err, qt.IsNil)
	return New(d)
}

func TestElectionCRUD(t *testing.T) {
	c := qt.New(t)
	s := newTestStorage(c)

	election := &types.Election{
		ID:        types.NewElectionID(),
		Title:     "referendum",
		State:     types.ElectionStatePending,
		CreatedAt: time.Now().UTC(),
	}
	c.Assert(s.SetElection(election), qt.IsNil)

	err := s.SetElection(election)
	c.Assert(err, qt.ErrorIs, ErrKeyAlreadyExists)

	got, err := s.Election(election.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Title, qt.Equals, "referendum")

	got.State = types.ElectionStateActive
	c.Assert(s.UpdateElection(got), qt.IsNil)

	got2, err := s.Election(election.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got2.State, qt.Equals, types.ElectionStateActive)
}

func TestBallotReplayGuard(t *testing.T) {
	c := qt.New(t)
	s := newTestStorage(c)

	electionID := types.NewElectionID()
	ballot := &types.EncryptedBallot{
		ElectionID:  electionID,
		Ciphertexts: []*types.BigInt{types.NewBigInt(nil)},
		Nonce:       types.HexBytes("nonce-1"),
	}
	c.Assert(s.SetBallot(ballot), qt.IsNil)

	err := s.SetBallot(ballot)
	c.Assert(err, qt.ErrorIs, ErrKeyAlreadyExists)

	count, err := s.CountBallots(electionID)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 1)
}

func TestPartialDecryptionUniqueness(t *testing.T) {
	c := qt.New(t)
	s := newTestStorage(c)

	electionID := types.NewElectionID()
	p := &types.PartialDecryption{ElectionID: electionID, TrusteeIndex: 1}
	c.Assert(s.SetPartialDecryption(p), qt.IsNil)

	err := s.SetPartialDecryption(p)
	c.Assert(err, qt.ErrorIs, ErrKeyAlreadyExists)

	var all []*types.PartialDecryption
	err = s.ListPartialDecryptions(electionID, func(pd *types.PartialDecryption) bool {
		all = append(all, pd)
		return true
	})
	c.Assert(err, qt.IsNil)
	c.Assert(all, qt.HasLen, 1)
}

func TestResultImmutable(t *testing.T) {
	c := qt.New(t)
	s := newTestStorage(c)

	electionID := types.NewElectionID()
	result := &types.ElectionResult{ElectionID: electionID, Tally: []int64{1, 2}, VerificationHash: "abc"}
	c.Assert(s.SetResult(result), qt.IsNil)

	err := s.SetResult(result)
	c.Assert(err, qt.ErrorIs, ErrKeyAlreadyExists)

	c.Assert(s.SetResultBlockchainTxHash(electionID, "0xdeadbeef"), qt.IsNil)
	got, err := s.Result(electionID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.BlockchainTxHash, qt.Equals, "0xdeadbeef")
	c.Assert(got.VerificationHash, qt.Equals, "abc")
}

func TestAuditLogAppendOnly(t *testing.T) {
	c := qt.New(t)
	s := newTestStorage(c)

	electionID := types.NewElectionID()
	for i := 0; i < 3; i++ {
		entry := &types.AuditEntry{
			ElectionID: electionID,
			Operation:  "submit_ballot",
			Status:     types.AuditStatusSuccess,
			Timestamp:  time.Now().UTC(),
		}
		c.Assert(s.AppendAudit(entry), qt.IsNil)
	}

	var entries []*types.AuditEntry
	err := s.ListAuditLog(electionID, func(e *types.AuditEntry) bool {
		entries = append(entries, e)
		return true
	})
	c.Assert(err, qt.IsNil)
	c.Assert(entries, qt.HasLen, 3)
}
