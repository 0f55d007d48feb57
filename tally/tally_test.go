package tally

import (
	"fmt"
	"math/big"
	"math/rand"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/vocdoni/tallycore/audit"
	"github.com/vocdoni/tallycore/crypto/paillier"
	"github.com/vocdoni/tallycore/crypto/threshold"
	"github.com/vocdoni/tallycore/storage"
	"github.com/vocdoni/tallycore/storage/db"
	"github.com/vocdoni/tallycore/storage/db/memdb"
	"github.com/vocdoni/tallycore/types"
)

const testBits = 256

type testSetup struct {
	engine *Engine
	store  *storage.Storage
	auditL *audit.Log
	pub    *paillier.PublicKey
	pp     *threshold.PublicParams
	shares []*threshold.KeyShare
}

func setup(c *qt.C, numCandidates, k, n int) (*types.Election, *testSetup) {
	d, err := memdb.New(db.Options{})
	c.Assert(err, qt.IsNil)
	store := storage.New(d)
	auditL := audit.NewLog(store)
	engine := NewEngine(store, auditL)

	candidates := make([]types.Candidate, numCandidates)
	for i := range candidates {
		candidates[i] = types.Candidate{Index: i, Label: string(rune('A' + i))}
	}

	election, priv, err := engine.CreateElection("test election", candidates, testBits)
	c.Assert(err, qt.IsNil)
	c.Assert(engine.ActivateElection(election.ID), qt.IsNil)

	pp, shares, err := threshold.IssueShares(priv, k, n)
	c.Assert(err, qt.IsNil)

	for _, share := range shares {
		commitment := pp.Vi[share.Index-1].Bytes()
		c.Assert(engine.RegisterTrustee(election.ID, fmt.Sprintf("trustee-%c", rune('a'+share.Index)), share.Index, commitment, nil), qt.IsNil)
		c.Assert(engine.ActivateTrustee(election.ID, share.Index), qt.IsNil)
	}

	pub := &paillier.PublicKey{N: election.PublicKey.N.MathBigInt(), G: election.PublicKey.G.MathBigInt()}
	return election, &testSetup{engine: engine, store: store, auditL: auditL, pub: pub, pp: pp, shares: shares}
}

func submitBallots(c *qt.C, ts *testSetup, electionID types.ElectionID, ballots [][]int64) {
	for i, ballot := range ballots {
		cts := make([]*big.Int, len(ballot))
		for j, bit := range ballot {
			ct, err := ts.pub.Encrypt(big.NewInt(bit))
			c.Assert(err, qt.IsNil)
			cts[j] = ct.C
		}
		nonce := []byte{byte(i), byte(i >> 8)}
		_, err := ts.engine.SubmitBallot(electionID, cts, nonce)
		c.Assert(err, qt.IsNil)
	}
}

func submitPartials(c *qt.C, ts *testSetup, electionID types.ElectionID, session *types.TallyingSession, count int) {
	for _, share := range ts.shares[:count] {
		values := make([]*big.Int, len(session.Aggregated.Values))
		proofs := make([]*types.ChaumPedersenProof, len(session.Aggregated.Values))
		for j, cVal := range session.Aggregated.Values {
			d, proof, err := threshold.PartialDecrypt(ts.pp, share, cVal.MathBigInt())
			c.Assert(err, qt.IsNil)
			values[j] = d
			proofs[j] = proof
		}
		_, err := ts.engine.SubmitPartial(ts.pp, electionID, share.Index, values, proofs)
		c.Assert(err, qt.IsNil)
	}
}

// TestTinyElectionEndToEnd matches scenario 1: 3 voters, 2 candidates, K=2,
// N=3, ballots [1,0],[0,1],[1,0], expecting tally {A:2, B:1} and a
// deterministic hash across two independent combinations.
func TestTinyElectionEndToEnd(t *testing.T) {
	c := qt.New(t)
	election, ts := setup(c, 2, 2, 3)

	submitBallots(c, ts, election.ID, [][]int64{{1, 0}, {0, 1}, {1, 0}})

	session, err := ts.engine.StartTally(election.ID, 2)
	c.Assert(err, qt.IsNil)
	session, err = ts.engine.Aggregate(election.ID, ts.pub)
	c.Assert(err, qt.IsNil)

	submitPartials(c, ts, election.ID, session, 2)

	result, err := ts.engine.Finalize(ts.pp, election.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Tally, qt.DeepEquals, []int64{2, 1})
	c.Assert(result.TotalVotes, qt.Equals, int64(3))

	verifier := audit.NewVerifier(ts.store)
	outcome, err := verifier.VerifyResult(election.ID, ts.pp)
	c.Assert(err, qt.IsNil)
	c.Assert(outcome.Valid, qt.IsTrue)
	c.Assert(outcome.RecomputedHash, qt.Equals, result.VerificationHash)
}

// TestThresholdBoundary matches scenario 2.
func TestThresholdBoundary(t *testing.T) {
	c := qt.New(t)
	election, ts := setup(c, 2, 2, 3)
	submitBallots(c, ts, election.ID, [][]int64{{1, 0}, {0, 1}})

	_, err := ts.engine.StartTally(election.ID, 2)
	c.Assert(err, qt.IsNil)
	session, err := ts.engine.Aggregate(election.ID, ts.pub)
	c.Assert(err, qt.IsNil)

	submitPartials(c, ts, election.ID, session, 1)
	_, err = ts.engine.Finalize(ts.pp, election.ID)
	c.Assert(err, qt.ErrorIs, ErrTooFewTrustees)

	// Submit a second, distinct trustee's partial; trustee 1 already submitted.
	rest := *ts
	rest.shares = ts.shares[1:]
	submitPartials(c, &rest, election.ID, session, 1)
	_, err = ts.engine.Finalize(ts.pp, election.ID)
	c.Assert(err, qt.IsNil)
}

// TestBadProof matches scenario 3.
func TestBadProof(t *testing.T) {
	c := qt.New(t)
	election, ts := setup(c, 2, 2, 3)
	submitBallots(c, ts, election.ID, [][]int64{{1, 0}, {0, 1}})

	_, err := ts.engine.StartTally(election.ID, 2)
	c.Assert(err, qt.IsNil)
	session, err := ts.engine.Aggregate(election.ID, ts.pub)
	c.Assert(err, qt.IsNil)

	share := ts.shares[0]
	values := make([]*big.Int, len(session.Aggregated.Values))
	proofs := make([]*types.ChaumPedersenProof, len(session.Aggregated.Values))
	for j, cVal := range session.Aggregated.Values {
		d, proof, err := threshold.PartialDecrypt(ts.pp, share, cVal.MathBigInt())
		c.Assert(err, qt.IsNil)
		values[j] = new(big.Int).Add(d, big.NewInt(1))
		proofs[j] = proof
	}

	got, err := ts.engine.SubmitPartial(ts.pp, election.ID, share.Index, values, proofs)
	c.Assert(err, qt.IsNil)
	c.Assert(got.CompletedTrustees, qt.Equals, 0)

	partial, err := ts.store.PartialDecryption(election.ID, share.Index)
	c.Assert(err, qt.IsNil)
	c.Assert(partial.Verified, qt.IsFalse)
}

// TestDuplicateSubmission matches scenario 4.
func TestDuplicateSubmission(t *testing.T) {
	c := qt.New(t)
	election, ts := setup(c, 2, 2, 3)
	submitBallots(c, ts, election.ID, [][]int64{{1, 0}, {0, 1}})

	_, err := ts.engine.StartTally(election.ID, 2)
	c.Assert(err, qt.IsNil)
	session, err := ts.engine.Aggregate(election.ID, ts.pub)
	c.Assert(err, qt.IsNil)

	submitPartials(c, ts, election.ID, session, 1)

	share := ts.shares[0]
	values := make([]*big.Int, len(session.Aggregated.Values))
	proofs := make([]*types.ChaumPedersenProof, len(session.Aggregated.Values))
	for j, cVal := range session.Aggregated.Values {
		d, proof, err := threshold.PartialDecrypt(ts.pp, share, cVal.MathBigInt())
		c.Assert(err, qt.IsNil)
		values[j] = d
		proofs[j] = proof
	}
	_, err = ts.engine.SubmitPartial(ts.pp, election.ID, share.Index, values, proofs)
	c.Assert(err, qt.ErrorIs, ErrDuplicate)

	got, err := ts.store.Session(election.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.CompletedTrustees, qt.Equals, 1)
}

// TestAggregationOverManyBallots matches scenario 5.
func TestAggregationOverManyBallots(t *testing.T) {
	c := qt.New(t)
	election, ts := setup(c, 3, 3, 5)

	rng := rand.New(rand.NewSource(1))
	ballots := make([][]int64, 100)
	var want [3]int64
	for i := range ballots {
		vote := make([]int64, 3)
		pick := rng.Intn(3)
		vote[pick] = 1
		want[pick]++
		ballots[i] = vote
	}
	submitBallots(c, ts, election.ID, ballots)

	_, err := ts.engine.StartTally(election.ID, 3)
	c.Assert(err, qt.IsNil)
	session, err := ts.engine.Aggregate(election.ID, ts.pub)
	c.Assert(err, qt.IsNil)
	c.Assert(session.Aggregated.BallotCount, qt.Equals, 100)

	submitPartials(c, ts, election.ID, session, 3)
	result, err := ts.engine.Finalize(ts.pp, election.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(result.TotalVotes, qt.Equals, int64(100))
	c.Assert(result.Tally, qt.DeepEquals, []int64{want[0], want[1], want[2]})
}

// TestKeyMismatch matches scenario 6: partial decryptions computed with the
// shares of a different keypair must make finalize fail on the plaintext
// bound rather than report wrong counts.
func TestKeyMismatch(t *testing.T) {
	c := qt.New(t)
	election, ts := setup(c, 2, 2, 3)
	submitBallots(c, ts, election.ID, [][]int64{{1, 0}, {0, 1}})

	_, err := ts.engine.StartTally(election.ID, 2)
	c.Assert(err, qt.IsNil)
	session, err := ts.engine.Aggregate(election.ID, ts.pub)
	c.Assert(err, qt.IsNil)

	_, privB, err := paillier.GenerateKeyPair(testBits)
	c.Assert(err, qt.IsNil)
	ppB, sharesB, err := threshold.IssueShares(privB, 2, 3)
	c.Assert(err, qt.IsNil)

	for _, share := range sharesB[:2] {
		values := make([]*big.Int, len(session.Aggregated.Values))
		proofs := make([]*types.ChaumPedersenProof, len(session.Aggregated.Values))
		for j, cVal := range session.Aggregated.Values {
			d, proof, err := threshold.PartialDecrypt(ppB, share, cVal.MathBigInt())
			c.Assert(err, qt.IsNil)
			values[j] = d
			proofs[j] = proof
		}
		_, err = ts.engine.SubmitPartial(ppB, election.ID, share.Index, values, proofs)
		c.Assert(err, qt.IsNil)
	}

	_, err = ts.engine.Finalize(ppB, election.ID)
	c.Assert(err, qt.ErrorIs, ErrOverflowTally)

	got, err := ts.store.Session(election.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.State, qt.Equals, types.SessionStateFailed)
}

// TestMonotoneSessionStates matches P6: once completed or failed, no further
// transitions are accepted.
func TestMonotoneSessionStates(t *testing.T) {
	c := qt.New(t)
	election, ts := setup(c, 2, 1, 1)
	submitBallots(c, ts, election.ID, [][]int64{{1, 0}})

	_, err := ts.engine.StartTally(election.ID, 1)
	c.Assert(err, qt.IsNil)
	session, err := ts.engine.Aggregate(election.ID, ts.pub)
	c.Assert(err, qt.IsNil)
	submitPartials(c, ts, election.ID, session, 1)
	_, err = ts.engine.Finalize(ts.pp, election.ID)
	c.Assert(err, qt.IsNil)

	_, err = ts.engine.Aggregate(election.ID, ts.pub)
	c.Assert(err, qt.ErrorIs, ErrState)

	err = ts.engine.Fail(election.ID, "late reset attempt")
	c.Assert(err, qt.ErrorIs, ErrState)
}

// TestResetSessionAfterFailure covers the operator recovery path: a failed
// session is deleted and the election reopened so tallying can restart.
func TestResetSessionAfterFailure(t *testing.T) {
	c := qt.New(t)
	election, ts := setup(c, 2, 2, 3)
	submitBallots(c, ts, election.ID, [][]int64{{1, 0}, {0, 1}})

	_, err := ts.engine.StartTally(election.ID, 2)
	c.Assert(err, qt.IsNil)

	// Only failed sessions can be reset.
	err = ts.engine.ResetSession(election.ID)
	c.Assert(err, qt.ErrorIs, ErrState)

	c.Assert(ts.engine.Fail(election.ID, "trustee ceremony aborted"), qt.IsNil)
	c.Assert(ts.engine.ResetSession(election.ID), qt.IsNil)

	_, err = ts.store.Session(election.ID)
	c.Assert(err, qt.ErrorIs, storage.ErrNotFound)

	_, err = ts.engine.StartTally(election.ID, 2)
	c.Assert(err, qt.IsNil)
}

// TestAuditCompleteness matches P7: every state-changing call, success or
// failure, produces exactly one audit entry.
func TestAuditCompleteness(t *testing.T) {
	c := qt.New(t)
	election, ts := setup(c, 2, 1, 1)

	before, err := ts.auditL.List(election.ID)
	c.Assert(err, qt.IsNil)
	baseline := len(before)

	_, err = ts.engine.StartTally(election.ID, 1)
	c.Assert(err, qt.ErrorIs, ErrState) // no ballots yet

	after, err := ts.auditL.List(election.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(len(after), qt.Equals, baseline+1)
}
