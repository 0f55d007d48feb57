package tally

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/vocdoni/tallycore/audit"
	"github.com/vocdoni/tallycore/crypto/paillier"
	"github.com/vocdoni/tallycore/storage"
	"github.com/vocdoni/tallycore/storage/db"
	"github.com/vocdoni/tallycore/storage/db/memdb"
	"github.com/vocdoni/tallycore/types"
)

// TestIssueKeySharesRoundTrip exercises the trusted-dealer ceremony end to
// end: shares are issued, sealed, persisted per-trustee, and PublicParams
// reconstructs into something Finalize/Verify can use.
func TestIssueKeySharesRoundTrip(t *testing.T) {
	c := qt.New(t)
	d, err := memdb.New(db.Options{})
	c.Assert(err, qt.IsNil)
	store := storage.New(d)
	engine := NewEngine(store, audit.NewLog(store))

	candidates := []types.Candidate{{Index: 0, Label: "A"}, {Index: 1, Label: "B"}}
	election, priv, err := engine.CreateElection("ceremony test", candidates, testBits)
	c.Assert(err, qt.IsNil)

	credential := []byte("operator-credential")
	pp, err := engine.IssueKeyShares(election.ID, priv, []string{"trustee-a", "trustee-b", "trustee-c"}, 2, credential)
	c.Assert(err, qt.IsNil)
	c.Assert(pp.Threshold, qt.Equals, 2)
	c.Assert(pp.Total, qt.Equals, 3)

	// The private key must be zeroized by the time the call returns.
	c.Assert(priv.Lambda.Sign(), qt.Equals, 0)

	trustee, err := store.Trustee(election.ID, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(trustee.Status, qt.Equals, types.TrusteeStatusPending)
	c.Assert(len(trustee.EncryptedShare) > 0, qt.IsTrue)

	reloaded, err := engine.PublicParams(election.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(reloaded.Threshold, qt.Equals, pp.Threshold)
	c.Assert(reloaded.Total, qt.Equals, pp.Total)
	c.Assert(reloaded.V.Cmp(pp.V), qt.Equals, 0)
	for i := range pp.Vi {
		c.Assert(reloaded.Vi[i].Cmp(pp.Vi[i]), qt.Equals, 0)
	}
}

// TestIssueKeySharesConflict ensures the ceremony cannot run twice for the
// same election.
func TestIssueKeySharesConflict(t *testing.T) {
	c := qt.New(t)
	d, err := memdb.New(db.Options{})
	c.Assert(err, qt.IsNil)
	store := storage.New(d)
	engine := NewEngine(store, audit.NewLog(store))

	candidates := []types.Candidate{{Index: 0, Label: "A"}}
	election, priv, err := engine.CreateElection("conflict test", candidates, testBits)
	c.Assert(err, qt.IsNil)

	_, err = engine.IssueKeyShares(election.ID, priv, []string{"t1", "t2"}, 1, []byte("cred"))
	c.Assert(err, qt.IsNil)

	_, priv2, err := paillier.GenerateKeyPair(testBits)
	c.Assert(err, qt.IsNil)
	_, err = engine.IssueKeyShares(election.ID, priv2, []string{"t3", "t4"}, 1, []byte("cred"))
	c.Assert(err, qt.ErrorIs, ErrConflict)
}
