package tally

import (
	"fmt"

	"github.com/vocdoni/tallycore/crypto/paillier"
	"github.com/vocdoni/tallycore/crypto/threshold"
	"github.com/vocdoni/tallycore/storage"
	"github.com/vocdoni/tallycore/types"
)

// zeroizePrivateKey clears the sensitive scalars of priv in place. This is
// best-effort (the Go runtime may have left copies behind from prior
// arithmetic) but ensures the caller's reference can no longer yield the
// secret once the ceremony step that needed it returns.
func zeroizePrivateKey(priv *paillier.PrivateKey) {
	if priv == nil {
		return
	}
	if priv.Lambda != nil {
		priv.Lambda.SetInt64(0)
	}
	if priv.Mu != nil {
		priv.Mu.SetInt64(0)
	}
}

// IssueKeyShares runs the trusted-dealer key-issuance ceremony for an
// election already created with CreateElection: it splits priv into a
// K-of-len(trusteeIDs) Shamir sharing, seals each share at rest with a key
// derived from credential, registers every trustee (pending, awaiting
// ActivateTrustee) with its sealed share and Feldman commitment, and
// persists the resulting threshold public parameters. priv is zeroized
// before this returns, on both the success and failure path: the caller
// must not reuse it afterward.
func (e *Engine) IssueKeyShares(electionID types.ElectionID, priv *paillier.PrivateKey, trusteeIDs []string, k int, credential []byte) (*threshold.PublicParams, error) {
	defer zeroizePrivateKey(priv)

	n := len(trusteeIDs)
	pp, shares, err := threshold.IssueShares(priv, k, n)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrCrypto, err)
		e.logFailure(electionID, "issue_key_shares", "operator", wrapped)
		return nil, wrapped
	}

	if err := e.store.SetThresholdParams(pp.ToStoredParams(electionID)); err != nil {
		if err == storage.ErrKeyAlreadyExists {
			err = fmt.Errorf("%w: key ceremony already ran for this election", ErrConflict)
		}
		e.logFailure(electionID, "issue_key_shares", "operator", err)
		return nil, err
	}

	for i, share := range shares {
		sealed, err := threshold.Seal(share, credential)
		if err != nil {
			wrapped := fmt.Errorf("%w: sealing share for trustee %d: %v", ErrCrypto, share.Index, err)
			e.logFailure(electionID, "issue_key_shares", "operator", wrapped)
			return nil, wrapped
		}
		if err := e.RegisterTrustee(electionID, trusteeIDs[i], share.Index, pp.Vi[i].Bytes(), sealed); err != nil {
			return nil, err
		}
	}

	e.logSuccess(electionID, "issue_key_shares", "operator", fmt.Sprintf("threshold=%d total=%d", k, n))
	return pp, nil
}

// PublicParams reconstructs the threshold public parameters for electionID
// from the election's Paillier public key and the persisted ceremony
// record, for use by SubmitPartial, Finalize and audit.Verifier.
func (e *Engine) PublicParams(electionID types.ElectionID) (*threshold.PublicParams, error) {
	election, err := e.store.Election(electionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	tp, err := e.store.ThresholdParams(electionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	pub := &paillier.PublicKey{N: election.PublicKey.N.MathBigInt(), G: election.PublicKey.G.MathBigInt()}
	return threshold.FromStoredParams(pub, tp), nil
}
