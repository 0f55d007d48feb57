package audit

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/vocdoni/tallycore/crypto/threshold"
	"github.com/vocdoni/tallycore/storage"
	"github.com/vocdoni/tallycore/types"
)

// toMathBigInts unwraps a slice of *types.BigInt into their *big.Int views.
func toMathBigInts(in []*types.BigInt) []*big.Int {
	out := make([]*big.Int, len(in))
	for i, v := range in {
		out[i] = v.MathBigInt()
	}
	return out
}

// VerificationOutcome is the result of re-deriving an election's tally from
// its persisted aggregated ciphertext and partial decryptions.
type VerificationOutcome struct {
	Valid          bool
	RecomputedHash string
}

// Verifier recomputes a finalized election's combined plaintexts and
// verification hash from the persisted aggregated ciphertext and verified
// partial decryptions, and compares the result against the stored
// ElectionResult.
type Verifier struct {
	store *storage.Storage
}

// NewVerifier constructs a Verifier backed by store.
func NewVerifier(store *storage.Storage) *Verifier {
	return &Verifier{store: store}
}

// VerifyResult re-fetches the aggregated ciphertext and verified partial
// decryptions for electionID, recombines and rehashes them, and reports
// whether they match the persisted ElectionResult. It recombines from
// exactly the same trustee subset Finalize used — the lowest-indexed
// RequiredTrustees verified partials — since recombining from a different,
// larger subset changes the index list fed into CanonicalDigest and would
// make a correctly finalized election look tampered.
func (v *Verifier) VerifyResult(electionID types.ElectionID, pp *threshold.PublicParams) (*VerificationOutcome, error) {
	session, err := v.store.Session(electionID)
	if err != nil {
		return nil, fmt.Errorf("audit: session not found: %w", err)
	}
	if session.Aggregated == nil {
		return nil, fmt.Errorf("audit: election has no aggregated ciphertext")
	}
	result, err := v.store.Result(electionID)
	if err != nil {
		return nil, fmt.Errorf("audit: result not found: %w", err)
	}

	var verified []*types.PartialDecryption
	if err := v.store.ListPartialDecryptions(electionID, func(p *types.PartialDecryption) bool {
		if p.Verified {
			verified = append(verified, p)
		}
		return true
	}); err != nil {
		return nil, err
	}
	sort.Slice(verified, func(i, j int) bool { return verified[i].TrusteeIndex < verified[j].TrusteeIndex })
	if len(verified) < session.RequiredTrustees {
		return nil, fmt.Errorf("audit: have %d verified trustees, need %d", len(verified), session.RequiredTrustees)
	}
	chosen := verified[:session.RequiredTrustees]

	tally := make([]int64, len(session.Aggregated.Values))
	for j := range session.Aggregated.Values {
		shares := make([]threshold.Share, 0, len(chosen))
		for _, p := range chosen {
			shares = append(shares, threshold.Share{
				Index:      p.TrusteeIndex,
				Decryption: p.Values[j].MathBigInt(),
			})
		}
		m, err := pp.Combine(shares)
		if err != nil {
			return nil, fmt.Errorf("audit: recombining candidate %d: %w", j, err)
		}
		tally[j] = m.Int64()
	}

	indices := make([]int, 0, len(chosen))
	for _, p := range chosen {
		indices = append(indices, p.TrusteeIndex)
	}

	cVals := toMathBigInts(session.Aggregated.Values)
	_, recomputedHash, err := CanonicalDigest(electionID, pp.PublicKey.N, cVals, tally, indices)
	if err != nil {
		return nil, err
	}

	valid := recomputedHash == result.VerificationHash && len(result.Tally) == len(tally)
	if valid {
		for j := range tally {
			if tally[j] != result.Tally[j] {
				valid = false
				break
			}
		}
	}

	return &VerificationOutcome{Valid: valid, RecomputedHash: recomputedHash}, nil
}
