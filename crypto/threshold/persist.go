package threshold

import (
	"math/big"

	"github.com/vocdoni/tallycore/crypto/paillier"
	"github.com/vocdoni/tallycore/types"
)

// ToStoredParams converts pp into its persisted form. The Paillier public
// key itself is not duplicated here: the caller's Election record already
// carries (n, g), and FromStoredParams takes it back in as a parameter.
func (pp *PublicParams) ToStoredParams(electionID types.ElectionID) *types.ThresholdParams {
	vi := make([]*types.BigInt, len(pp.Vi))
	for i, v := range pp.Vi {
		vi[i] = types.NewBigInt(v)
	}
	return &types.ThresholdParams{
		ElectionID: electionID,
		Threshold:  pp.Threshold,
		Total:      pp.Total,
		V:          types.NewBigInt(pp.V),
		Vi:         vi,
	}
}

// FromStoredParams reconstructs a PublicParams from its persisted form and
// the election's Paillier public key, undoing ToStoredParams.
func FromStoredParams(pub *paillier.PublicKey, tp *types.ThresholdParams) *PublicParams {
	vi := make([]*big.Int, len(tp.Vi))
	for i, v := range tp.Vi {
		vi[i] = v.MathBigInt()
	}
	return &PublicParams{
		PublicKey: pub,
		Threshold: tp.Threshold,
		Total:     tp.Total,
		V:         tp.V.MathBigInt(),
		Vi:        vi,
	}
}
