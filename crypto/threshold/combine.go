package threshold

import (
	"fmt"
	"math/big"

	"github.com/vocdoni/tallycore/crypto/paillier"
)

// Share is one trustee's verified partial decryption of a single ciphertext,
// the minimal input Combine needs: the trustee index and the raw d_{i,j}
// value produced by PartialDecrypt.
type Share struct {
	Index      int
	Decryption *big.Int
}

// combineSharesConstant returns (4*delta^2)^-1 mod n, the constant factor
// applied once the delta-scaled Lagrange combination has produced
// c'= c^(4*delta^2*secret) mod n2.
func (pp *PublicParams) combineSharesConstant() *big.Int {
	delta := pp.delta()
	tmp := new(big.Int).Mul(four, new(big.Int).Mul(delta, delta))
	return new(big.Int).ModInverse(tmp, pp.PublicKey.N)
}

func (pp *PublicParams) computeLambda(share Share, shares []Share) *big.Int {
	lambda := pp.delta()
	for _, other := range shares {
		if other.Index == share.Index {
			continue
		}
		num := new(big.Int).Mul(lambda, big.NewInt(int64(-other.Index)))
		denom := big.NewInt(int64(share.Index - other.Index))
		lambda = new(big.Int).Div(num, denom)
	}
	return lambda
}

// Combine reconstructs C^(4*delta^2*d) mod n² from at least Threshold
// verified partial decryptions and finalizes it into the plaintext
// m = (4*delta^2)^-1 * L(c') mod n. No separate Paillier mu factor is
// applied here: the shared secret d (see secretScalar) is constructed so
// that d ≡ 1 (mod n), which folds the mu inversion into d itself, and
// d ≡ 0 (mod λ), which cancels the r^n term exactly as decrypting with λ
// directly would.
func (pp *PublicParams) Combine(shares []Share) (*big.Int, error) {
	if len(shares) < pp.Threshold {
		return nil, fmt.Errorf("%w: have %d shares, need %d", ErrCombine, len(shares), pp.Threshold)
	}
	seen := make(map[int]bool, len(shares))
	for _, s := range shares {
		if seen[s.Index] {
			return nil, fmt.Errorf("%w: duplicate trustee index %d", ErrCombine, s.Index)
		}
		seen[s.Index] = true
	}

	nSquare := pp.nSquare()
	cprime := big.NewInt(1)
	for _, share := range shares {
		lambda := pp.computeLambda(share, shares)
		twoLambda := new(big.Int).Mul(two, lambda)
		term := expSigned(share.Decryption, twoLambda, nSquare)
		cprime = new(big.Int).Mod(new(big.Int).Mul(cprime, term), nSquare)
	}

	l := paillier.L(cprime, pp.PublicKey.N)
	m := new(big.Int).Mod(new(big.Int).Mul(pp.combineSharesConstant(), l), pp.PublicKey.N)
	return m, nil
}

// expSigned computes a^b mod m, accepting a negative exponent b by
// inverting a modulo m first.
func expSigned(a, b, m *big.Int) *big.Int {
	if b.Sign() < 0 {
		inv := new(big.Int).ModInverse(a, m)
		return new(big.Int).Exp(inv, new(big.Int).Neg(b), m)
	}
	return new(big.Int).Exp(a, b, m)
}
