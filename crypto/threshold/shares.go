// Package threshold implements Shamir-style splitting of a Paillier private
// key across N trustees, threshold-K reconstruction of partial decryptions
// via Lagrange interpolation, and Chaum-Pedersen zero-knowledge proofs of
// correct partial decryption. The share-combining arithmetic follows the
// delta-scaled Lagrange scheme described in Damgård-Jurik-Nielsen's
// generalization of Paillier to threshold decryption: the secret shared is
// not λ itself but the CRT-derived scalar d (see secretScalar), so that
// combining K shares recovers the plaintext directly with no separate μ
// finalization step.
package threshold

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/vocdoni/tallycore/crypto/paillier"
)

var (
	one  = big.NewInt(1)
	two  = big.NewInt(2)
	four = big.NewInt(4)
)

// coefficientSecurityBits is the extra bit-length above d given to the
// non-constant Shamir coefficients, so d's magnitude is statistically
// hidden by any single share.
const coefficientSecurityBits = 128

// PublicParams is the public material produced at share-issuance time:
// the Paillier public key, the (K, N) threshold parameters, and the
// Feldman-style commitments (V, Vi) used to verify partial decryptions.
type PublicParams struct {
	PublicKey *paillier.PublicKey
	Threshold int
	Total     int
	V         *big.Int   // generator of the squares subgroup of Z*_n2
	Vi        []*big.Int // Vi[i-1] = V^(delta*s_i) mod n2, the commitment for trustee i
}

// KeyShare is trustee i's point (i, s_i) on the degree-(K-1) polynomial,
// evaluated over the integers (never reduced modulo an unrelated field),
// whose constant term is the CRT-derived secret scalar d.
type KeyShare struct {
	Index int
	Value *big.Int
}

// secretScalar derives the DJN combining scalar d from sk: the unique
// (given gcd(λ, n) = 1) integer d = λ * (λ⁻¹ mod n) satisfying d ≡ 0 (mod λ)
// and d ≡ 1 (mod n). Sharing d instead of λ is what lets Combine finalize
// with only the (4δ²)⁻¹ constant: d ≡ 0 (mod λ) makes the r^n term of the
// ciphertext vanish under exponentiation exactly as raising to λ would, and
// d ≡ 1 (mod n) means the recovered L(c')·(4δ²)⁻¹ is m·d ≡ m (mod n)
// directly, with no further μ multiplication required.
func secretScalar(sk *paillier.PrivateKey) (*big.Int, error) {
	invLambda := new(big.Int).ModInverse(sk.Lambda, sk.N)
	if invLambda == nil {
		return nil, fmt.Errorf("%w: lambda is not invertible mod n", ErrCombine)
	}
	return new(big.Int).Mul(sk.Lambda, invLambda), nil
}

func (pp *PublicParams) nSquare() *big.Int {
	return pp.PublicKey.NSquare()
}

func (pp *PublicParams) delta() *big.Int {
	return factorial(pp.Total)
}

func factorial(n int) *big.Int {
	f := big.NewInt(1)
	for i := 2; i <= n; i++ {
		f.Mul(f, big.NewInt(int64(i)))
	}
	return f
}

// IssueShares splits the CRT-derived secret scalar d (see secretScalar)
// into N Shamir shares evaluated over the integers, requiring 1 ≤ K ≤ N.
// It returns the public commitments needed to verify later partial
// decryptions alongside the shares themselves; the caller is responsible
// for sealing each share at rest (see Seal) and zeroizing sk once shares
// are issued.
func IssueShares(sk *paillier.PrivateKey, k, n int) (*PublicParams, []*KeyShare, error) {
	if k < 1 || k > n {
		return nil, nil, fmt.Errorf("%w: threshold %d must satisfy 1 <= K <= N=%d", ErrCombine, k, n)
	}

	d, err := secretScalar(sk)
	if err != nil {
		return nil, nil, err
	}

	// Non-constant coefficients are sampled large enough to statistically
	// hide d; they are never reduced modulo any field, so Lagrange
	// interpolation over the integers (delta-scaled in Combine) recovers d
	// exactly from any K shares.
	bound := new(big.Int).Lsh(one, uint(d.BitLen()+coefficientSecurityBits))
	coeffs := make([]*big.Int, k)
	coeffs[0] = d
	for i := 1; i < k; i++ {
		c, err := rand.Int(rand.Reader, bound)
		if err != nil {
			return nil, nil, err
		}
		coeffs[i] = c
	}

	shares := make([]*KeyShare, n)
	for i := 1; i <= n; i++ {
		x := big.NewInt(int64(i))
		shares[i-1] = &KeyShare{Index: i, Value: evalPoly(coeffs, x)}
	}

	nSquare := sk.NSquare()
	v, err := generatorOfSquares(sk.N, nSquare)
	if err != nil {
		return nil, nil, err
	}

	pp := &PublicParams{
		PublicKey: &sk.PublicKey,
		Threshold: k,
		Total:     n,
		V:         v,
		Vi:        make([]*big.Int, n),
	}
	delta := pp.delta()
	for i, share := range shares {
		exp := new(big.Int).Mul(delta, share.Value)
		pp.Vi[i] = new(big.Int).Exp(v, exp, nSquare)
	}

	return pp, shares, nil
}

// evalPoly evaluates the polynomial with the given coefficients (lowest
// degree first) at x, over the integers with no modular reduction.
func evalPoly(coeffs []*big.Int, x *big.Int) *big.Int {
	result := new(big.Int).Set(coeffs[len(coeffs)-1])
	for i := len(coeffs) - 2; i >= 0; i-- {
		result.Mul(result, x)
		result.Add(result, coeffs[i])
	}
	return result
}

// generatorOfSquares samples a generator of the cyclic group of squares of
// Z*_{n^2}, as required by the zero-knowledge proof construction: any
// r coprime to n squared mod n2 lands in that subgroup.
func generatorOfSquares(n, nSquare *big.Int) (*big.Int, error) {
	for {
		r, err := paillier.GetRandomNumberInMultiplicativeGroup(n, rand.Reader)
		if err != nil {
			return nil, err
		}
		v := new(big.Int).Exp(r, two, nSquare)
		if v.Cmp(one) != 0 {
			return v, nil
		}
	}
}
