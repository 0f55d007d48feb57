// Package paillier implements the additively homomorphic Paillier
// cryptosystem: key generation, per-candidate ballot encryption, ciphertext
// aggregation and raw (non-threshold) decryption, in the Damgård–Jurik
// g = n+1 simplification.
package paillier

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

var one = big.NewInt(1)

// maxKeyGenAttempts bounds the retry loop in GenerateKeyPair; exceeding it
// surfaces ErrKeyGen rather than looping forever on a pathological PRNG.
const maxKeyGenAttempts = 16

// PublicKey is (n, g) with n = p*q and g = n+1.
type PublicKey struct {
	N *big.Int
	G *big.Int
}

// NSquare returns n².
func (pk *PublicKey) NSquare() *big.Int {
	return new(big.Int).Mul(pk.N, pk.N)
}

// PrivateKey is (λ, μ) where λ = lcm(p-1, q-1) and μ = L(g^λ mod n²)^-1 mod n.
// Held only in memory for the duration of the key-generation / share-issuance
// ceremony; never persisted whole.
type PrivateKey struct {
	PublicKey
	Lambda *big.Int
	Mu     *big.Int
}

// Ciphertext wraps a single Paillier ciphertext value c ∈ ℤ*_{n²}.
type Ciphertext struct {
	C *big.Int
}

// String returns the hexadecimal representation of the ciphertext value.
func (c *Ciphertext) String() string {
	return fmt.Sprintf("%x", c.C)
}

// L computes (u-1)/n, the building block of Paillier decryption. Callers
// must ensure u ≡ 1 (mod n) so that the division is exact.
func L(u, n *big.Int) *big.Int {
	t := new(big.Int).Sub(u, one)
	return new(big.Int).Div(t, n)
}

func lcm(a, b *big.Int) *big.Int {
	gcd := new(big.Int).GCD(nil, nil, a, b)
	prod := new(big.Int).Mul(a, b)
	return new(big.Int).Div(prod, gcd)
}

// GenerateKeyPair samples two distinct random primes of bit-length bits/2
// each, derives n = p*q, g = n+1, λ = lcm(p-1, q-1) and μ = L(g^λ mod
// n²)^-1 mod n. Fails with ErrKeyGen if suitable primes cannot be sampled
// within a bounded number of attempts.
func GenerateKeyPair(bits int) (*PublicKey, *PrivateKey, error) {
	if bits < 16 || bits%2 != 0 {
		return nil, nil, fmt.Errorf("%w: bit-length %d must be even and at least 16", ErrDomain, bits)
	}
	half := bits / 2

	var p, q *big.Int
	for attempt := 0; attempt < maxKeyGenAttempts; attempt++ {
		var err error
		p, err = rand.Prime(rand.Reader, half)
		if err != nil {
			continue
		}
		q, err = rand.Prime(rand.Reader, half)
		if err != nil {
			continue
		}
		if p.Cmp(q) == 0 {
			continue
		}

		n := new(big.Int).Mul(p, q)
		g := new(big.Int).Add(n, one)
		pMinus1 := new(big.Int).Sub(p, one)
		qMinus1 := new(big.Int).Sub(q, one)
		lambda := lcm(pMinus1, qMinus1)

		nSquare := new(big.Int).Mul(n, n)
		gLambda := new(big.Int).Exp(g, lambda, nSquare)
		lValue := L(gLambda, n)
		mu := new(big.Int).ModInverse(lValue, n)
		if mu == nil {
			// gcd(L(g^λ mod n²), n) != 1: resample.
			continue
		}

		pub := &PublicKey{N: n, G: g}
		priv := &PrivateKey{PublicKey: *pub, Lambda: lambda, Mu: mu}
		return pub, priv, nil
	}
	return nil, nil, fmt.Errorf("%w: no valid prime pair found after %d attempts", ErrKeyGen, maxKeyGenAttempts)
}

// GetRandomNumberInMultiplicativeGroup samples a uniform random element of
// ℤ*_n, i.e. in [1, n) — the randomizer r used by Encrypt.
func GetRandomNumberInMultiplicativeGroup(n *big.Int, random io.Reader) (*big.Int, error) {
	nMinus1 := new(big.Int).Sub(n, one)
	for {
		r, err := rand.Int(random, nMinus1)
		if err != nil {
			return nil, err
		}
		r.Add(r, one)
		if new(big.Int).GCD(nil, nil, r, n).Cmp(one) == 0 {
			return r, nil
		}
	}
}

// EncryptWithR encrypts m using the given randomizer r, returning
// c = g^m * r^n mod n². Requires 0 ≤ m < n.
func (pk *PublicKey) EncryptWithR(m, r *big.Int) (*Ciphertext, error) {
	if m.Sign() < 0 || m.Cmp(pk.N) >= 0 {
		return nil, fmt.Errorf("%w: plaintext %v outside [0, %v)", ErrDomain, m, pk.N)
	}
	nSquare := pk.NSquare()
	gm := new(big.Int).Exp(pk.G, m, nSquare)
	rn := new(big.Int).Exp(r, pk.N, nSquare)
	c := new(big.Int).Mod(new(big.Int).Mul(gm, rn), nSquare)
	return &Ciphertext{C: c}, nil
}

// Encrypt encrypts m with a freshly sampled randomizer, so that two calls
// with the same m produce different ciphertexts.
func (pk *PublicKey) Encrypt(m *big.Int) (*Ciphertext, error) {
	r, err := GetRandomNumberInMultiplicativeGroup(pk.N, rand.Reader)
	if err != nil {
		return nil, err
	}
	return pk.EncryptWithR(m, r)
}

// HomomorphicAdd returns the ciphertext encoding the sum of the plaintexts
// of c1 and c2, computed as c1*c2 mod n².
func (pk *PublicKey) HomomorphicAdd(c1, c2 *Ciphertext) *Ciphertext {
	nSquare := pk.NSquare()
	c := new(big.Int).Mod(new(big.Int).Mul(c1.C, c2.C), nSquare)
	return &Ciphertext{C: c}
}

// Aggregate returns the product mod n² of all given ciphertexts, i.e. the
// ciphertext of their plaintext sum. For an empty input it returns a fresh
// encryption of zero, deterministic for empty-election testing.
func (pk *PublicKey) Aggregate(cs []*Ciphertext) (*Ciphertext, error) {
	if len(cs) == 0 {
		return pk.EncryptWithR(big.NewInt(0), one)
	}
	nSquare := pk.NSquare()
	acc := big.NewInt(1)
	for _, c := range cs {
		acc = new(big.Int).Mod(new(big.Int).Mul(acc, c.C), nSquare)
	}
	return &Ciphertext{C: acc}, nil
}

// Decrypt recovers the plaintext m = L(c^λ mod n²) * μ mod n.
func (sk *PrivateKey) Decrypt(c *Ciphertext) *big.Int {
	nSquare := sk.NSquare()
	cLambda := new(big.Int).Exp(c.C, sk.Lambda, nSquare)
	lValue := L(cLambda, sk.N)
	return new(big.Int).Mod(new(big.Int).Mul(lValue, sk.Mu), sk.N)
}
