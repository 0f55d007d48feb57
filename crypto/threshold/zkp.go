package threshold

import (
	"crypto/rand"
	"crypto/sha256"
	"math/big"

	"github.com/vocdoni/tallycore/types"
)

// PartialDecrypt computes trustee share's contribution to decrypting
// ciphertext c, d = c^(2*delta*s_i) mod n², together with a Chaum-Pedersen
// proof that the same s_i was used here as in the commitment Vi published
// at share issuance (see IssueShares).
func PartialDecrypt(pp *PublicParams, share *KeyShare, c *big.Int) (*big.Int, *types.ChaumPedersenProof, error) {
	nSquare := pp.nSquare()
	delta := pp.delta()

	exp := new(big.Int).Mul(two, new(big.Int).Mul(delta, share.Value))
	d := new(big.Int).Exp(c, exp, nSquare)

	r, err := rand.Int(rand.Reader, nSquare)
	if err != nil {
		return nil, nil, err
	}

	c4 := new(big.Int).Exp(c, four, nSquare)
	a := new(big.Int).Exp(c4, r, nSquare)
	b := new(big.Int).Exp(pp.V, r, nSquare)
	d2 := new(big.Int).Exp(d, two, nSquare)

	e := fiatShamirHash(a, b, c4, d2)

	zExp := new(big.Int).Mul(e, new(big.Int).Mul(delta, share.Value))
	z := new(big.Int).Add(r, zExp)

	proof := &types.ChaumPedersenProof{
		E: types.NewBigInt(e),
		Z: types.NewBigInt(z),
	}
	return d, proof, nil
}

// VerifyPartial recomputes the Chaum-Pedersen challenge for trustee
// trusteeIndex's claimed partial decryption d of ciphertext c and reports
// whether it matches proof.E. Returns false on any malformed input rather
// than propagating an error, matching the "bool" contract of a proof check.
func VerifyPartial(pp *PublicParams, trusteeIndex int, c, d *big.Int, proof *types.ChaumPedersenProof) bool {
	if trusteeIndex < 1 || trusteeIndex > len(pp.Vi) {
		return false
	}
	if proof == nil || proof.E == nil || proof.Z == nil {
		return false
	}
	nSquare := pp.nSquare()
	vi := pp.Vi[trusteeIndex-1]

	c4 := new(big.Int).Exp(c, four, nSquare)
	d2 := new(big.Int).Exp(d, two, nSquare)
	z := proof.Z.MathBigInt()
	e := proof.E.MathBigInt()

	a1 := new(big.Int).Exp(c4, z, nSquare)
	a2 := modInverse(new(big.Int).Exp(d2, e, nSquare), nSquare)
	if a2 == nil {
		return false
	}
	a := new(big.Int).Mod(new(big.Int).Mul(a1, a2), nSquare)

	b1 := new(big.Int).Exp(pp.V, z, nSquare)
	b2 := modInverse(new(big.Int).Exp(vi, e, nSquare), nSquare)
	if b2 == nil {
		return false
	}
	b := new(big.Int).Mod(new(big.Int).Mul(b1, b2), nSquare)

	expected := fiatShamirHash(a, b, c4, d2)
	return expected.Cmp(e) == 0
}

func fiatShamirHash(a, b, c4, d2 *big.Int) *big.Int {
	h := sha256.New()
	h.Write(a.Bytes())
	h.Write(b.Bytes())
	h.Write(c4.Bytes())
	h.Write(d2.Bytes())
	return new(big.Int).SetBytes(h.Sum(nil))
}

func modInverse(x, mod *big.Int) *big.Int {
	return new(big.Int).ModInverse(x, mod)
}
