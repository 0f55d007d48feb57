package threshold

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/vocdoni/tallycore/crypto/paillier"
	"github.com/vocdoni/tallycore/types"
)

const testBits = 256

func setupElection(c *qt.C, k, n int) (*paillier.PublicKey, *PublicParams, []*KeyShare) {
	pub, priv, err := paillier.GenerateKeyPair(testBits)
	c.Assert(err, qt.IsNil)
	pp, shares, err := IssueShares(priv, k, n)
	c.Assert(err, qt.IsNil)
	return pub, pp, shares
}

// TestThresholdSufficiency checks that combining exactly K of N shares
// recovers the plaintext, for several (K, N) pairs.
func TestThresholdSufficiency(t *testing.T) {
	for _, tc := range []struct{ k, n int }{{1, 1}, {2, 3}, {3, 5}, {5, 5}} {
		c := qt.New(t)
		pub, pp, shares := setupElection(c, tc.k, tc.n)

		m := big.NewInt(11)
		ct, err := pub.Encrypt(m)
		c.Assert(err, qt.IsNil)

		ss := make([]Share, 0, tc.k)
		for _, share := range shares[:tc.k] {
			d, proof, err := PartialDecrypt(pp, share, ct.C)
			c.Assert(err, qt.IsNil)
			c.Assert(VerifyPartial(pp, share.Index, ct.C, d, proof), qt.IsTrue)
			ss = append(ss, Share{Index: share.Index, Decryption: d})
		}

		got, err := pp.Combine(ss)
		c.Assert(err, qt.IsNil)
		c.Assert(got.Int64(), qt.Equals, m.Int64())
	}
}

func TestCombineInsufficientShares(t *testing.T) {
	c := qt.New(t)
	pub, pp, shares := setupElection(c, 3, 5)

	ct, err := pub.Encrypt(big.NewInt(5))
	c.Assert(err, qt.IsNil)

	var ss []Share
	for _, share := range shares[:2] {
		d, _, err := PartialDecrypt(pp, share, ct.C)
		c.Assert(err, qt.IsNil)
		ss = append(ss, Share{Index: share.Index, Decryption: d})
	}

	_, err = pp.Combine(ss)
	c.Assert(err, qt.ErrorIs, ErrCombine)
}

func TestCombineAnySubsetOfK(t *testing.T) {
	c := qt.New(t)
	pub, pp, shares := setupElection(c, 3, 5)

	ct, err := pub.Encrypt(big.NewInt(9))
	c.Assert(err, qt.IsNil)

	subsets := [][]int{{0, 1, 2}, {1, 2, 3}, {0, 2, 4}, {2, 3, 4}}
	for _, subset := range subsets {
		var ss []Share
		for _, idx := range subset {
			share := shares[idx]
			d, _, err := PartialDecrypt(pp, share, ct.C)
			c.Assert(err, qt.IsNil)
			ss = append(ss, Share{Index: share.Index, Decryption: d})
		}
		got, err := pp.Combine(ss)
		c.Assert(err, qt.IsNil)
		c.Assert(got.Int64(), qt.Equals, int64(9))
	}
}

func TestVerifyPartialRejectsTamperedProof(t *testing.T) {
	c := qt.New(t)
	pub, pp, shares := setupElection(c, 2, 3)

	ct, err := pub.Encrypt(big.NewInt(3))
	c.Assert(err, qt.IsNil)

	share := shares[0]
	d, proof, err := PartialDecrypt(pp, share, ct.C)
	c.Assert(err, qt.IsNil)
	c.Assert(VerifyPartial(pp, share.Index, ct.C, d, proof), qt.IsTrue)

	tamperedZ := new(big.Int).Add(proof.Z.MathBigInt(), big.NewInt(1))
	tampered := *proof
	tampered.Z = types.NewBigInt(tamperedZ)
	c.Assert(VerifyPartial(pp, share.Index, ct.C, d, &tampered), qt.IsFalse)
}

func TestSealRoundTrip(t *testing.T) {
	c := qt.New(t)
	_, _, shares := setupElection(c, 2, 3)

	credential := []byte("trustee-passphrase")
	blob, err := Seal(shares[0], credential)
	c.Assert(err, qt.IsNil)

	opened, err := Open(blob, credential)
	c.Assert(err, qt.IsNil)
	c.Assert(opened.Index, qt.Equals, shares[0].Index)
	c.Assert(opened.Value.Cmp(shares[0].Value), qt.Equals, 0)

	_, err = Open(blob, []byte("wrong-passphrase"))
	c.Assert(err, qt.ErrorIs, ErrSeal)
}
