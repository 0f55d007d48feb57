package paillier

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
)

const testBits = 256

func TestEncryptDecrypt(t *testing.T) {
	c := qt.New(t)
	pub, priv, err := GenerateKeyPair(testBits)
	c.Assert(err, qt.IsNil)

	for _, m := range []int64{0, 1, 42, 999} {
		ct, err := pub.Encrypt(big.NewInt(m))
		c.Assert(err, qt.IsNil)
		got := priv.Decrypt(ct)
		c.Assert(got.Int64(), qt.Equals, m)
	}
}

func TestEncryptIsRandomized(t *testing.T) {
	c := qt.New(t)
	pub, _, err := GenerateKeyPair(testBits)
	c.Assert(err, qt.IsNil)

	m := big.NewInt(7)
	c1, err := pub.Encrypt(m)
	c.Assert(err, qt.IsNil)
	c2, err := pub.Encrypt(m)
	c.Assert(err, qt.IsNil)
	c.Assert(c1.C.Cmp(c2.C), qt.Not(qt.Equals), 0)
}

func TestHomomorphicAdd(t *testing.T) {
	c := qt.New(t)
	pub, priv, err := GenerateKeyPair(testBits)
	c.Assert(err, qt.IsNil)

	a, err := pub.Encrypt(big.NewInt(3))
	c.Assert(err, qt.IsNil)
	b, err := pub.Encrypt(big.NewInt(4))
	c.Assert(err, qt.IsNil)

	sum := pub.HomomorphicAdd(a, b)
	c.Assert(priv.Decrypt(sum).Int64(), qt.Equals, int64(7))
}

func TestAggregate(t *testing.T) {
	c := qt.New(t)
	pub, priv, err := GenerateKeyPair(testBits)
	c.Assert(err, qt.IsNil)

	var cts []*Ciphertext
	var want int64
	for _, m := range []int64{1, 0, 1, 1, 0} {
		ct, err := pub.Encrypt(big.NewInt(m))
		c.Assert(err, qt.IsNil)
		cts = append(cts, ct)
		want += m
	}

	agg, err := pub.Aggregate(cts)
	c.Assert(err, qt.IsNil)
	c.Assert(priv.Decrypt(agg).Int64(), qt.Equals, want)
}

func TestAggregateEmpty(t *testing.T) {
	c := qt.New(t)
	pub, priv, err := GenerateKeyPair(testBits)
	c.Assert(err, qt.IsNil)

	agg, err := pub.Aggregate(nil)
	c.Assert(err, qt.IsNil)
	c.Assert(priv.Decrypt(agg).Int64(), qt.Equals, int64(0))
}

func TestEncryptOutOfDomain(t *testing.T) {
	c := qt.New(t)
	pub, _, err := GenerateKeyPair(testBits)
	c.Assert(err, qt.IsNil)

	_, err = pub.Encrypt(new(big.Int).Neg(big.NewInt(1)))
	c.Assert(err, qt.ErrorIs, ErrDomain)

	_, err = pub.Encrypt(pub.N)
	c.Assert(err, qt.ErrorIs, ErrDomain)
}

func TestGenerateKeyPairRejectsOddBits(t *testing.T) {
	c := qt.New(t)
	_, _, err := GenerateKeyPair(15)
	c.Assert(err, qt.ErrorIs, ErrDomain)
}
