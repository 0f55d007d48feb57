package audit

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/vocdoni/tallycore/types"
)

func sampleDigestInputs() (types.ElectionID, *big.Int, []*big.Int, []int64, []int) {
	electionID := types.NewElectionID()
	n := big.NewInt(10403) // 101 * 103
	ciphertexts := []*big.Int{big.NewInt(123456), big.NewInt(654321)}
	tally := []int64{3, 7}
	trustees := []int{2, 1, 3}
	return electionID, n, ciphertexts, tally, trustees
}

func TestCanonicalDigestDeterministic(t *testing.T) {
	c := qt.New(t)
	electionID, n, ciphertexts, tally, trustees := sampleDigestInputs()

	_, hash1, err := CanonicalDigest(electionID, n, ciphertexts, tally, trustees)
	c.Assert(err, qt.IsNil)
	_, hash2, err := CanonicalDigest(electionID, n, ciphertexts, tally, trustees)
	c.Assert(err, qt.IsNil)
	c.Assert(hash1, qt.Equals, hash2)
}

func TestCanonicalDigestTrusteeOrderInvariant(t *testing.T) {
	c := qt.New(t)
	electionID, n, ciphertexts, tally, _ := sampleDigestInputs()

	_, hash1, err := CanonicalDigest(electionID, n, ciphertexts, tally, []int{1, 2, 3})
	c.Assert(err, qt.IsNil)
	_, hash2, err := CanonicalDigest(electionID, n, ciphertexts, tally, []int{3, 1, 2})
	c.Assert(err, qt.IsNil)
	c.Assert(hash1, qt.Equals, hash2)
}

func TestCanonicalDigestTamperDetection(t *testing.T) {
	c := qt.New(t)
	electionID, n, ciphertexts, tally, trustees := sampleDigestInputs()

	_, original, err := CanonicalDigest(electionID, n, ciphertexts, tally, trustees)
	c.Assert(err, qt.IsNil)

	tamperedTally := append([]int64(nil), tally...)
	tamperedTally[0]++
	_, tampered, err := CanonicalDigest(electionID, n, ciphertexts, tamperedTally, trustees)
	c.Assert(err, qt.IsNil)
	c.Assert(tampered, qt.Not(qt.Equals), original)

	tamperedCiphertexts := append([]*big.Int(nil), ciphertexts...)
	tamperedCiphertexts[1] = new(big.Int).Add(ciphertexts[1], big.NewInt(1))
	_, tampered2, err := CanonicalDigest(electionID, n, tamperedCiphertexts, tally, trustees)
	c.Assert(err, qt.IsNil)
	c.Assert(tampered2, qt.Not(qt.Equals), original)
}

func TestCanonicalDigestMismatchedLengths(t *testing.T) {
	c := qt.New(t)
	electionID, n, ciphertexts, tally, trustees := sampleDigestInputs()

	_, _, err := CanonicalDigest(electionID, n, ciphertexts, tally[:1], trustees)
	c.Assert(err, qt.Not(qt.IsNil))
}
