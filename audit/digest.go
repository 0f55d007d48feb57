// Package audit implements the append-only event log and the verification
// layer that recomputes a finalized election's integrity digest from first
// principles and compares it against the persisted result.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"

	"github.com/vocdoni/tallycore/types"
)

// byteWidth returns the number of bytes needed to hold a value of the given
// bit length, rounding up.
func byteWidth(bits int) int {
	return (bits + 7) / 8
}

func putFixedWidth(dst []byte, v *big.Int, width int) error {
	b := v.Bytes()
	if len(b) > width {
		return fmt.Errorf("audit: value does not fit in fixed width %d bytes", width)
	}
	copy(dst[width-len(b):], b)
	return nil
}

// CanonicalDigest computes the SHA-256 verification hash over the canonical,
// fixed-width big-endian encoding of an election's aggregated ciphertexts,
// recovered tally and participating trustee indices, returning both the raw
// digest and its lowercase hex form. n is the election's Paillier modulus,
// used both directly and to size the fixed width of each ciphertext (which
// live modulo n²).
func CanonicalDigest(
	electionID types.ElectionID,
	n *big.Int,
	ciphertexts []*big.Int,
	tally []int64,
	trusteeIndices []int,
) ([]byte, string, error) {
	if len(ciphertexts) != len(tally) {
		return nil, "", fmt.Errorf("audit: ciphertext count %d does not match tally count %d", len(ciphertexts), len(tally))
	}

	nWidth := byteWidth(n.BitLen())
	nSquare := new(big.Int).Mul(n, n)
	cWidth := byteWidth(nSquare.BitLen())

	sortedIdx := append([]int(nil), trusteeIndices...)
	sort.Ints(sortedIdx)
	if len(sortedIdx) > 255 {
		return nil, "", fmt.Errorf("audit: too many trustee indices to length-prefix with one byte")
	}

	buf := make([]byte, 0, types.ElectionIDSize+nWidth+len(ciphertexts)*cWidth+len(tally)*8+1+len(sortedIdx))
	buf = append(buf, electionID.Bytes()...)

	nBytes := make([]byte, nWidth)
	if err := putFixedWidth(nBytes, n, nWidth); err != nil {
		return nil, "", err
	}
	buf = append(buf, nBytes...)

	for _, c := range ciphertexts {
		cBytes := make([]byte, cWidth)
		if err := putFixedWidth(cBytes, c, cWidth); err != nil {
			return nil, "", err
		}
		buf = append(buf, cBytes...)
	}

	for _, t := range tally {
		var tb [8]byte
		putUint64BE(tb[:], uint64(t))
		buf = append(buf, tb[:]...)
	}

	buf = append(buf, byte(len(sortedIdx)))
	for _, idx := range sortedIdx {
		if idx < 0 || idx > 255 {
			return nil, "", fmt.Errorf("audit: trustee index %d does not fit in one byte", idx)
		}
		buf = append(buf, byte(idx))
	}

	digest := sha256.Sum256(buf)
	return digest[:], hex.EncodeToString(digest[:]), nil
}

func putUint64BE(dst []byte, v uint64) {
	dst[0] = byte(v >> 56)
	dst[1] = byte(v >> 48)
	dst[2] = byte(v >> 40)
	dst[3] = byte(v >> 32)
	dst[4] = byte(v >> 24)
	dst[5] = byte(v >> 16)
	dst[6] = byte(v >> 8)
	dst[7] = byte(v)
}
