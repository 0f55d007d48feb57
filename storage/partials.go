package storage

import (
	"encoding/binary"

	"github.com/vocdoni/tallycore/types"
)

func partialKey(electionID types.ElectionID, trusteeIndex int) []byte {
	key := make([]byte, types.ElectionIDSize+4)
	copy(key, electionID.Bytes())
	binary.BigEndian.PutUint32(key[types.ElectionIDSize:], uint32(trusteeIndex))
	return key
}

// SetPartialDecryption stores the (election, trustee) partial-decryption
// record. Returns ErrKeyAlreadyExists if the trustee already submitted for
// this election.
func (s *Storage) SetPartialDecryption(p *types.PartialDecryption) error {
	return setArtifact(s.db, partialPrefix, partialKey(p.ElectionID, p.TrusteeIndex), p, false)
}

// PartialDecryption retrieves the partial decryption submitted by
// trusteeIndex for electionID, if any.
func (s *Storage) PartialDecryption(electionID types.ElectionID, trusteeIndex int) (*types.PartialDecryption, error) {
	return getArtifact[types.PartialDecryption](s.db, partialPrefix, partialKey(electionID, trusteeIndex))
}

// ListPartialDecryptions invokes callback for every partial decryption
// submitted for electionID.
func (s *Storage) ListPartialDecryptions(electionID types.ElectionID, callback func(*types.PartialDecryption) bool) error {
	prefix := append(append([]byte{}, partialPrefix...), electionID.Bytes()...)
	return iterateArtifacts[types.PartialDecryption](s.db, prefix, func(_ []byte, p *types.PartialDecryption) bool {
		return callback(p)
	})
}
