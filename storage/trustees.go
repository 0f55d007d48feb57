package storage

import (
	"encoding/binary"

	"github.com/vocdoni/tallycore/types"
)

func trusteeKey(electionID types.ElectionID, index int) []byte {
	key := make([]byte, types.ElectionIDSize+4)
	copy(key, electionID.Bytes())
	binary.BigEndian.PutUint32(key[types.ElectionIDSize:], uint32(index))
	return key
}

// SetTrustee registers a trustee's commitment and sealed share at ceremony
// time. Returns ErrKeyAlreadyExists if trustee index is already registered
// for this election.
func (s *Storage) SetTrustee(t *types.Trustee) error {
	return setArtifact(s.db, trusteePrefix, trusteeKey(t.ElectionID, t.Index), t, false)
}

// UpdateTrustee overwrites a trustee record, used to mark a trustee revoked.
func (s *Storage) UpdateTrustee(t *types.Trustee) error {
	return setArtifact(s.db, trusteePrefix, trusteeKey(t.ElectionID, t.Index), t, true)
}

// Trustee retrieves trustee `index` of electionID.
func (s *Storage) Trustee(electionID types.ElectionID, index int) (*types.Trustee, error) {
	return getArtifact[types.Trustee](s.db, trusteePrefix, trusteeKey(electionID, index))
}

// ListTrustees invokes callback for every trustee registered to electionID.
func (s *Storage) ListTrustees(electionID types.ElectionID, callback func(*types.Trustee) bool) error {
	return iterateArtifacts[types.Trustee](s.db, append(append([]byte{}, trusteePrefix...), electionID.Bytes()...),
		func(_ []byte, t *types.Trustee) bool {
			return callback(t)
		})
}
