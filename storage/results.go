package storage

import (
	"github.com/vocdoni/tallycore/types"
)

// SetResult stores a finalized election result. Returns ErrKeyAlreadyExists
// if a result already exists for this election: once completed, a result is
// immutable.
func (s *Storage) SetResult(r *types.ElectionResult) error {
	return setArtifact(s.db, resultPrefix, r.ElectionID.Bytes(), r, false)
}

// Result retrieves the finalized result for electionID.
func (s *Storage) Result(electionID types.ElectionID) (*types.ElectionResult, error) {
	return getArtifact[types.ElectionResult](s.db, resultPrefix, electionID.Bytes())
}

// SetResultBlockchainTxHash records the transaction hash once a completed
// result has been published externally. The result itself stays otherwise
// unchanged.
func (s *Storage) SetResultBlockchainTxHash(electionID types.ElectionID, txHash string) error {
	r, err := s.Result(electionID)
	if err != nil {
		return err
	}
	r.BlockchainTxHash = txHash
	return setArtifact(s.db, resultPrefix, electionID.Bytes(), r, true)
}
