package storage

import (
	"github.com/vocdoni/tallycore/types"
)

var thresholdParamsPrefix = []byte("pp/")

// SetThresholdParams stores the public parameters produced by an election's
// trustee key-issuance ceremony. Returns ErrKeyAlreadyExists if the ceremony
// has already run for this election: it is a run-once, trusted-dealer step.
func (s *Storage) SetThresholdParams(tp *types.ThresholdParams) error {
	return setArtifact(s.db, thresholdParamsPrefix, tp.ElectionID.Bytes(), tp, false)
}

// ThresholdParams retrieves the public parameters for electionID.
func (s *Storage) ThresholdParams(electionID types.ElectionID) (*types.ThresholdParams, error) {
	return getArtifact[types.ThresholdParams](s.db, thresholdParamsPrefix, electionID.Bytes())
}
