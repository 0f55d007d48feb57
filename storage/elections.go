package storage

import (
	"github.com/vocdoni/tallycore/types"
)

// SetElection stores a newly created election. Returns ErrKeyAlreadyExists
// if the election already exists.
func (s *Storage) SetElection(e *types.Election) error {
	return setArtifact(s.db, electionPrefix, e.ID.Bytes(), e, false)
}

// UpdateElection overwrites an existing election record (used for state
// transitions such as pending -> active -> tallying -> completed/failed).
func (s *Storage) UpdateElection(e *types.Election) error {
	return setArtifact(s.db, electionPrefix, e.ID.Bytes(), e, true)
}

// Election retrieves an election by ID.
func (s *Storage) Election(id types.ElectionID) (*types.Election, error) {
	return getArtifact[types.Election](s.db, electionPrefix, id.Bytes())
}

// ListElections invokes callback for every stored election, in key order.
func (s *Storage) ListElections(callback func(*types.Election) bool) error {
	return iterateArtifacts[types.Election](s.db, electionPrefix, func(_ []byte, e *types.Election) bool {
		return callback(e)
	})
}
