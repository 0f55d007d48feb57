package storage

import (
	"github.com/vocdoni/tallycore/types"
)

func ballotKey(electionID types.ElectionID, nonce types.HexBytes) []byte {
	key := make([]byte, 0, types.ElectionIDSize+len(nonce))
	key = append(key, electionID.Bytes()...)
	key = append(key, nonce...)
	return key
}

// SetBallot stores a newly accepted ballot, enforcing the nonce-uniqueness
// replay guard via ErrKeyAlreadyExists.
func (s *Storage) SetBallot(b *types.EncryptedBallot) error {
	return setArtifact(s.db, ballotPrefix, ballotKey(b.ElectionID, b.Nonce), b, false)
}

// MarkBallotsTallied sets is_tallied=true on every ballot of electionID, used
// when the tallying session transitions from aggregating to decrypting.
func (s *Storage) MarkBallotsTallied(electionID types.ElectionID) error {
	var ballots []*types.EncryptedBallot
	if err := s.ListBallots(electionID, func(b *types.EncryptedBallot) bool {
		ballots = append(ballots, b)
		return true
	}); err != nil {
		return err
	}
	for _, b := range ballots {
		b.IsTallied = true
		if err := setArtifact(s.db, ballotPrefix, ballotKey(b.ElectionID, b.Nonce), b, true); err != nil {
			return err
		}
	}
	return nil
}

// ListBallots invokes callback for every ballot of electionID.
func (s *Storage) ListBallots(electionID types.ElectionID, callback func(*types.EncryptedBallot) bool) error {
	prefix := append(append([]byte{}, ballotPrefix...), electionID.Bytes()...)
	return iterateArtifacts[types.EncryptedBallot](s.db, prefix, func(_ []byte, b *types.EncryptedBallot) bool {
		return callback(b)
	})
}

// CountBallots returns the number of ballots accepted for electionID.
func (s *Storage) CountBallots(electionID types.ElectionID) (int, error) {
	count := 0
	err := s.ListBallots(electionID, func(*types.EncryptedBallot) bool {
		count++
		return true
	})
	return count, err
}
