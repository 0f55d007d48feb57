package storage

import (
	"github.com/vocdoni/tallycore/types"
)

// SetSession stores a newly created tallying session. Returns
// ErrKeyAlreadyExists if a session already exists for this election
// (TallyingSession is one-to-one with an election).
func (s *Storage) SetSession(sess *types.TallyingSession) error {
	return setArtifact(s.db, sessionPrefix, sess.ElectionID.Bytes(), sess, false)
}

// UpdateSession overwrites the session record. Every state transition goes
// through this call while the caller holds the per-session exclusive lock
// (see tally.Engine).
func (s *Storage) UpdateSession(sess *types.TallyingSession) error {
	return setArtifact(s.db, sessionPrefix, sess.ElectionID.Bytes(), sess, true)
}

// Session retrieves the tallying session for electionID.
func (s *Storage) Session(electionID types.ElectionID) (*types.TallyingSession, error) {
	return getArtifact[types.TallyingSession](s.db, sessionPrefix, electionID.Bytes())
}

// DeleteSession removes the tallying session for electionID. This is the
// operator reset path for a failed session; the caller is responsible for
// checking the session is in a terminal failed state first.
func (s *Storage) DeleteSession(electionID types.ElectionID) error {
	return deleteArtifact(s.db, sessionPrefix, electionID.Bytes())
}
