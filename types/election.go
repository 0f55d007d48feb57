package types

import (
	"time"

	"github.com/google/uuid"
)

// ElectionID uniquely and opaquely identifies an Election. It is backed by a
// UUID so that it fits the 16-byte field fixed by the verification-hash
// canonical encoding (see audit.CanonicalDigest).
type ElectionID [ElectionIDSize]byte

// NewElectionID generates a fresh random ElectionID.
func NewElectionID() ElectionID {
	return ElectionID(uuid.New())
}

// String returns the canonical UUID string form of id.
func (id ElectionID) String() string {
	return uuid.UUID(id).String()
}

// Bytes returns the 16-byte big-endian representation of id.
func (id ElectionID) Bytes() []byte {
	return id[:]
}

// MarshalJSON implements json.Marshaler.
func (id ElectionID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ElectionID) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*id = ElectionID(u)
	return nil
}

// ElectionIDFromString parses the canonical UUID string form of an ElectionID.
func ElectionIDFromString(s string) (ElectionID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ElectionID{}, err
	}
	return ElectionID(u), nil
}

// Candidate is the stable identifier and label of one candidate on a ballot.
// Candidates are ordered 1..M; that order is canonical and is carried by
// Election.Candidates.
type Candidate struct {
	Index int    `json:"index" cbor:"index"`
	Label string `json:"label" cbor:"label"`
}

// PaillierPublicKey is the public half of an election's Paillier keypair:
// n = p*q and g, both of bit-length governed by the key-generation parameter.
type PaillierPublicKey struct {
	N *BigInt `json:"n" cbor:"n"`
	G *BigInt `json:"g" cbor:"g"`
}

// Election is the operator-created record that groups candidates, a public
// key and the tallying lifecycle state together.
type Election struct {
	ID         ElectionID        `json:"election_id" cbor:"election_id"`
	Title      string            `json:"title" cbor:"title"`
	Candidates []Candidate       `json:"candidates" cbor:"candidates"`
	PublicKey  PaillierPublicKey `json:"public_key" cbor:"public_key"`
	State      ElectionState     `json:"state" cbor:"state"`
	CreatedAt  time.Time         `json:"created_at" cbor:"created_at"`
}

// CandidateCount returns the number of candidates M on the ballot.
func (e *Election) CandidateCount() int {
	return len(e.Candidates)
}
