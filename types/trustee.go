package types

// Trustee is a registered holder of one Shamir share of an election's
// Paillier private key. PublicCommitment is the Feldman commitment used to
// verify that trustee's partial decryptions; EncryptedShare is the
// at-rest-sealed key share (see crypto/threshold.Seal).
type Trustee struct {
	TrusteeID        string        `json:"trustee_id" cbor:"trustee_id"`
	ElectionID       ElectionID    `json:"election_id" cbor:"election_id"`
	Index            int           `json:"index" cbor:"index"`
	PublicCommitment *BigInt       `json:"public_commitment" cbor:"public_commitment"`
	EncryptedShare   []byte        `json:"encrypted_share" cbor:"encrypted_share"`
	Status           TrusteeStatus `json:"status" cbor:"status"`
}

// ChaumPedersenProof is the non-interactive zero-knowledge proof that a
// trustee applied the same share exponent used in its published commitment
// when computing a partial decryption. E is the Fiat-Shamir challenge
// derived from hashing (a, b, c^4, d^2); Z is the prover's response.
type ChaumPedersenProof struct {
	E *BigInt `json:"e" cbor:"e"`
	Z *BigInt `json:"z" cbor:"z"`
}

// PartialDecryption is trustee i's contribution toward recovering one
// election's tally: one value d_{i,j} and one proof π_{i,j} per candidate.
type PartialDecryption struct {
	ElectionID   ElectionID            `json:"election_id" cbor:"election_id"`
	TrusteeIndex int                   `json:"trustee_index" cbor:"trustee_index"`
	Values       []*BigInt             `json:"values" cbor:"values"`
	Proofs       []*ChaumPedersenProof `json:"proofs" cbor:"proofs"`
	Verified     bool                  `json:"verified" cbor:"verified"`
}
