package types

// ThresholdParams is the public material produced once by a trustee
// key-issuance ceremony: the Feldman commitments needed to verify every
// trustee's partial decryptions for one election. Persisted alongside the
// election so that later HTTP requests (submit_partial, finalize,
// verify_result) can reconstruct the same crypto/threshold.PublicParams the
// ceremony produced.
type ThresholdParams struct {
	ElectionID ElectionID `json:"election_id" cbor:"election_id"`
	Threshold  int        `json:"threshold" cbor:"threshold"`
	Total      int        `json:"total" cbor:"total"`
	V          *BigInt    `json:"v" cbor:"v"`
	Vi         []*BigInt  `json:"vi" cbor:"vi"`
}
