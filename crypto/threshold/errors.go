package threshold

import "errors"

var (
	// ErrCombine is returned by Combine when it gets too few shares or
	// duplicate trustee indices, and by IssueShares when (K, N) is invalid
	// or lambda is not invertible mod n.
	ErrCombine = errors.New("threshold: cannot combine partial decryptions")
	// ErrOverflow names a combined plaintext outside its expected bound,
	// which signals a key/ciphertext mismatch rather than a genuine vote
	// count. No function in this package returns it: Combine does no bound
	// check, and tally's Finalize reports the bound failure as
	// ErrOverflowTally.
	ErrOverflow = errors.New("threshold: combined plaintext exceeds expected bound")
	// ErrSeal is returned by Seal/Open when at-rest encryption of a key
	// share fails.
	ErrSeal = errors.New("threshold: share sealing failed")
)
