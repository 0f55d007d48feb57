package tally

import "errors"

var (
	// ErrConflict is returned when an operation would create a duplicate
	// record that must be unique (a second tallying session for an
	// election, a second partial decryption from the same trustee).
	ErrConflict = errors.New("tally: conflict")
	// ErrNotFound is returned when a referenced election, trustee or
	// session does not exist.
	ErrNotFound = errors.New("tally: not found")
	// ErrState is returned when an operation is requested against a
	// session or election in the wrong lifecycle state.
	ErrState = errors.New("tally: invalid state for operation")
	// ErrTooFewTrustees is returned by Finalize when fewer than the
	// required threshold of verified partial decryptions are on record.
	ErrTooFewTrustees = errors.New("tally: too few verified trustees")
	// ErrDuplicate is returned when a trustee resubmits a partial
	// decryption for an election it already submitted for.
	ErrDuplicate = errors.New("tally: duplicate submission")
	// ErrOverflowTally is returned by Finalize when a recovered candidate
	// count falls outside [0, ballot count], signalling a corrupted
	// aggregation or a forged partial decryption that nonetheless passed
	// its proof.
	ErrOverflowTally = errors.New("tally: recovered count out of range")
	// ErrCrypto wraps a failure inside key generation or share issuance
	// that is internal to the ceremony rather than attributable to a
	// caller-supplied value.
	ErrCrypto = errors.New("tally: cryptographic operation failed")
)
