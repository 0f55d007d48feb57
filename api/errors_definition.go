//nolint:lll
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vocdoni/tallycore/crypto/paillier"
	"github.com/vocdoni/tallycore/crypto/threshold"
	"github.com/vocdoni/tallycore/storage"
	"github.com/vocdoni/tallycore/tally"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400 or 404 (or even 204), whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// The initial list of errors were more or less grouped by topic, but the list grows with time in a random fashion.
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX
// If you notice there's a gap (say, error code 4010, 4011 and 4013 exist, 4012 is missing) DON'T fill in the gap,
// that code was used in the past for some error (not anymore) and shouldn't be reused.
// There's no correlation between Code and HTTP Status.
//
// Do note that HTTPstatus 204 No Content implies the response body will be empty,
// so the Code and Message will actually be discarded, never sent to the client
var (
	ErrResourceNotFound      = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody         = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrMalformedElectionID   = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed election ID")}
	ErrElectionNotFound      = Error{Code: 40007, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("election not found")}
	ErrTrusteeNotFound       = Error{Code: 40008, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("trustee not found")}
	ErrSessionNotFound       = Error{Code: 40009, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("tallying session not found")}
	ErrResultNotFound        = Error{Code: 40010, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("election result not found")}
	ErrConflict              = Error{Code: 40011, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("conflict")}
	ErrInvalidState          = Error{Code: 40012, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("invalid state for operation")}
	ErrDuplicateSubmission   = Error{Code: 40013, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("duplicate submission")}
	ErrTooFewTrustees        = Error{Code: 40014, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("too few verified trustees")}
	ErrNotFinalized          = Error{Code: 40015, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("election not finalized")}
	ErrCryptoOperationFailed = Error{Code: 40016, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("cryptographic operation failed")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
	ErrPublisherUnavailable       = Error{Code: 50003, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("blockchain publisher not configured")}
)

// classifyEngineError maps a tally/audit/storage/threshold sentinel error to
// the api.Error that best matches it, falling back to a generic 500 for
// anything unrecognized. Handlers call this once after every engine call
// that can fail for a caller-attributable reason.
func classifyEngineError(err error) Error {
	switch {
	case err == nil:
		return ErrGenericInternalServerError
	case errors.Is(err, tally.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return ErrElectionNotFound
	case errors.Is(err, tally.ErrConflict), errors.Is(err, storage.ErrKeyAlreadyExists):
		return ErrConflict
	case errors.Is(err, tally.ErrDuplicate):
		return ErrDuplicateSubmission
	case errors.Is(err, tally.ErrTooFewTrustees):
		return ErrTooFewTrustees
	case errors.Is(err, tally.ErrState):
		return ErrInvalidState
	case errors.Is(err, paillier.ErrDomain):
		return ErrMalformedBody
	case errors.Is(err, tally.ErrOverflowTally):
		return ErrCryptoOperationFailed
	case errors.Is(err, tally.ErrCrypto), errors.Is(err, paillier.ErrKeyGen), errors.Is(err, threshold.ErrCombine), errors.Is(err, threshold.ErrOverflow), errors.Is(err, threshold.ErrSeal):
		return ErrCryptoOperationFailed
	default:
		return ErrGenericInternalServerError
	}
}
