package paillier

import "errors"

// Sentinel error kinds, matched with errors.Is by callers. These map onto
// the DomainError/CryptoError failure kinds at the API boundary (see
// package api) without crypto/paillier itself knowing anything about HTTP.
var (
	// ErrKeyGen is returned by GenerateKeyPair when prime sampling fails to
	// converge within its retry budget.
	ErrKeyGen = errors.New("paillier: key generation failed")
	// ErrDomain is returned when a plaintext falls outside [0, n) or a
	// requested key bit-length is invalid. Ciphertext arguments are not
	// range-checked.
	ErrDomain = errors.New("paillier: value outside domain")
)
