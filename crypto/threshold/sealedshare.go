package threshold

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/scrypt"
)

const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 16
)

// Seal encrypts share at rest with a key derived via scrypt from the
// operator-supplied credential. The returned blob is salt || nonce ||
// ciphertext and is what gets persisted as Trustee.EncryptedShare; the
// plaintext share only ever exists in memory for the duration of a single
// partial_decrypt call.
func Seal(share *KeyShare, credential []byte) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeal, err)
	}
	key, err := scrypt.Key(credential, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("%w: deriving key: %v", ErrSeal, err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeal, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeal, err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeal, err)
	}

	plaintext := shareToBytes(share)
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	blob := make([]byte, 0, saltLen+len(nonce)+len(ciphertext))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)
	return blob, nil
}

// Open decrypts a blob produced by Seal back into a KeyShare. Callers must
// zeroize the returned share's Value bytes once the partial_decrypt call
// that needed it has completed.
func Open(blob, credential []byte) (*KeyShare, error) {
	if len(blob) < saltLen {
		return nil, fmt.Errorf("%w: blob too short", ErrSeal)
	}
	salt := blob[:saltLen]
	rest := blob[saltLen:]

	key, err := scrypt.Key(credential, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("%w: deriving key: %v", ErrSeal, err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeal, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeal, err)
	}
	if len(rest) < gcm.NonceSize() {
		return nil, fmt.Errorf("%w: blob too short", ErrSeal)
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: decryption failed: %v", ErrSeal, err)
	}
	return shareFromBytes(plaintext)
}

// shareToBytes serializes a KeyShare as a 4-byte big-endian index followed
// by the big-endian bytes of its value.
func shareToBytes(share *KeyShare) []byte {
	out := make([]byte, 4, 4+len(share.Value.Bytes()))
	idx := uint32(share.Index)
	out[0] = byte(idx >> 24)
	out[1] = byte(idx >> 16)
	out[2] = byte(idx >> 8)
	out[3] = byte(idx)
	return append(out, share.Value.Bytes()...)
}

func shareFromBytes(b []byte) (*KeyShare, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("%w: malformed share payload", ErrSeal)
	}
	idx := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	return &KeyShare{
		Index: int(idx),
		Value: new(big.Int).SetBytes(b[4:]),
	}, nil
}
