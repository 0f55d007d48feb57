package types

import (
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// BigInt is a math/big.Int that marshals as a decimal string in JSON and in
// CBOR as a sign flag plus magnitude bytes, so that Paillier moduli, ciphertexts and
// partial-decryption values round-trip exactly through both the HTTP API
// and any CBOR-encoded audit payload without precision loss.
type BigInt big.Int

// NewBigInt wraps x as a BigInt. A nil x yields a BigInt holding zero.
func NewBigInt(x *big.Int) *BigInt {
	if x == nil {
		return (*BigInt)(new(big.Int))
	}
	return (*BigInt)(new(big.Int).Set(x))
}

// MathBigInt returns the *big.Int view of b.
func (b *BigInt) MathBigInt() *big.Int {
	return (*big.Int)(b)
}

// SetBytes sets b to the value of buf interpreted as a big-endian unsigned
// integer and returns b.
func (b *BigInt) SetBytes(buf []byte) *BigInt {
	(*big.Int)(b).SetBytes(buf)
	return b
}

// Bytes returns the absolute value of b as a big-endian byte slice.
func (b *BigInt) Bytes() []byte {
	return (*big.Int)(b).Bytes()
}

// String returns the base-10 representation of b.
func (b *BigInt) String() string {
	return (*big.Int)(b).String()
}

// MarshalJSON implements json.Marshaler, encoding as a quoted decimal string
// so that values exceeding float64/int64 precision survive round-tripping.
func (b BigInt) MarshalJSON() ([]byte, error) {
	bi := (big.Int)(b)
	return []byte(`"` + bi.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler, accepting a quoted or bare
// decimal string.
func (b *BigInt) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		*b = BigInt(*new(big.Int))
		return nil
	}
	bi, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return &big.ErrNaN{}
	}
	*b = BigInt(*bi)
	return nil
}

// GobEncode implements gob.GobEncoder, delegating to big.Int's own gob
// encoding so BigInt round-trips through the gob-encoded storage layer.
func (b BigInt) GobEncode() ([]byte, error) {
	bi := (big.Int)(b)
	return bi.GobEncode()
}

// GobDecode implements gob.GobDecoder.
func (b *BigInt) GobDecode(data []byte) error {
	return (*big.Int)(b).GobDecode(data)
}

// MarshalCBOR implements cbor.Marshaler, encoding the absolute-value bytes
// with a sign flag so the decimal magnitude used by Paillier arithmetic
// never passes through a lossy float representation.
func (b BigInt) MarshalCBOR() ([]byte, error) {
	bi := (big.Int)(b)
	payload := struct {
		Neg   bool
		Bytes []byte
	}{
		Neg:   bi.Sign() < 0,
		Bytes: bi.Bytes(),
	}
	return cbor.Marshal(payload)
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (b *BigInt) UnmarshalCBOR(data []byte) error {
	var payload struct {
		Neg   bool
		Bytes []byte
	}
	if err := cbor.Unmarshal(data, &payload); err != nil {
		return err
	}
	bi := new(big.Int).SetBytes(payload.Bytes)
	if payload.Neg {
		bi.Neg(bi)
	}
	*b = BigInt(*bi)
	return nil
}
