package security

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
)

// Signer computes the HMAC-SHA512 digests the payment gateway protocol
// requires, keyed with the merchant's shared secret.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("gateway hash secret required")
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Sign returns the lowercase-hex HMAC-SHA512 of data.
func (s *Signer) Sign(data string) string {
	mac := hmac.New(sha512.New, s.secret)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares the expected digest of data against the supplied hex
// signature in constant time.
func (s *Signer) Verify(data, hexSig string) bool {
	got, err := hex.DecodeString(hexSig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, s.secret)
	mac.Write([]byte(data))
	return hmac.Equal(mac.Sum(nil), got)
}
