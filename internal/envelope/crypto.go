package envelope

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
)

// Signing error types for specific error handling. All are fatal to the
// envelope construction.
var (
	// ErrReadPrivateKeyFromBase64 indicates the private key is not valid Base64.
	ErrReadPrivateKeyFromBase64 = errors.New("failed to decode private key from Base64")

	// ErrInvalidPrivateKeyBytes indicates the decoded bytes are not an RSA private key.
	ErrInvalidPrivateKeyBytes = errors.New("cannot read private key")

	// ErrSign indicates the RSA signing operation itself failed.
	ErrSign = errors.New("signing failed")
)

// ToBase64 encodes a byte slice as a standard Base64 string.
func ToBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// FromBase64 decodes a standard Base64 string into raw bytes.
func FromBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// SHA256Base64 returns the SHA-256 digest of the input, Base64 encoded.
// This is the digest form embedded in ds:DigestValue elements.
func SHA256Base64(data []byte) string {
	digest := sha256.Sum256(data)
	return ToBase64(digest[:])
}

// SignSHA256 signs data with RSA PKCS#1 v1.5 over a SHA-256 digest, using
// the Base64-encoded DER private key.
func SignSHA256(privateKeyBase64 string, data []byte) ([]byte, error) {
	keyDER, err := FromBase64(privateKeyBase64)
	if err != nil {
		return nil, ErrReadPrivateKeyFromBase64
	}

	key, err := parseRSAPrivateKey(keyDER)
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(data)
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, hash[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSign, err)
	}
	return signature, nil
}

// parseRSAPrivateKey reads a DER-encoded RSA private key, accepting both
// PKCS#8 and the legacy PKCS#1 encoding.
func parseRSAPrivateKey(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported key type %T", ErrInvalidPrivateKeyBytes, key)
		}
		return rsaKey, nil
	}

	key, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKeyBytes, err)
	}
	return key, nil
}
