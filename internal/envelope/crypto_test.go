package envelope

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"errors"
	"testing"
)

func TestSHA256Base64_KnownVector(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}

	got := SHA256Base64(data)

	want := "dPgf4WfZm0y0HW0MzagieMrunz4vJdXlo5Nv89zsYNA="
	if got != want {
		t.Errorf("SHA256Base64 = %s, want %s", got, want)
	}
}

func TestBase64RoundTrip(t *testing.T) {
	data := []byte("ws-security payload")

	decoded, err := FromBase64(ToBase64(data))
	if err != nil {
		t.Fatalf("FromBase64 failed: %v", err)
	}
	if string(decoded) != string(data) {
		t.Errorf("round trip mismatch: %q", decoded)
	}
}

func TestFromBase64_Invalid(t *testing.T) {
	if _, err := FromBase64("not!!valid@@base64"); err == nil {
		t.Error("expected error for invalid base64")
	}
}

func TestSignSHA256_SignatureVerifies(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("failed to marshal key: %v", err)
	}

	data := []byte("<ds:SignedInfo xmlns:ds=\"http://www.w3.org/2000/09/xmldsig#\"></ds:SignedInfo>")

	signature, err := SignSHA256(ToBase64(keyDER), data)
	if err != nil {
		t.Fatalf("SignSHA256 failed: %v", err)
	}

	hash := sha256.Sum256(data)
	if err := rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, hash[:], signature); err != nil {
		t.Errorf("signature does not verify: %v", err)
	}
}

func TestSignSHA256_PKCS1Key(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	// Legacy PKCS#1 encoding must be accepted as well.
	keyDER := x509.MarshalPKCS1PrivateKey(key)

	if _, err := SignSHA256(ToBase64(keyDER), []byte("data")); err != nil {
		t.Errorf("SignSHA256 with PKCS#1 key failed: %v", err)
	}
}

func TestSignSHA256_InvalidBase64(t *testing.T) {
	_, err := SignSHA256("%%%not-base64%%%", []byte("data"))
	if !errors.Is(err, ErrReadPrivateKeyFromBase64) {
		t.Errorf("expected ErrReadPrivateKeyFromBase64, got %v", err)
	}
}

func TestSignSHA256_InvalidKeyBytes(t *testing.T) {
	_, err := SignSHA256(ToBase64([]byte("this is not a DER key")), []byte("data"))
	if !errors.Is(err, ErrInvalidPrivateKeyBytes) {
		t.Errorf("expected ErrInvalidPrivateKeyBytes, got %v", err)
	}
}

func TestSigningMaterialFromPFX_EmptyData(t *testing.T) {
	if _, err := SigningMaterialFromPFX(nil, "password"); !errors.Is(err, ErrNilPFXData) {
		t.Errorf("expected ErrNilPFXData, got %v", err)
	}
}

func TestSigningMaterialFromPFXBase64_InvalidEncoding(t *testing.T) {
	if _, err := SigningMaterialFromPFXBase64("***", "password"); !errors.Is(err, ErrInvalidBase64) {
		t.Errorf("expected ErrInvalidBase64, got %v", err)
	}
}

func TestSigningMaterialFromPFX_Garbage(t *testing.T) {
	if _, err := SigningMaterialFromPFX([]byte("garbage bytes"), "password"); !errors.Is(err, ErrInvalidPFXFormat) {
		t.Errorf("expected ErrInvalidPFXFormat, got %v", err)
	}
}
