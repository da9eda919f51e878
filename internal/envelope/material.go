package envelope

import (
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"

	"golang.org/x/crypto/pkcs12"
)

// Certificate parsing error types for specific error handling.
var (
	// ErrNilPFXData indicates that the provided PFX data is nil or empty.
	ErrNilPFXData = errors.New("PFX data is nil or empty")

	// ErrInvalidPFXFormat indicates that the PFX data could not be parsed.
	ErrInvalidPFXFormat = errors.New("invalid PFX format or incorrect password")

	// ErrNoPrivateKey indicates that no private key was found in the PFX file.
	ErrNoPrivateKey = errors.New("no private key found in PFX file")

	// ErrNoCertificate indicates that no certificate was found in the PFX file.
	ErrNoCertificate = errors.New("no certificate found in PFX file")

	// ErrUnsupportedKeyType indicates that the private key type is not RSA.
	ErrUnsupportedKeyType = errors.New("unsupported private key type: only RSA keys are supported")

	// ErrInvalidBase64 indicates that the base64 encoding is invalid.
	ErrInvalidBase64 = errors.New("invalid base64 encoding")
)

// SigningMaterial holds the cryptographic material used to sign an
// envelope: the public X.509 certificate (DER, Base64) that becomes the
// BinarySecurityToken, and the RSA private key (DER, Base64).
type SigningMaterial struct {
	// CertificateBase64 is the Base64-encoded DER certificate.
	CertificateBase64 string

	// PrivateKeyBase64 is the Base64-encoded DER private key
	// (PKCS#8 or PKCS#1).
	PrivateKeyBase64 string
}

// NewSigningMaterial builds signing material from a Base64 certificate
// and key pair as supplied by an integrator.
func NewSigningMaterial(certificateBase64, privateKeyBase64 string) *SigningMaterial {
	return &SigningMaterial{
		CertificateBase64: certificateBase64,
		PrivateKeyBase64:  privateKeyBase64,
	}
}

// SigningMaterialFromPFX extracts signing material from a PFX/P12 bundle.
// The PFX format (PKCS#12) stores the private key and certificate
// together, password-protected.
func SigningMaterialFromPFX(pfxData []byte, password string) (*SigningMaterial, error) {
	if len(pfxData) == 0 {
		return nil, ErrNilPFXData
	}

	privateKey, certificate, err := pkcs12.Decode(pfxData, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPFXFormat, err)
	}
	if privateKey == nil {
		return nil, ErrNoPrivateKey
	}
	if certificate == nil {
		return nil, ErrNoCertificate
	}

	rsaKey, ok := privateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrUnsupportedKeyType, privateKey)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(rsaKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encode private key: %w", err)
	}

	return &SigningMaterial{
		CertificateBase64: ToBase64(certificate.Raw),
		PrivateKeyBase64:  ToBase64(keyDER),
	}, nil
}

// SigningMaterialFromPFXBase64 extracts signing material from
// Base64-encoded PFX data, as transmitted in API requests.
func SigningMaterialFromPFXBase64(pfxBase64, password string) (*SigningMaterial, error) {
	if pfxBase64 == "" {
		return nil, ErrNilPFXData
	}

	pfxData, err := FromBase64(pfxBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}
	return SigningMaterialFromPFX(pfxData, password)
}

// Certificate parses and returns the X.509 certificate carried by the
// material.
func (m *SigningMaterial) Certificate() (*x509.Certificate, error) {
	der, err := FromBase64(m.CertificateBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	return cert, nil
}

// SubjectCN returns the Common Name from the certificate subject, or the
// empty string when the certificate cannot be parsed.
func (m *SigningMaterial) SubjectCN() string {
	cert, err := m.Certificate()
	if err != nil {
		return ""
	}
	return cert.Subject.CommonName
}
