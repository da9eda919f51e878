package envelope

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/eduardo/soap-wssec/internal/canonical"
)

// Verification error types.
var (
	// ErrMissingSignature indicates the envelope carries no ds:Signature.
	ErrMissingSignature = errors.New("envelope has no signature")

	// ErrSignatureMismatch indicates the RSA signature does not verify
	// against the canonical SignedInfo.
	ErrSignatureMismatch = errors.New("signature verification failed")

	// ErrDigestMismatch indicates a ds:DigestValue does not match the
	// recomputed digest of the referenced fragment.
	ErrDigestMismatch = errors.New("digest verification failed")

	// ErrUnsupportedPublicKey indicates the certificate does not carry an
	// RSA public key.
	ErrUnsupportedPublicKey = errors.New("certificate does not carry an RSA public key")
)

// Verify checks a signed envelope produced by BuildXML against the
// signer's certificate: the RSA-SHA256 signature over the canonical
// SignedInfo, and every digest reference (body, and timestamp when
// present).
func Verify(envelopeXML string, cert *x509.Certificate) error {
	publicKey, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return ErrUnsupportedPublicKey
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(envelopeXML); err != nil {
		return fmt.Errorf("failed to parse envelope: %w", err)
	}

	signature := doc.FindElement("//ds:Signature")
	if signature == nil {
		return ErrMissingSignature
	}

	signatureValue := signature.FindElement("ds:SignatureValue")
	if signatureValue == nil {
		return ErrMissingSignature
	}
	signatureBytes, err := FromBase64(strings.TrimSpace(signatureValue.Text()))
	if err != nil {
		return fmt.Errorf("invalid SignatureValue encoding: %w", err)
	}

	canonicalSignedInfo, err := extractCanonicalFragment(envelopeXML, "ds:SignedInfo")
	if err != nil {
		return err
	}

	hash := sha256.Sum256([]byte(canonicalSignedInfo))
	if err := rsa.VerifyPKCS1v15(publicKey, crypto.SHA256, hash[:], signatureBytes); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	}

	return verifyReferences(doc, envelopeXML)
}

// verifyReferences recomputes the digest of each referenced fragment and
// compares it against the ds:DigestValue in SignedInfo.
func verifyReferences(doc *etree.Document, envelopeXML string) error {
	for _, reference := range doc.FindElements("//ds:Reference") {
		uri := reference.SelectAttrValue("URI", "")
		digestValue := reference.FindElement("ds:DigestValue")
		if digestValue == nil {
			return fmt.Errorf("%w: reference %s has no digest value", ErrDigestMismatch, uri)
		}

		var elementName string
		switch uri {
		case "#" + BodyID:
			elementName = "soapenv:Body"
		case "#" + TimestampID:
			elementName = "wsu:Timestamp"
		default:
			return fmt.Errorf("%w: unknown reference URI %s", ErrDigestMismatch, uri)
		}

		fragment, err := extractCanonicalFragment(envelopeXML, elementName)
		if err != nil {
			return err
		}

		if SHA256Base64([]byte(fragment)) != strings.TrimSpace(digestValue.Text()) {
			return fmt.Errorf("%w: reference %s", ErrDigestMismatch, uri)
		}
	}
	return nil
}

// extractCanonicalFragment cuts the named element out of the envelope
// text. Fragments referenced by SignedInfo were embedded in canonical
// form, so running them through the canonicalizer again reproduces the
// exact signed bytes (canonicalization is idempotent).
func extractCanonicalFragment(envelopeXML, elementName string) (string, error) {
	start := strings.Index(envelopeXML, "<"+elementName)
	if start < 0 {
		return "", fmt.Errorf("%w: element %s not found", ErrDigestMismatch, elementName)
	}

	closeTag := "</" + elementName + ">"
	end := strings.Index(envelopeXML[start:], closeTag)
	if end < 0 {
		return "", fmt.Errorf("%w: element %s is not closed", ErrDigestMismatch, elementName)
	}

	fragment := envelopeXML[start : start+end+len(closeTag)]
	return canonical.Canonicalize(fragment)
}
