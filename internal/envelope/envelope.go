// Package envelope builds SOAP 1.1 message envelopes conforming to the
// WS-Security 1.0 and XML Digital Signature profiles. Signed envelopes use
// exclusive XML canonicalization, SHA-256 digests, and RSA-SHA256 PKCS#1
// v1.5 signatures over the SignedInfo element.
package envelope

import (
	"fmt"
	"time"

	"github.com/beevik/etree"

	"github.com/eduardo/soap-wssec/internal/canonical"
)

// WS-Security namespaces.
const (
	// NamespaceSOAPEnv is the SOAP 1.1 envelope namespace.
	NamespaceSOAPEnv = "http://schemas.xmlsoap.org/soap/envelope/"

	// NamespaceWSSE is the WS-Security security extension namespace.
	NamespaceWSSE = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"

	// NamespaceWSU is the WS-Security utility namespace.
	NamespaceWSU = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd"

	// NamespaceXMLDSig is the XML Digital Signature namespace.
	NamespaceXMLDSig = "http://www.w3.org/2000/09/xmldsig#"
)

// XMLDSig algorithm identifiers as defined by W3C standards.
const (
	// AlgorithmExcC14N is the Exclusive XML Canonicalization algorithm.
	AlgorithmExcC14N = "http://www.w3.org/2001/10/xml-exc-c14n#"

	// AlgorithmSHA256 is the SHA-256 digest algorithm.
	AlgorithmSHA256 = "http://www.w3.org/2001/04/xmlenc#sha256"

	// AlgorithmRSASHA256 is the RSA-SHA256 signature algorithm.
	AlgorithmRSASHA256 = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
)

// WS-Security token type identifiers.
const (
	// ValueTypeX509Token identifies an X.509 v3 certificate token.
	ValueTypeX509Token = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-x509-token-profile-1.0#X509v3"

	// EncodingTypeBase64 identifies Base64 token encoding.
	EncodingTypeBase64 = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-soap-message-security-1.0#Base64Binary"
)

// Fixed wsu:Id values referenced by the SignedInfo element.
const (
	// TimestampID is the wsu:Id of the Timestamp element.
	TimestampID = "Timsta"

	// BodyID is the wsu:Id of the Body element.
	BodyID = "Msgbody"

	// BinarySecurityTokenID is the wsu:Id of the BinarySecurityToken element.
	BinarySecurityTokenID = "X509Token1"
)

// Envelope assembles a SOAP message envelope. The zero value is not
// usable; use one of the constructors.
type Envelope struct {
	// timestamp is the optional validity window of the message.
	timestamp *Timestamp

	// bodyXML is the caller-supplied inner XML of the message body.
	bodyXML string

	// material holds the signing certificate and key. Nil means the
	// security header carries no signature.
	material *SigningMaterial
}

// NewSigned builds a signed envelope using the provided certificate and
// private key material.
func NewSigned(bodyXML string, material *SigningMaterial) *Envelope {
	return &Envelope{
		bodyXML:  bodyXML,
		material: material,
	}
}

// NewSignedWithTimestamp builds a signed envelope valid for the given
// duration from now.
func NewSignedWithTimestamp(validFor time.Duration, bodyXML string, material *SigningMaterial) *Envelope {
	return &Envelope{
		bodyXML:   bodyXML,
		material:  material,
		timestamp: NewTimestampValidFor(validFor),
	}
}

// NewUnsigned builds an envelope without a signature.
func NewUnsigned(bodyXML string) *Envelope {
	return &Envelope{bodyXML: bodyXML}
}

// NewUnsignedWithTimestamp builds an unsigned envelope valid for the given
// duration from now.
func NewUnsignedWithTimestamp(validFor time.Duration, bodyXML string) *Envelope {
	return &Envelope{
		bodyXML:   bodyXML,
		timestamp: NewTimestampValidFor(validFor),
	}
}

// BuildXML returns the complete SOAP envelope as an XML string.
//
// The Body, Timestamp, and SignedInfo fragments are canonicalized before
// they feed the digests and the signature; the outer envelope itself is
// not canonical.
func (e *Envelope) BuildXML() (string, error) {
	canonicalTimestamp, err := e.canonicalTimestamp()
	if err != nil {
		return "", err
	}

	canonicalBody, err := e.canonicalBody()
	if err != nil {
		return "", err
	}

	timestampDigest := ""
	if canonicalTimestamp != "" {
		timestampDigest = SHA256Base64([]byte(canonicalTimestamp))
	}
	bodyDigest := SHA256Base64([]byte(canonicalBody))

	canonicalSignedInfo, err := e.canonicalSignedInfo(timestampDigest, bodyDigest)
	if err != nil {
		return "", err
	}

	var security string
	if e.material == nil {
		security = fmt.Sprintf(`<wsse:Security soapenv:mustUnderstand="1">%s</wsse:Security>`, canonicalTimestamp)
	} else {
		signature, err := SignSHA256(e.material.PrivateKeyBase64, []byte(canonicalSignedInfo))
		if err != nil {
			return "", err
		}
		security = e.securityWithSignature(canonicalTimestamp, canonicalSignedInfo, ToBase64(signature))
	}

	return fmt.Sprintf(envelopeTemplate, security, canonicalBody), nil
}

// securityWithSignature assembles the full wsse:Security header:
// timestamp, binary security token, and ds:Signature with key reference.
func (e *Envelope) securityWithSignature(canonicalTimestamp, canonicalSignedInfo, signatureBase64 string) string {
	return fmt.Sprintf(securityTemplate,
		canonicalTimestamp,
		BinarySecurityTokenID,
		ValueTypeX509Token,
		EncodingTypeBase64,
		e.material.CertificateBase64,
		canonicalSignedInfo,
		signatureBase64,
		BinarySecurityTokenID,
		ValueTypeX509Token,
	)
}

// canonicalBody wraps the caller's body XML in the soapenv:Body element
// and canonicalizes the result.
func (e *Envelope) canonicalBody() (string, error) {
	fullBody := fmt.Sprintf(
		`<soapenv:Body xmlns:soapenv="%s" xmlns:wsu="%s" wsu:Id="%s">%s</soapenv:Body>`,
		NamespaceSOAPEnv, NamespaceWSU, BodyID, e.bodyXML,
	)
	return canonical.Canonicalize(fullBody)
}

// canonicalTimestamp builds the wsu:Timestamp fragment and canonicalizes
// it. Returns the empty string when the envelope has no validity window.
func (e *Envelope) canonicalTimestamp() (string, error) {
	if e.timestamp == nil {
		return "", nil
	}

	ts := etree.NewElement("wsu:Timestamp")
	ts.CreateAttr("xmlns:wsu", NamespaceWSU)
	ts.CreateAttr("wsu:Id", TimestampID)
	ts.CreateElement("wsu:Created").SetText(e.timestamp.CreatedString())
	ts.CreateElement("wsu:Expires").SetText(e.timestamp.ExpiresString())

	fragment, err := serializeElement(ts)
	if err != nil {
		return "", err
	}
	return canonical.Canonicalize(fragment)
}

// canonicalSignedInfo builds the ds:SignedInfo element referencing the
// body digest (and the timestamp digest when present) and canonicalizes
// it. Its canonical bytes are the input to the RSA signature.
func (e *Envelope) canonicalSignedInfo(timestampDigest, bodyDigest string) (string, error) {
	signedInfo := etree.NewElement("ds:SignedInfo")
	signedInfo.CreateAttr("xmlns:ds", NamespaceXMLDSig)

	canonMethod := signedInfo.CreateElement("ds:CanonicalizationMethod")
	canonMethod.CreateAttr("Algorithm", AlgorithmExcC14N)

	sigMethod := signedInfo.CreateElement("ds:SignatureMethod")
	sigMethod.CreateAttr("Algorithm", AlgorithmRSASHA256)

	if timestampDigest != "" {
		appendReference(signedInfo, "#"+TimestampID, timestampDigest)
	}
	appendReference(signedInfo, "#"+BodyID, bodyDigest)

	fragment, err := serializeElement(signedInfo)
	if err != nil {
		return "", err
	}
	return canonical.Canonicalize(fragment)
}

// appendReference adds a ds:Reference with the exc-c14n transform and a
// SHA-256 digest value.
func appendReference(signedInfo *etree.Element, uri, digest string) {
	reference := signedInfo.CreateElement("ds:Reference")
	reference.CreateAttr("URI", uri)

	transforms := reference.CreateElement("ds:Transforms")
	transform := transforms.CreateElement("ds:Transform")
	transform.CreateAttr("Algorithm", AlgorithmExcC14N)

	digestMethod := reference.CreateElement("ds:DigestMethod")
	digestMethod.CreateAttr("Algorithm", AlgorithmSHA256)

	reference.CreateElement("ds:DigestValue").SetText(digest)
}

// serializeElement renders a detached etree element as an XML string.
func serializeElement(elem *etree.Element) (string, error) {
	doc := etree.NewDocument()
	doc.SetRoot(elem)
	s, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("failed to serialize XML fragment: %w", err)
	}
	return s, nil
}

// envelopeTemplate is the outer SOAP envelope. Only the embedded
// fragments are canonical; the envelope itself is presentation XML.
const envelopeTemplate = `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"
              xmlns:wsse="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
              xmlns:ds="http://www.w3.org/2000/09/xmldsig#"
              xmlns:wsu="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd">
<soapenv:Header>%s</soapenv:Header>%s</soapenv:Envelope>`

// securityTemplate is the wsse:Security header for signed envelopes.
const securityTemplate = `<wsse:Security soapenv:mustUnderstand="1">
%s
<wsse:BinarySecurityToken
    wsu:Id="%s"
    ValueType="%s"
    EncodingType="%s">%s</wsse:BinarySecurityToken>
<ds:Signature>%s<ds:SignatureValue>%s</ds:SignatureValue>
    <ds:KeyInfo>
        <wsse:SecurityTokenReference>
            <wsse:Reference URI="#%s" ValueType="%s"/>
        </wsse:SecurityTokenReference>
    </ds:KeyInfo>
</ds:Signature>
</wsse:Security>`
