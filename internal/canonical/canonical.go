// Package canonical implements Exclusive XML Canonicalization (exc-c14n)
// for WS-Security message fragments.
//
// The canonical form is a normalized byte representation that ensures two
// XML documents with the same logical content hash identically, which is
// essential for digital signature verification. The transformation:
//
//   - moves each namespace declaration to the topmost element that
//     actually uses it and drops declarations nothing uses
//   - sorts namespace declarations and attributes deterministically
//   - removes insignificant whitespace between elements
//   - escapes attribute values
//   - renders empty elements as start-end tag pairs (never self-closing)
//
// Comments, processing instructions, and the XML declaration are dropped.
package canonical

import (
	"errors"
	"fmt"
)

// Canonicalization error values. All are terminal for the call; no partial
// result is ever returned.
var (
	// ErrXMLRead indicates the underlying XML reader rejected the input.
	ErrXMLRead = errors.New("failed to read XML")

	// ErrEmptyDoc indicates the input contained no element.
	ErrEmptyDoc = errors.New("empty string is not a valid XML document")

	// ErrReadTextValue indicates character data appeared before any start tag.
	ErrReadTextValue = errors.New("failed to read a text value in the XML document")

	// ErrInvalidPrefix indicates a namespace prefix that is not ASCII or is
	// longer than maxPrefixLen bytes.
	ErrInvalidPrefix = errors.New("failed to parse XML namespace prefix")
)

// Canonicalize reads an XML document or fragment with a single root element
// and returns its canonical serialization.
func Canonicalize(xml string) (string, error) {
	root, err := parse(xml)
	if err != nil {
		return "", err
	}
	return root.canonicalXML(newNamespaceSet()), nil
}

// invalidPrefixError wraps ErrInvalidPrefix with the offending prefix.
func invalidPrefixError(prefix string) error {
	return fmt.Errorf("%w: %q must be ASCII and no longer than %d characters", ErrInvalidPrefix, prefix, maxPrefixLen)
}
