package canonical

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// parse streams raw XML tokens from the input and builds the element tree,
// computing the known and used namespace sets along the way. Only start
// tags, end tags, and character data are consumed; comments, processing
// instructions, and directives are silently dropped.
//
// Raw tokens are used instead of cooked ones because canonicalization
// needs the prefixes as written, not the resolved namespace URIs the
// cooked reader substitutes into names.
func parse(input string) (*Element, error) {
	dec := xml.NewDecoder(strings.NewReader(input))

	var stack []*Element
	var root *Element

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrXMLRead, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			elem, err := startElement(t, stack)
			if err != nil {
				return nil, err
			}
			if len(stack) > 0 {
				stack[len(stack)-1].AddChild(elem)
			} else {
				root = elem
			}
			stack = append(stack, elem)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unexpected end tag </%s>", ErrXMLRead, rawName(t.Name))
			}
			top := stack[len(stack)-1]
			if rawName(t.Name) != top.FullName() {
				return nil, fmt.Errorf("%w: end tag </%s> does not match <%s>", ErrXMLRead, rawName(t.Name), top.FullName())
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if isWhitespace(t) {
				continue
			}
			if len(stack) == 0 {
				return nil, ErrReadTextValue
			}
			stack[len(stack)-1].SetText(string(t))
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: unexpected end of input inside <%s>", ErrXMLRead, stack[len(stack)-1].FullName())
	}
	if root == nil {
		return nil, ErrEmptyDoc
	}
	return root, nil
}

// startElement builds an Element from a raw start tag.
//
// The element inherits the bindings known to the open element below it on
// the stack, merges in its own xmlns declarations, and records in UsedNS
// every namespace referenced by its own name or by a prefixed attribute.
// Unprefixed attributes never use the default namespace.
func startElement(t xml.StartElement, stack []*Element) (*Element, error) {
	elem := &Element{Local: t.Name.Local}

	if len(stack) > 0 {
		elem.KnownNS = stack[len(stack)-1].KnownNS.Clone()
	}

	// First pass: xmlns declarations extend the known bindings.
	for _, attr := range t.Attr {
		prefix, ok := declaredPrefix(attr)
		if !ok {
			continue
		}
		if !validPrefix(prefix) {
			return nil, invalidPrefixError(prefix)
		}
		elem.KnownNS.Upsert(Namespace{Prefix: prefix, URI: attr.Value})
	}

	// The element's own name. Unprefixed names use the default namespace
	// when one is in scope.
	if t.Name.Space == "" {
		if def, ok := elem.KnownNS.Lookup(""); ok && def.IsDefault() {
			elem.UsedNS.Add(def)
		}
	} else {
		ns, err := resolvePrefix(t.Name.Space, &elem.KnownNS)
		if err != nil {
			return nil, err
		}
		elem.UsedNS.Add(ns)
		elem.NS = &ns
	}

	// Second pass: ordinary attributes. Prefixed attribute names count as
	// namespace uses.
	for _, attr := range t.Attr {
		if _, ok := declaredPrefix(attr); ok {
			continue
		}
		if attr.Name.Space == "" {
			elem.addAttr(Attribute{Local: attr.Name.Local, Value: attr.Value})
			continue
		}
		ns, err := resolvePrefix(attr.Name.Space, &elem.KnownNS)
		if err != nil {
			return nil, err
		}
		elem.UsedNS.Add(ns)
		elem.addAttr(Attribute{NS: &ns, Local: attr.Name.Local, Value: attr.Value})
	}

	return elem, nil
}

// declaredPrefix reports whether the raw attribute is a namespace
// declaration and, if so, which prefix it declares. The default
// declaration xmlns="..." declares the empty prefix.
func declaredPrefix(attr xml.Attr) (string, bool) {
	if attr.Name.Space == "xmlns" {
		return attr.Name.Local, true
	}
	if attr.Name.Space == "" && attr.Name.Local == "xmlns" {
		return "", true
	}
	return "", false
}

// resolvePrefix maps a prefix appearing on a name to its binding in the
// known set. The resulting binding is re-upserted (always a no-op, since
// it was just read from the table) and returned. A prefix the table does
// not hold is reported as ErrXMLRead.
func resolvePrefix(prefix string, known *NamespaceTable) (Namespace, error) {
	if !validPrefix(prefix) {
		return Namespace{}, invalidPrefixError(prefix)
	}
	ns, ok := known.Lookup(prefix)
	if !ok {
		return Namespace{}, fmt.Errorf("%w: undeclared namespace prefix %q", ErrXMLRead, prefix)
	}
	known.Upsert(ns)
	return ns, nil
}

// rawName reconstructs the name as written in the source.
func rawName(n xml.Name) string {
	if n.Space != "" {
		return n.Space + ":" + n.Local
	}
	return n.Local
}

// isWhitespace reports whether the character data run is entirely XML
// whitespace. Such runs separate tags and are insignificant.
func isWhitespace(data []byte) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
