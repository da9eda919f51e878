package canonical

import "strings"

// canonicalXML serializes the subtree rooted at e in canonical form.
//
// written holds the namespaces already declared on an ancestor. Each
// element declares exactly the namespaces it uses that no ancestor has
// declared yet; bindings that are merely inherited propagate down through
// KnownNS until a descendant uses them. This is the "declaration on the
// topmost user" rule of exclusive canonicalization, and the reason unused
// declarations vanish from the output.
//
// Every sibling receives the same written set: emissions by one subtree
// are not visible to the next.
func (e *Element) canonicalXML(written namespaceSet) string {
	var sb strings.Builder
	e.writeCanonical(&sb, written)
	return sb.String()
}

func (e *Element) writeCanonical(sb *strings.Builder, written namespaceSet) {
	fullName := e.FullName()

	sb.WriteByte('<')
	sb.WriteString(fullName)

	for _, ns := range e.UsedNS.All() {
		if written.Contains(ns) {
			continue
		}
		if ns.IsDefault() {
			sb.WriteString(` xmlns="`)
		} else {
			sb.WriteString(` xmlns:`)
			sb.WriteString(ns.Prefix)
			sb.WriteString(`="`)
		}
		sb.WriteString(ns.URI)
		sb.WriteByte('"')
		written.Add(ns)
	}

	for _, a := range e.Attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.FullName())
		sb.WriteString(`="`)
		sb.WriteString(escapeXML(a.Value))
		sb.WriteByte('"')
	}
	sb.WriteByte('>')

	if len(e.children) > 0 {
		for _, child := range e.children {
			child.writeCanonical(sb, written.Clone())
		}
	} else {
		// Character data passes through as received from the reader;
		// fragments fed to the signer carry pre-escaped text.
		sb.WriteString(e.text)
	}

	sb.WriteString("</")
	sb.WriteString(fullName)
	sb.WriteByte('>')
}

// escapeXML replaces the five predefined XML entities in s.
func escapeXML(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			sb.WriteString("&amp;")
		case '<':
			sb.WriteString("&lt;")
		case '>':
			sb.WriteString("&gt;")
		case '"':
			sb.WriteString("&quot;")
		case '\'':
			sb.WriteString("&apos;")
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}
