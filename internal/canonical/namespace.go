package canonical

// maxPrefixLen is the maximum accepted length, in bytes, of a namespace
// prefix. Prefixes must also be pure ASCII so that the case-insensitive
// ordering below stays well defined.
const maxPrefixLen = 16

// Namespace represents an XML namespace binding: a prefix and the URI it
// maps to. The empty prefix denotes the default namespace.
type Namespace struct {
	Prefix string
	URI    string
}

// IsDefault reports whether this is the default namespace binding
// (no prefix, non-empty URI).
func (n Namespace) IsDefault() bool {
	return n.Prefix == "" && n.URI != ""
}

// Compare defines the total order over namespaces: prefixes are compared
// case-insensitively first, then URIs case-insensitively. Ties on both
// mean the namespaces are equal.
func (n Namespace) Compare(other Namespace) int {
	if c := compareFold(n.Prefix, other.Prefix); c != 0 {
		return c
	}
	return compareFold(n.URI, other.URI)
}

// validPrefix reports whether s is an acceptable namespace prefix.
// The empty string is valid: it denotes the default namespace.
func validPrefix(s string) bool {
	if len(s) > maxPrefixLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// compareFold compares two strings byte-wise with ASCII case folding.
// When one string is a prefix of the other, the shorter sorts first.
func compareFold(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ca, cb := lowerASCII(a[i]), lowerASCII(b[i])
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// NamespaceTable is a collection of namespace bindings keyed by prefix.
// At most one binding exists per prefix, and iteration follows the
// namespace total order. The zero value is an empty table.
type NamespaceTable struct {
	entries []Namespace // kept sorted by Namespace.Compare
}

// Upsert inserts or replaces a binding:
//   - no entry with that prefix: insert
//   - entry with the same prefix and URI: nothing happens
//   - entry with the same prefix and a different URI: replaced
//
// The table therefore holds at most one binding per prefix in scope at
// the element it belongs to.
func (t *NamespaceTable) Upsert(ns Namespace) {
	for i, e := range t.entries {
		if e.Prefix == ns.Prefix {
			if e.URI == ns.URI {
				return
			}
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			break
		}
	}
	t.insertSorted(ns)
}

func (t *NamespaceTable) insertSorted(ns Namespace) {
	i := 0
	for i < len(t.entries) && t.entries[i].Compare(ns) < 0 {
		i++
	}
	t.entries = append(t.entries, Namespace{})
	copy(t.entries[i+1:], t.entries[i:])
	t.entries[i] = ns
}

// Lookup returns the binding for the given prefix, if present.
func (t *NamespaceTable) Lookup(prefix string) (Namespace, bool) {
	for _, e := range t.entries {
		if e.Prefix == prefix {
			return e, true
		}
	}
	return Namespace{}, false
}

// All returns the bindings in namespace order. The returned slice is the
// table's backing store and must not be modified.
func (t *NamespaceTable) All() []Namespace {
	return t.entries
}

// Len returns the number of bindings in the table.
func (t *NamespaceTable) Len() int {
	return len(t.entries)
}

// Clone returns an independent copy of the table.
func (t *NamespaceTable) Clone() NamespaceTable {
	entries := make([]Namespace, len(t.entries))
	copy(entries, t.entries)
	return NamespaceTable{entries: entries}
}

// namespaceSet is an ordered set of namespaces, used for the "used by this
// element" and "already written on an ancestor" accumulators. Unlike
// NamespaceTable it may hold several bindings with the same prefix.
type namespaceSet struct {
	entries []Namespace // kept sorted by Namespace.Compare
}

func newNamespaceSet() namespaceSet {
	return namespaceSet{}
}

// Add inserts ns unless an equal namespace is already present.
func (s *namespaceSet) Add(ns Namespace) {
	i := 0
	for i < len(s.entries) {
		c := s.entries[i].Compare(ns)
		if c == 0 {
			return
		}
		if c > 0 {
			break
		}
		i++
	}
	s.entries = append(s.entries, Namespace{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = ns
}

// Contains reports whether an equal namespace is in the set.
func (s *namespaceSet) Contains(ns Namespace) bool {
	for _, e := range s.entries {
		c := e.Compare(ns)
		if c == 0 {
			return true
		}
		if c > 0 {
			return false
		}
	}
	return false
}

// All returns the set contents in namespace order.
func (s *namespaceSet) All() []Namespace {
	return s.entries
}

// Clone returns an independent copy of the set.
func (s *namespaceSet) Clone() namespaceSet {
	entries := make([]Namespace, len(s.entries))
	copy(entries, s.entries)
	return namespaceSet{entries: entries}
}
