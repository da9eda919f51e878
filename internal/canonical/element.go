package canonical

// Element is a node of the canonicalization tree. Its content is either
// character data or a sequence of child elements, never both. The tree is
// a strict arborescence: one parent per node, no sharing, no back
// pointers. Nodes are mutated only while the parser builds the tree.
type Element struct {
	// NS is the element's namespace binding, present iff the source name
	// carried a prefix.
	NS *Namespace

	// Local is the element's local name.
	Local string

	// children and text are mutually exclusive; see AddChild and SetText.
	children []*Element
	text     string

	// KnownNS accumulates every binding in scope at this element:
	// inherited from the parent, then merged with declarations appearing
	// on the element itself.
	KnownNS NamespaceTable

	// UsedNS holds the namespaces referenced by this element's own name
	// or by its attributes' names. Descendants do not contribute.
	UsedNS namespaceSet

	// Attrs holds the element's attributes in attribute order.
	Attrs []Attribute
}

// AddChild appends a child element. Any character data previously set on
// the element is discarded.
func (e *Element) AddChild(child *Element) {
	e.text = ""
	e.children = append(e.children, child)
}

// SetText replaces the element content with character data, discarding
// any existing children. When several character runs arrive for one
// element the latest wins.
func (e *Element) SetText(s string) {
	e.children = nil
	e.text = s
}

// FullName returns "prefix:local" when the element is namespaced,
// otherwise the local name alone.
func (e *Element) FullName() string {
	if e.NS != nil {
		return e.NS.Prefix + ":" + e.Local
	}
	return e.Local
}

// addAttr inserts an attribute keeping Attrs in attribute order. The
// reader does not reject repeated attributes; an attribute that compares
// equal to one already present is inserted before it, and both are kept.
func (e *Element) addAttr(a Attribute) {
	i := 0
	for i < len(e.Attrs) && e.Attrs[i].Compare(a) < 0 {
		i++
	}
	e.Attrs = append(e.Attrs, Attribute{})
	copy(e.Attrs[i+1:], e.Attrs[i:])
	e.Attrs[i] = a
}
