package canonical

import "testing"

func TestNamespace_IsDefault(t *testing.T) {
	tests := []struct {
		name string
		ns   Namespace
		want bool
	}{
		{"default namespace", Namespace{Prefix: "", URI: "http://a.a"}, true},
		{"prefixed namespace", Namespace{Prefix: "a", URI: "http://a.a"}, false},
		{"empty binding", Namespace{Prefix: "", URI: ""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ns.IsDefault(); got != tt.want {
				t.Errorf("IsDefault() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNamespace_Compare(t *testing.T) {
	tests := []struct {
		name string
		a, b Namespace
		want int
	}{
		{
			"default prefix sorts first",
			Namespace{Prefix: "", URI: "http://x.x"},
			Namespace{Prefix: "a", URI: "http://a.a"},
			-1,
		},
		{
			"prefixes compare case-insensitively",
			Namespace{Prefix: "ABC", URI: "http://x.x"},
			Namespace{Prefix: "abd", URI: "http://x.x"},
			-1,
		},
		{
			"equal prefixes fall back to uri",
			Namespace{Prefix: "a", URI: "http://a.a"},
			Namespace{Prefix: "a", URI: "http://b.b"},
			-1,
		},
		{
			"equal on both fields",
			Namespace{Prefix: "a", URI: "http://a.a"},
			Namespace{Prefix: "a", URI: "http://a.a"},
			0,
		},
		{
			"shorter prefix sorts first on common prefix",
			Namespace{Prefix: "ns", URI: "http://x.x"},
			Namespace{Prefix: "ns2", URI: "http://x.x"},
			-1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
			if got := tt.b.Compare(tt.a); got != -tt.want {
				t.Errorf("reversed Compare() = %d, want %d", got, -tt.want)
			}
		})
	}
}

func TestNamespaceTable_Upsert(t *testing.T) {
	var table NamespaceTable

	table.Upsert(Namespace{Prefix: "a", URI: "http://a.a"})
	table.Upsert(Namespace{Prefix: "b", URI: "http://b.b"})
	if table.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", table.Len())
	}

	// Same prefix and uri: no duplicate.
	table.Upsert(Namespace{Prefix: "a", URI: "http://a.a"})
	if table.Len() != 2 {
		t.Errorf("identical upsert must not grow the table, got %d entries", table.Len())
	}

	// Same prefix, different uri: replaced.
	table.Upsert(Namespace{Prefix: "a", URI: "http://other.a"})
	if table.Len() != 2 {
		t.Errorf("redefining upsert must not grow the table, got %d entries", table.Len())
	}
	ns, ok := table.Lookup("a")
	if !ok || ns.URI != "http://other.a" {
		t.Errorf("expected prefix a bound to http://other.a, got %+v (found=%v)", ns, ok)
	}
}

func TestNamespaceTable_IterationOrder(t *testing.T) {
	var table NamespaceTable
	table.Upsert(Namespace{Prefix: "z", URI: "http://z.z"})
	table.Upsert(Namespace{Prefix: "", URI: "http://def.ault"})
	table.Upsert(Namespace{Prefix: "B", URI: "http://b.b"})
	table.Upsert(Namespace{Prefix: "a", URI: "http://a.a"})

	var prefixes []string
	for _, ns := range table.All() {
		prefixes = append(prefixes, ns.Prefix)
	}

	want := []string{"", "a", "B", "z"}
	if len(prefixes) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(prefixes))
	}
	for i := range want {
		if prefixes[i] != want[i] {
			t.Errorf("position %d: expected prefix %q, got %q", i, want[i], prefixes[i])
		}
	}
}

func TestNamespaceTable_CloneIsIndependent(t *testing.T) {
	var table NamespaceTable
	table.Upsert(Namespace{Prefix: "a", URI: "http://a.a"})

	clone := table.Clone()
	clone.Upsert(Namespace{Prefix: "a", URI: "http://changed.a"})
	clone.Upsert(Namespace{Prefix: "b", URI: "http://b.b"})

	ns, _ := table.Lookup("a")
	if ns.URI != "http://a.a" {
		t.Errorf("mutating a clone changed the original: %+v", ns)
	}
	if table.Len() != 1 {
		t.Errorf("mutating a clone grew the original: %d entries", table.Len())
	}
}

func TestValidPrefix(t *testing.T) {
	tests := []struct {
		prefix string
		want   bool
	}{
		{"", true},
		{"soapenv", true},
		{"aaaaaaaaaaaaaaaa", true},   // 16 bytes, at the limit
		{"aaaaaaaaaaaaaaaaa", false}, // 17 bytes
		{"přé", false},               // non-ASCII
	}

	for _, tt := range tests {
		if got := validPrefix(tt.prefix); got != tt.want {
			t.Errorf("validPrefix(%q) = %v, want %v", tt.prefix, got, tt.want)
		}
	}
}
