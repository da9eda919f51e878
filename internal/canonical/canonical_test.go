package canonical

import (
	"errors"
	"strings"
	"testing"
)

// checkCanonical canonicalizes input and compares against the expected
// byte-exact output.
func checkCanonical(t *testing.T, input, expected string) {
	t.Helper()

	got, err := Canonicalize(input)
	if err != nil {
		t.Fatalf("Canonicalize failed: %v", err)
	}
	if got != expected {
		t.Errorf("canonical form mismatch\n got: %s\nwant: %s", got, expected)
	}

	// Canonicalizing the canonical output must be a fixed point.
	again, err := Canonicalize(got)
	if err != nil {
		t.Fatalf("Canonicalize of canonical output failed: %v", err)
	}
	if again != got {
		t.Errorf("canonicalization is not idempotent\nfirst:  %s\nsecond: %s", got, again)
	}
}

func TestCanonicalize_DefaultNamespaceRedundancyRemoved(t *testing.T) {
	checkCanonical(t,
		`
	<A xmlns="http://a.a" xmlns:f="http://f.f">
		<B xmlns="http://a.a">
			<C xmlns="http://c.c">
			</C>
		</B>
	</A>
	`,
		`<A xmlns="http://a.a"><B><C xmlns="http://c.c"></C></B></A>`,
	)
}

func TestCanonicalize_PrefixedNamespaceFirstDefinitionSurvives(t *testing.T) {
	checkCanonical(t,
		`
	<a:A xmlns:a="http://a.a">
		<b:B xmlns:b="http://a.a" xmlns:f="http://f.f">
			<c:C xmlns:c="http://c.c" xmlns:d="http://c.c" xmlns:e="http://e.e"  />
		</b:B>
	</a:A>
	`,
		`<a:A xmlns:a="http://a.a"><b:B xmlns:b="http://a.a"><c:C xmlns:c="http://c.c"></c:C></b:B></a:A>`,
	)
}

func TestCanonicalize_UnusedNamespaceDroppedAndAttributesSorted(t *testing.T) {
	checkCanonical(t,
		`<A id="77" xmlns='http://def.ault' xmlns:z="http://z.z" d:id="a" z:id="q" xmlns:d="http://d.d" xmlns:unused="http://unu.sed" />`,
		`<A xmlns="http://def.ault" xmlns:d="http://d.d" xmlns:z="http://z.z" id="77" d:id="a" z:id="q"></A>`,
	)
}

func TestCanonicalize_UnusedDefaultNamespaceDropped(t *testing.T) {
	checkCanonical(t,
		`<z:A id="77" xmlns='http://def.ault' xmlns:z="http://z.z" d:id="a" z:id="q" xmlns:d="http://d.d"></z:A>`,
		`<z:A xmlns:d="http://d.d" xmlns:z="http://z.z" id="77" d:id="a" z:id="q"></z:A>`,
	)
}

func TestCanonicalize_DefaultNamespaceMovesToChild(t *testing.T) {
	checkCanonical(t,
		`<z:A id="77" xmlns='http://def.ault' xmlns:z="http://z.z" d:id="a" z:id="q" xmlns:d="http://d.d"><B /></z:A>`,
		`<z:A xmlns:d="http://d.d" xmlns:z="http://z.z" id="77" d:id="a" z:id="q"><B xmlns="http://def.ault"></B></z:A>`,
	)
}

func TestCanonicalize_PrefixedNamespaceMovesToEachUser(t *testing.T) {
	checkCanonical(t,
		`
		<A xmlns:da="http://d.a">
			<da:B />
			<da:C />
			<da:D xmlns:da="http://D.D" />
		</A>`,
		`<A><da:B xmlns:da="http://d.a"></da:B><da:C xmlns:da="http://d.a"></da:C><da:D xmlns:da="http://D.D"></da:D></A>`,
	)
}

func TestCanonicalize_MixedDocument(t *testing.T) {
	checkCanonical(t,
		`
		<w:world xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
   xmlns:w="http://w.w"
   xmlns:extra="http://example.com/extra"
   xmlns="http://default.namespace"
   extra:note="Some extrainfo">

	<!-- a comment that must disappear -->

	<country capital="Tokyo" name="Japan"
			 xmlns:unused="http://useless.namespace.com"
			 population="125.8 million" continent="Asia">
		<currency>Yen</currency>
		<language primary="true" script="kanji kana">Japanese</language>
		<area>377975</area>
		<emptyTag      />

	</country>

	<country xmlns="http://eu.eu" continent="Europe"  population="83 million" name="Germany"
			 capital="Berlin"
			 xmlns:why="http://why.not/use/more/ns">
		<currency>Euro</currency>
		<language primary="true"  note="used widely">German</language>
		<area>357386</area>
	</country>

</w:world>
`,
		`<w:world xmlns:extra="http://example.com/extra" xmlns:w="http://w.w" extra:note="Some extrainfo">`+
			`<country xmlns="http://default.namespace" capital="Tokyo" continent="Asia" name="Japan" population="125.8 million">`+
			`<currency>Yen</currency><language primary="true" script="kanji kana">Japanese</language>`+
			`<area>377975</area><emptyTag></emptyTag></country>`+
			`<country xmlns="http://eu.eu" capital="Berlin" continent="Europe" name="Germany" population="83 million">`+
			`<currency>Euro</currency><language note="used widely" primary="true">German</language>`+
			`<area>357386</area></country></w:world>`,
	)
}

func TestCanonicalize_AttributeValuesEscaped(t *testing.T) {
	checkCanonical(t,
		`<A note="a &lt;b&gt; &amp; &quot;c&quot;"></A>`,
		`<A note="a &lt;b&gt; &amp; &quot;c&quot;"></A>`,
	)
}

func TestCanonicalize_NoSelfClosingTags(t *testing.T) {
	got, err := Canonicalize(`<root><empty/><alsoEmpty></alsoEmpty></root>`)
	if err != nil {
		t.Fatalf("Canonicalize failed: %v", err)
	}
	if strings.Contains(got, "/>") {
		t.Errorf("canonical form must not contain self-closing tags: %s", got)
	}
	if got != `<root><empty></empty><alsoEmpty></alsoEmpty></root>` {
		t.Errorf("unexpected canonical form: %s", got)
	}
}

func TestCanonicalize_TextContentPreserved(t *testing.T) {
	checkCanonical(t,
		`<root><child>some text</child></root>`,
		`<root><child>some text</child></root>`,
	)
}

func TestCanonicalize_EmptyInput(t *testing.T) {
	_, err := Canonicalize("")
	if !errors.Is(err, ErrEmptyDoc) {
		t.Errorf("expected ErrEmptyDoc, got %v", err)
	}
}

func TestCanonicalize_WhitespaceOnlyInput(t *testing.T) {
	_, err := Canonicalize("   \n\t  ")
	if !errors.Is(err, ErrEmptyDoc) {
		t.Errorf("expected ErrEmptyDoc, got %v", err)
	}
}

func TestCanonicalize_PrefixTooLong(t *testing.T) {
	// 17 bytes, one over the limit.
	prefix := strings.Repeat("a", 17)
	_, err := Canonicalize(`<root xmlns:` + prefix + `="http://x.x"></root>`)
	if !errors.Is(err, ErrInvalidPrefix) {
		t.Errorf("expected ErrInvalidPrefix, got %v", err)
	}
}

func TestCanonicalize_PrefixAtLimit(t *testing.T) {
	prefix := strings.Repeat("a", 16)
	got, err := Canonicalize(`<` + prefix + `:root xmlns:` + prefix + `="http://x.x"></` + prefix + `:root>`)
	if err != nil {
		t.Fatalf("16-byte prefix must be accepted: %v", err)
	}
	want := `<` + prefix + `:root xmlns:` + prefix + `="http://x.x"></` + prefix + `:root>`
	if got != want {
		t.Errorf("unexpected canonical form: %s", got)
	}
}

func TestCanonicalize_MalformedXML(t *testing.T) {
	inputs := []string{
		`<a><b></a></b>`,
		`<a>`,
		`<a></a></a>`,
		`<a attr=oops></a>`,
	}
	for _, input := range inputs {
		if _, err := Canonicalize(input); !errors.Is(err, ErrXMLRead) {
			t.Errorf("input %q: expected ErrXMLRead, got %v", input, err)
		}
	}
}

func TestCanonicalize_UndeclaredPrefix(t *testing.T) {
	_, err := Canonicalize(`<x:a></x:a>`)
	if !errors.Is(err, ErrXMLRead) {
		t.Errorf("expected ErrXMLRead for undeclared prefix, got %v", err)
	}
}

func TestCanonicalize_LastTextRunWins(t *testing.T) {
	// Character runs split by a comment collapse to the last run seen.
	got, err := Canonicalize(`<a>first<!-- split -->second</a>`)
	if err != nil {
		t.Fatalf("Canonicalize failed: %v", err)
	}
	if got != `<a>second</a>` {
		t.Errorf("expected last character run to win, got: %s", got)
	}
}

func TestCanonicalize_DeclarationAndPIsDropped(t *testing.T) {
	checkCanonical(t,
		"<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<?processme now?>\n<a><b>x</b></a>",
		`<a><b>x</b></a>`,
	)
}

func BenchmarkCanonicalize(b *testing.B) {
	input := `
	<soapenv:Body xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"
		xmlns:wsu="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd"
		wsu:Id="Msgbody"><ns:Payment xmlns:ns="http://example.com/pay"><ns:Amount currency="CZK">1250.00</ns:Amount>
		<ns:Recipient>ACME s.r.o.</ns:Recipient></ns:Payment></soapenv:Body>
	`
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Canonicalize(input); err != nil {
			b.Fatalf("Canonicalize failed: %v", err)
		}
	}
}
