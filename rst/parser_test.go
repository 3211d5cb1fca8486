package rst

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"revealit/doctree"
	"revealit/element"
)

func newTestParser(t *testing.T, opts ...Option) *Parser {
	t.Helper()
	return NewParser(NewRegistry(), zaptest.NewLogger(t), opts...)
}

func kindsOf(nodes []*doctree.Node) []doctree.Kind {
	out := make([]doctree.Kind, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Kind)
	}
	return out
}

func mustParse(t *testing.T, text string) *doctree.Node {
	t.Helper()
	doc, err := newTestParser(t).Parse("test.rst", text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc.Root
}

func TestParse_ParagraphsAndLists(t *testing.T) {
	root := mustParse(t, strings.Join([]string{
		"First para",
		"continues.",
		"",
		"- one",
		"- two",
		"",
		"  still two",
		"",
		"* other list",
	}, "\n"))

	want := []doctree.Kind{doctree.KindParagraph, doctree.KindBulletList, doctree.KindBulletList}
	if got := kindsOf(root.Children); !slices.Equal(got, want) {
		t.Fatalf("root children = %v, want %v", got, want)
	}
	if got := root.Children[0].Text; got != "First para\ncontinues." {
		t.Errorf("paragraph text = %q", got)
	}

	first := root.Children[1]
	if len(first.Children) != 2 {
		t.Fatalf("first list has %d items, want 2", len(first.Children))
	}
	second := first.Children[1]
	if got := kindsOf(second.Children); !slices.Equal(got, []doctree.Kind{doctree.KindParagraph, doctree.KindParagraph}) {
		t.Errorf("second item children = %v", got)
	}
	if got := second.Children[1].Text; got != "still two" {
		t.Errorf("continuation paragraph = %q", got)
	}
	if n := len(root.Children[2].Children); n != 1 {
		t.Errorf("second list has %d items, want 1", n)
	}
	if src, _ := root.Attr(doctree.AttrSource); src != "test.rst" {
		t.Errorf("root source = %q", src)
	}
}

func TestParse_Sections(t *testing.T) {
	root := mustParse(t, strings.Join([]string{
		"=========",
		"Top Title",
		"=========",
		"",
		"Intro",
		"",
		"Sub",
		"---",
		"",
		"Text",
		"",
		"=====",
		"Other",
		"=====",
	}, "\n"))

	if got := kindsOf(root.Children); !slices.Equal(got, []doctree.Kind{doctree.KindSection, doctree.KindSection}) {
		t.Fatalf("root children = %v", got)
	}
	top := root.Children[0]
	want := []doctree.Kind{doctree.KindTitle, doctree.KindParagraph, doctree.KindSection}
	if got := kindsOf(top.Children); !slices.Equal(got, want) {
		t.Fatalf("top section children = %v, want %v", got, want)
	}
	if top.Children[0].Text != "Top Title" {
		t.Errorf("title = %q", top.Children[0].Text)
	}
	if v, _ := top.Attr(doctree.AttrNames); v != "top-title" {
		t.Errorf("names = %q, want top-title", v)
	}
	sub := top.Children[2]
	if v, _ := sub.Attr(doctree.AttrLevel); v != "2" {
		t.Errorf("sub level = %q, want 2", v)
	}
	if got := kindsOf(sub.Children); !slices.Equal(got, []doctree.Kind{doctree.KindTitle, doctree.KindParagraph}) {
		t.Errorf("sub section children = %v", got)
	}
	if v, _ := root.Children[1].Attr(doctree.AttrLevel); v != "1" {
		t.Errorf("other level = %q, want 1", v)
	}
}

func TestParse_SectionLevelInconsistent(t *testing.T) {
	doc, err := newTestParser(t).Parse("test.rst", strings.Join([]string{
		"A", "===", "",
		"B", "---", "",
		"C", "===", "",
		"D", "~~~", "",
		"tail",
	}, "\n"))
	if err == nil || !strings.Contains(err.Error(), "inconsistent") {
		t.Fatalf("Parse() error = %v, want title level error", err)
	}
	// parsing continues, tail lands into the last opened section
	if n := doctree.Count(doc.Root, doctree.KindSection); n != 3 {
		t.Errorf("sections = %d, want 3", n)
	}
	if n := doctree.Count(doc.Root, doctree.KindParagraph); n != 1 {
		t.Errorf("paragraphs = %d, want 1", n)
	}
}

func TestParse_Comment(t *testing.T) {
	root := mustParse(t, ".. just a comment\n   more of it\n\nText")
	want := []doctree.Kind{doctree.KindComment, doctree.KindParagraph}
	if got := kindsOf(root.Children); !slices.Equal(got, want) {
		t.Fatalf("children = %v, want %v", got, want)
	}
	if got := root.Children[0].Text; got != "just a comment\nmore of it" {
		t.Errorf("comment text = %q", got)
	}
}

func TestParse_LiteralAndQuote(t *testing.T) {
	root := mustParse(t, strings.Join([]string{
		"Example::",
		"",
		"   code here",
		"",
		"     indented",
		"",
		"Plain",
		"",
		"   quoted text",
	}, "\n"))

	want := []doctree.Kind{doctree.KindParagraph, doctree.KindLiteralBlock, doctree.KindParagraph, doctree.KindBlockQuote}
	if got := kindsOf(root.Children); !slices.Equal(got, want) {
		t.Fatalf("children = %v, want %v", got, want)
	}
	if got := root.Children[0].Text; got != "Example:" {
		t.Errorf("paragraph = %q, want %q", got, "Example:")
	}
	if got := root.Children[1].Text; got != "code here\n\n  indented" {
		t.Errorf("literal = %q", got)
	}
	quote := root.Children[3]
	if len(quote.Children) != 1 || quote.Children[0].Text != "quoted text" {
		t.Errorf("quote = %s", quote)
	}
}

func TestParse_Image(t *testing.T) {
	root := mustParse(t, ".. image:: pic.png\n   :alt: A picture\n   :width: 200\n   :class: Wide Shot")
	if len(root.Children) != 1 {
		t.Fatalf("children = %d, want 1", len(root.Children))
	}
	img := root.Children[0]
	if img.Kind != doctree.KindImage {
		t.Fatalf("kind = %s", img.Kind)
	}
	for key, want := range map[doctree.AttrKey]string{
		doctree.AttrURI:   "pic.png",
		doctree.AttrAlt:   "A picture",
		doctree.AttrWidth: "200px",
	} {
		if got, _ := img.Attr(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
	if !slices.Equal(img.Classes, []string{"wide", "shot"}) {
		t.Errorf("classes = %v", img.Classes)
	}
}

func TestParse_Container(t *testing.T) {
	root := mustParse(t, strings.Join([]string{
		".. container:: box wide",
		"",
		"   Inside",
		"",
		"   - item",
	}, "\n"))
	c := root.Children[0]
	if c.Kind != doctree.KindContainer {
		t.Fatalf("kind = %s", c.Kind)
	}
	if !slices.Equal(c.Classes, []string{"box", "wide"}) {
		t.Errorf("classes = %v", c.Classes)
	}
	if got := kindsOf(c.Children); !slices.Equal(got, []doctree.Kind{doctree.KindParagraph, doctree.KindBulletList}) {
		t.Errorf("container children = %v", got)
	}
}

func TestParse_CodeBlock(t *testing.T) {
	root := mustParse(t, strings.Join([]string{
		".. code-block:: go",
		"   :linenos:",
		"   :emphasize-lines: 1, 3-4",
		"",
		"   func main() {",
		"       fmt.Println()",
		"   }",
	}, "\n"))
	lb := root.Children[0]
	if lb.Kind != doctree.KindLiteralBlock {
		t.Fatalf("kind = %s", lb.Kind)
	}
	if want := "func main() {\n    fmt.Println()\n}"; lb.Text != want {
		t.Errorf("text = %q, want %q", lb.Text, want)
	}
	for key, want := range map[doctree.AttrKey]string{
		doctree.AttrLanguage:       "go",
		doctree.AttrEmphasizeLines: "1,3-4",
		doctree.AttrLineNos:        "1",
	} {
		if got, _ := lb.Attr(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestParse_DirectiveErrors(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		target error
	}{
		{"unknown", ".. bogus:: x", ErrUnknownDirective},
		{"content_not_allowed", ".. image:: a.png\n\n   content", ErrContentNotAllowed},
		{"content_required", ".. container:: box", ErrContentRequired},
		{"duplicate_option", ".. image:: a.png\n   :alt: a\n   :alt: b", ErrDuplicateOption},
		{"unknown_option", ".. image:: a.png\n   :color: red", element.ErrUnknownOption},
		{"malformed_options", ".. image:: a.png\n   :alt: a\n   junk", ErrMalformedOptions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := newTestParser(t).Parse("test.rst", "Before\n\n"+tt.text+"\n\nAfter")
			if !errors.Is(err, tt.target) {
				t.Fatalf("Parse() error = %v, want %v", err, tt.target)
			}
			var de *DirectiveError
			if !errors.As(err, &de) {
				t.Fatalf("error %T is not DirectiveError", err)
			}
			if de.Line != 3 {
				t.Errorf("line = %d, want 3", de.Line)
			}
			// failed block is dropped, the rest survives
			if n := doctree.Count(doc.Root, doctree.KindParagraph); n != 2 {
				t.Errorf("paragraphs = %d, want 2", n)
			}
		})
	}
}

func TestParse_ArityError(t *testing.T) {
	_, err := newTestParser(t).Parse("test.rst", ".. code-block:: go extra\n\n   x := 1")
	var ae *element.ArityError
	if !errors.As(err, &ae) {
		t.Fatalf("Parse() error = %v, want ArityError", err)
	}
	if ae.Got != 2 || ae.Max != 1 {
		t.Errorf("arity error = %+v", ae)
	}
}

func TestParse_Strict(t *testing.T) {
	doc, err := newTestParser(t, WithStrict(true)).Parse("test.rst", "Before\n\n.. bogus::\n\n.. bogus2::\n\nAfter")
	if !errors.Is(err, ErrUnknownDirective) {
		t.Fatalf("Parse() error = %v", err)
	}
	if strings.Contains(err.Error(), "bogus2") {
		t.Errorf("strict parse did not stop at first error: %v", err)
	}
	if n := len(doc.Root.Children); n != 1 {
		t.Errorf("children = %d, want 1", n)
	}
}

func TestParse_AccumulatesErrors(t *testing.T) {
	_, err := newTestParser(t).Parse("test.rst", ".. bogus::\n\n.. bogus2::")
	if err == nil {
		t.Fatal("expected error")
	}
	for _, name := range []string{`"bogus"`, `"bogus2"`} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention %s", err, name)
		}
	}
}

func TestParse_NestedErrorKeepsLocation(t *testing.T) {
	_, err := newTestParser(t).Parse("test.rst", ".. container::\n\n   .. bogus::")
	var de *DirectiveError
	if !errors.As(err, &de) {
		t.Fatalf("Parse() error = %v", err)
	}
	if de.Name != "bogus" || de.Line != 3 {
		t.Errorf("error = %+v, want bogus at line 3", de)
	}
}

func TestParse_ArgumentContinuation(t *testing.T) {
	root := mustParse(t, ".. container:: first\n   second\n\n   body")
	c := root.Children[0]
	if !slices.Equal(c.Classes, []string{"first", "second"}) {
		t.Errorf("classes = %v", c.Classes)
	}
}

func TestParse_Tabs(t *testing.T) {
	root := mustParse(t, "Para\n\n\tquoted")
	if got := kindsOf(root.Children); !slices.Equal(got, []doctree.Kind{doctree.KindParagraph, doctree.KindBlockQuote}) {
		t.Errorf("children = %v", got)
	}
}

func TestExpandTabs(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"a\tb", 4, "a   b"},
		{"\tx", 8, "        x"},
		{"ab\t\tc", 4, "ab      c"},
		{"none", 4, "none"},
	}
	for _, tt := range tests {
		if got := expandTabs(tt.in, tt.width); got != tt.want {
			t.Errorf("expandTabs(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestSplitArguments(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		spec    Spec
		want    []string
		wantErr bool
	}{
		{"none", "", Spec{}, []string{}, false},
		{"none_given_extra", "x", Spec{}, nil, true},
		{"required_missing", "", Spec{Required: 1}, nil, true},
		{"final_whitespace", "a b  c", Spec{Required: 1, FinalArgumentWhitespace: true}, []string{"a b c"}, false},
		{"too_many", "a b", Spec{Optional: 1}, nil, true},
		{"optional", "a b", Spec{Required: 1, Optional: 1}, []string{"a", "b"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := splitArguments("test", tt.text, tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("splitArguments() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !slices.Equal(got, tt.want) {
				t.Errorf("splitArguments() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	want := []string{"code", "code-block", "container", "image"}
	if got := reg.Names(); !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if _, ok := reg.Lookup("Code-Block"); !ok {
		t.Error("lookup must be case insensitive")
	}
	if _, ok := reg.Lookup("missing"); ok {
		t.Error("unexpected directive")
	}
}
