package doctree

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"github.com/maruel/natural"

	"revealit/element"
)

// Tags used for non-node payload in XML representation.
const (
	tagDescriptor = "descriptor"
	tagArgument   = "argument"
	tagOption     = "option"
	tagData       = "data"
	tagContent    = "content"
	tagDetail     = "detail"
	tagRawSource  = "raw-source"
	attrClasses   = "classes"
	attrDirective = "directive"
)

// ToXML converts tree into pseudo XML document, one element per node, tag
// names are node kinds.
func ToXML(root *Node) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	if root != nil {
		writeNode(&doc.Element, root)
	}
	return doc
}

// WriteXML serializes tree into w. Non positive indent produces compact
// output.
func WriteXML(w io.Writer, root *Node, indent int) error {
	doc := ToXML(root)
	if indent > 0 {
		doc.Indent(indent)
	}
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("unable to write xml: %w", err)
	}
	return nil
}

func writeNode(parent *etree.Element, n *Node) {
	el := parent.CreateElement(string(n.Kind))

	keys := sortedAttrKeys(n.attrs)
	for _, k := range keys {
		el.CreateAttr(k, n.attrs[AttrKey(k)])
	}
	if len(n.Classes) > 0 {
		el.CreateAttr(attrClasses, strings.Join(n.Classes, " "))
	}
	// text goes first so it is reachable as element text on reading
	if n.Text != "" {
		el.SetText(n.Text)
	}
	if n.Pending != nil {
		el.CreateAttr(attrDirective, n.Pending.Directive)
		for _, k := range sortedAttrKeys(n.Pending.Details) {
			d := el.CreateElement(tagDetail)
			d.CreateAttr("key", k)
			d.SetText(n.Pending.Details[AttrKey(k)])
		}
		if n.Pending.RawSource != "" {
			el.CreateElement(tagRawSource).SetText(n.Pending.RawSource)
		}
	}
	if n.Element != nil {
		writeDescriptor(el, n.Element)
	}
	if n.Content != "" {
		writeCData(el.CreateElement(tagContent), n.Content)
	}
	for _, c := range n.Children {
		writeNode(el, c)
	}
}

// writeCData keeps raw payload intact, "]]>" cannot appear inside a single
// CDATA section and is split between two.
func writeCData(el *etree.Element, data string) {
	parts := strings.Split(data, "]]>")
	for i, p := range parts {
		if i > 0 {
			p = ">" + p
		}
		if i < len(parts)-1 {
			p += "]]"
		}
		el.CreateCData(p)
	}
}

func writeDescriptor(parent *etree.Element, e *element.Element) {
	d := parent.CreateElement(tagDescriptor)
	d.CreateAttr("kind", string(e.Kind()))
	for _, a := range e.Arguments() {
		d.CreateElement(tagArgument).SetText(a)
	}
	opts := e.Options()
	names := slices.Collect(maps.Keys(opts))
	sort.Sort(natural.StringSlice(names))
	for _, name := range names {
		o := d.CreateElement(tagOption)
		o.CreateAttr("name", name)
		o.SetText(opts[name])
	}
	cd := e.ComputedData()
	keys := slices.Collect(maps.Keys(cd))
	sort.Sort(natural.StringSlice(keys))
	for _, k := range keys {
		o := d.CreateElement(tagData)
		o.CreateAttr("key", k)
		o.SetText(cd[k])
	}
}

func sortedAttrKeys(attrs map[AttrKey]string) []string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, string(k))
	}
	sort.Sort(natural.StringSlice(keys))
	return keys
}

// ReadXML restores tree from its XML representation. Descriptors are
// validated again, computed data is recalculated rather than read.
func ReadXML(r io.Reader) (*Node, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("unable to read xml: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("xml document has no root element")
	}
	return readNode(root)
}

func readNode(el *etree.Element) (*Node, error) {
	n := &Node{Kind: Kind(el.Tag)}
	for _, a := range el.Attr {
		switch {
		case a.Key == attrClasses:
			n.Classes = strings.Fields(a.Value)
		case a.Key == attrDirective && n.Kind == KindPending:
			n.pending().Directive = a.Value
		case KnownAttr(AttrKey(a.Key)):
			n.SetAttr(AttrKey(a.Key), a.Value)
		default:
			return nil, fmt.Errorf("%s: unknown attribute %q", el.Tag, a.Key)
		}
	}
	n.Text = leadingText(el)

	for _, child := range el.ChildElements() {
		switch child.Tag {
		case tagDescriptor:
			e, err := readDescriptor(child)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", el.Tag, err)
			}
			n.Element = e
		case tagContent:
			n.Content = allText(child)
		case tagDetail:
			p := n.pending()
			if p.Details == nil {
				p.Details = make(map[AttrKey]string)
			}
			p.Details[AttrKey(child.SelectAttrValue("key", ""))] = child.Text()
		case tagRawSource:
			n.pending().RawSource = child.Text()
		default:
			c, err := readNode(child)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, c)
		}
	}
	return n, nil
}

// reIndent matches whitespace Indent puts between text and the first child
// element.
var reIndent = regexp.MustCompile(`\r?\n[ \t]*$`)

// leadingText returns character data preceding the first child element.
// Leaf elements are never indented and their text is returned as is.
func leadingText(el *etree.Element) string {
	var sb strings.Builder
	for _, t := range el.Child {
		if _, ok := t.(*etree.Comment); ok {
			continue
		}
		cd, ok := t.(*etree.CharData)
		if !ok {
			break
		}
		sb.WriteString(cd.Data)
	}
	text := sb.String()
	if len(el.ChildElements()) > 0 {
		text = reIndent.ReplaceAllString(text, "")
	}
	return text
}

// allText joins every character data token of a leaf element, split CDATA
// sections included.
func allText(el *etree.Element) string {
	var sb strings.Builder
	for _, t := range el.Child {
		if cd, ok := t.(*etree.CharData); ok {
			sb.WriteString(cd.Data)
		}
	}
	return sb.String()
}

func (n *Node) pending() *Pending {
	if n.Pending == nil {
		n.Pending = &Pending{}
	}
	return n.Pending
}

func readDescriptor(el *etree.Element) (*element.Element, error) {
	kind := element.Kind(el.SelectAttrValue("kind", ""))
	s, ok := element.SchemaFor(kind)
	if !ok {
		return nil, fmt.Errorf("unknown descriptor kind %q", kind)
	}
	var args []string
	opts := make(map[string]string)
	for _, c := range el.ChildElements() {
		switch c.Tag {
		case tagArgument:
			args = append(args, c.Text())
		case tagOption:
			opts[c.SelectAttrValue("name", "")] = c.Text()
		}
	}
	return element.New(s, args, opts)
}
