// Package doctree defines document node tree produced by the structured text
// parser and consumed by renderers.
package doctree

import (
	"maps"
	"slices"

	"revealit/element"
)

// Kind tags node variant. Host structural kinds are declared here, extensions
// declare their own.
type Kind string

const (
	KindDocument     Kind = "document"
	KindSection      Kind = "section"
	KindTitle        Kind = "title"
	KindParagraph    Kind = "paragraph"
	KindBulletList   Kind = "bullet_list"
	KindBlockQuote   Kind = "block_quote"
	KindListItem     Kind = "list_item"
	KindImage        Kind = "image"
	KindContainer    Kind = "container"
	KindLiteralBlock Kind = "literal_block"
	KindComment      Kind = "comment"
	KindPending      Kind = "pending"
	// KindElement is anonymous detached container, never part of final tree.
	KindElement Kind = "element"
)

// AttrKey enumerates recognized node attributes.
type AttrKey string

const (
	AttrURI            AttrKey = "uri"
	AttrAlt            AttrKey = "alt"
	AttrWidth          AttrKey = "width"
	AttrHeight         AttrKey = "height"
	AttrLanguage       AttrKey = "language"
	AttrEmphasizeLines AttrKey = "emphasize-lines"
	AttrLineNos        AttrKey = "linenos"
	AttrCaption        AttrKey = "caption"
	AttrNames          AttrKey = "names"
	AttrLevel          AttrKey = "level"
	AttrSource         AttrKey = "source"
	AttrLine           AttrKey = "line"
	AttrIdentifier     AttrKey = "revealjs-id"
	AttrHighlightLines AttrKey = "revealjs-hl-lines"
)

var knownAttrs = []AttrKey{
	AttrURI, AttrAlt, AttrWidth, AttrHeight, AttrLanguage, AttrEmphasizeLines, AttrLineNos,
	AttrCaption, AttrNames, AttrLevel, AttrSource, AttrLine, AttrIdentifier, AttrHighlightLines,
}

// KnownAttr reports whether key belongs to the recognized set.
func KnownAttr(key AttrKey) bool {
	return slices.Contains(knownAttrs, key)
}

// Node is a single element of the document tree. Parent owns its children
// exclusively, there are no back references.
type Node struct {
	Kind     Kind
	Element  *element.Element
	Text     string // paragraph, title, comment and literal text
	Content  string // raw opaque payload passed to renderer verbatim
	Classes  []string
	Children []*Node
	Pending  *Pending // only for pending markers

	attrs map[AttrKey]string
}

// Pending holds details of deferred annotation carried by marker node.
type Pending struct {
	Directive string
	Details   map[AttrKey]string
	RawSource string
}

// New creates node of the requested kind with optional children.
func New(kind Kind, children ...*Node) *Node {
	return &Node{Kind: kind, Children: children}
}

// NewText creates leaf node holding text.
func NewText(kind Kind, text string) *Node {
	return &Node{Kind: kind, Text: text}
}

// Append adds children to the node.
func (n *Node) Append(children ...*Node) {
	n.Children = append(n.Children, children...)
}

// SetAttr stamps attribute on the node. Keys outside of recognized set are
// programming errors.
func (n *Node) SetAttr(key AttrKey, value string) {
	if !KnownAttr(key) {
		panic("unknown node attribute " + string(key))
	}
	if n.attrs == nil {
		n.attrs = make(map[AttrKey]string)
	}
	n.attrs[key] = value
}

// Attr returns attribute value and whether it is present.
func (n *Node) Attr(key AttrKey) (string, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

// DelAttr removes attribute.
func (n *Node) DelAttr(key AttrKey) {
	delete(n.attrs, key)
}

// Attrs returns copy of all attributes.
func (n *Node) Attrs() map[AttrKey]string {
	return maps.Clone(n.attrs)
}

// AddClass appends class names skipping duplicates and empty names.
func (n *Node) AddClass(classes ...string) {
	for _, c := range classes {
		if c == "" || slices.Contains(n.Classes, c) {
			continue
		}
		n.Classes = append(n.Classes, c)
	}
}

// HasClass reports whether node carries class.
func (n *Node) HasClass(class string) bool {
	return slices.Contains(n.Classes, class)
}

// Invisible nodes do not take part in rendering and are skipped when looking
// for a target of deferred annotations.
func (n *Node) Invisible() bool {
	return n.Kind == KindComment || n.Kind == KindPending
}
