// Package revealjs implements slide directives: decks, sections and breaks,
// effects and effect chains, fragment groups, element identifiers, shapes,
// titled boxes and highlighted code blocks.
package revealjs

import (
	"revealit/doctree"
)

// Node kinds produced by slide directives.
const (
	KindBreak     doctree.Kind = "revealjs-break"
	KindSection   doctree.Kind = "revealjs-section"
	KindDeck      doctree.Kind = "revealjs-deck"
	KindEffect    doctree.Kind = "revealjs-effect"
	KindFragments doctree.Kind = "revealjs-fragments"
	KindShape     doctree.Kind = "revealjs-shape"
	KindTitle     doctree.Kind = "revealjs-title"
)

// ClassFragment marks incrementally revealed elements.
const ClassFragment = "fragment"

// Kinds lists all node kinds renderer has to handle, pending identifier
// marker included.
var Kinds = []doctree.Kind{
	KindBreak, KindSection, KindDeck, KindEffect, KindFragments, KindShape, KindTitle, doctree.KindPending,
}

// transformable reports whether fragment group tags node itself instead of
// descending into it.
func transformable(k doctree.Kind) bool {
	switch k {
	case doctree.KindParagraph, doctree.KindListItem, doctree.KindImage:
		return true
	default:
		return false
	}
}
