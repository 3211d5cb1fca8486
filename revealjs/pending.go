package revealjs

import (
	"fmt"

	"go.uber.org/zap"

	"revealit/doctree"
	"revealit/rst"
)

// IDAttribute resolves pending identifier marker: identifier goes onto the
// node following marker in document order and marker leaves the tree.
type IDAttribute struct{}

func (IDAttribute) Apply(doc *rst.Document, m *doctree.Node) error {
	if m.Pending == nil {
		return fmt.Errorf("node %s is not a pending marker", m.Kind)
	}
	id := m.Pending.Details[doctree.AttrIdentifier]

	if next := doctree.Next(doc.Root, m); next != nil {
		next.SetAttr(doctree.AttrIdentifier, id)
		doc.Logger().Debug("Identifier resolved", zap.String("id", id), zap.String("target", string(next.Kind)))
	} else {
		line, _ := m.Attr(doctree.AttrLine)
		doc.Logger().Debug("Identifier has nothing to attach to, dropping", zap.String("id", id), zap.String("line", line))
	}

	if !doctree.Remove(doc.Root, m) {
		return fmt.Errorf("pending marker for %q is not part of document", id)
	}
	return nil
}
