package rst

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"revealit/doctree"
)

// Transform is deferred action applied to pending marker after the whole
// document tree has been built.
type Transform interface {
	Apply(doc *Document, marker *doctree.Node) error
}

// TransformFunc adapts function to Transform interface.
type TransformFunc func(doc *Document, marker *doctree.Node) error

func (f TransformFunc) Apply(doc *Document, marker *doctree.Node) error {
	return f(doc, marker)
}

type pendingEntry struct {
	marker    *doctree.Node
	transform Transform
}

// Document is the result of parsing single source. It owns node tree and
// registry of pending transforms which lives as long as the document.
type Document struct {
	Source string
	Root   *doctree.Node

	pending []pendingEntry
	log     *zap.Logger
}

func newDocument(source string, log *zap.Logger) *Document {
	root := doctree.New(doctree.KindDocument)
	root.SetAttr(doctree.AttrSource, source)
	return &Document{Source: source, Root: root, log: log}
}

// NotePending registers marker for later resolution.
func (d *Document) NotePending(marker *doctree.Node, t Transform) {
	d.pending = append(d.pending, pendingEntry{marker: marker, transform: t})
}

// PendingCount returns number of unresolved markers.
func (d *Document) PendingCount() int {
	return len(d.pending)
}

// Finalize applies all registered transforms in document order and clears
// registry. Markers which did not make it into the tree (their enclosing
// block failed) are discarded. Calling Finalize again is no-op.
func (d *Document) Finalize() (err error) {
	if len(d.pending) == 0 {
		return nil
	}

	entries := d.pending
	d.pending = nil

	byMarker := make(map[*doctree.Node]pendingEntry, len(entries))
	for _, e := range entries {
		byMarker[e.marker] = e
	}

	var ordered []pendingEntry
	doctree.Walk(d.Root, func(n *doctree.Node, _ int) bool {
		if e, ok := byMarker[n]; ok {
			ordered = append(ordered, e)
			delete(byMarker, n)
		}
		return true
	})
	if len(byMarker) > 0 {
		d.log.Debug("Discarding pending markers outside of document tree", zap.Int("count", len(byMarker)))
	}

	for _, e := range ordered {
		if er := e.transform.Apply(d, e.marker); er != nil {
			err = multierr.Append(err, fmt.Errorf("%s: pending transform: %w", d.Source, er))
		}
	}
	d.log.Debug("Pending transforms applied", zap.Int("count", len(ordered)))
	return err
}

// Logger returns logger associated with the document.
func (d *Document) Logger() *zap.Logger {
	return d.log
}
