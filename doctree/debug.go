package doctree

import (
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/maruel/natural"

	"revealit/utils/debug"
)

type treeWriter struct {
	*debug.TreeWriter
}

// String returns a readable indented dump of the tree. Attribute and option
// keys are sorted so output is stable.
func (n *Node) String() string {
	if n == nil {
		return "<nil Node>"
	}
	tw := treeWriter{debug.NewTreeWriter()}
	tw.node(0, n)
	return tw.String()
}

func (tw treeWriter) node(depth int, n *Node) {
	var b strings.Builder
	b.WriteString(string(n.Kind))
	for _, k := range sortedAttrKeys(n.attrs) {
		b.WriteString(" " + k + "=" + quote(n.attrs[AttrKey(k)]))
	}
	if len(n.Classes) > 0 {
		b.WriteString(" classes=" + quote(strings.Join(n.Classes, " ")))
	}
	tw.Line(depth, "%s", b.String())

	if n.Pending != nil {
		tw.Line(depth+1, "Pending directive=%q", n.Pending.Directive)
		for _, k := range sortedAttrKeys(n.Pending.Details) {
			tw.Line(depth+2, "%s=%q", k, n.Pending.Details[AttrKey(k)])
		}
	}
	if n.Element != nil {
		tw.descriptor(depth+1, n)
	}
	if n.Text != "" {
		tw.TextBlock(depth+1, "Text", n.Text)
	}
	if n.Content != "" {
		tw.TextBlock(depth+1, "Content", n.Content)
	}
	for _, c := range n.Children {
		tw.node(depth+1, c)
	}
}

func (tw treeWriter) descriptor(depth int, n *Node) {
	e := n.Element
	tw.Line(depth, "Element kind=%s args=%q", e.Kind(), e.Arguments())
	opts := e.Options()
	names := slices.Collect(maps.Keys(opts))
	sort.Sort(natural.StringSlice(names))
	for _, name := range names {
		tw.Line(depth+1, "Option[%s]=%q", name, opts[name])
	}
	cd := e.ComputedData()
	keys := slices.Collect(maps.Keys(cd))
	sort.Sort(natural.StringSlice(keys))
	for _, k := range keys {
		tw.Line(depth+1, "Data[%s]=%q", k, cd[k])
	}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
