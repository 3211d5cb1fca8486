package revealjs

import (
	"maps"
	"strings"

	"revealit/doctree"
	"revealit/element"
	"revealit/rst"
)

const optEmphasize = "emphasize-lines"

// CodeOptions extends generic code block options with identifier and
// highlight line lists separated by "|" to stay clear of host list syntax.
var CodeOptions = rst.CodeBlockOptions.Merge(
	element.Option{Name: optEmphasize, Convert: HighlightLines},
	element.Option{Name: element.DataID, Convert: element.UnchangedRequired},
)

// HighlightLines accepts line lists using either "|" or "," as separator and
// keeps the separators as written.
func HighlightLines(value string) (string, error) {
	v := strings.ReplaceAll(strings.TrimSpace(value), " ", "")
	if _, err := rst.LineList(strings.ReplaceAll(v, "|", ",")); err != nil {
		return "", err
	}
	return v, nil
}

// Code is code block which records highlighted lines and identifier for the
// renderer.
type Code struct{}

func (Code) Spec() rst.Spec {
	spec := rst.CodeBlock{}.Spec()
	spec.Options = CodeOptions
	return spec
}

func (Code) Run(inv *rst.Invocation) ([]*doctree.Node, error) {
	opts := maps.Clone(inv.Options)

	hl := strings.ReplaceAll(opts[optEmphasize], "|", ",")
	if hl != "" {
		opts[optEmphasize] = hl
	}
	id := opts[element.DataID]
	delete(opts, element.DataID)

	nodes, err := rst.CodeBlock{}.Run(inv.WithOptions(opts))
	if err != nil {
		return nil, err
	}
	n := nodes[0]
	n.SetAttr(doctree.AttrHighlightLines, hl)
	if id != "" {
		n.SetAttr(doctree.AttrIdentifier, id)
	}
	return nodes, nil
}
