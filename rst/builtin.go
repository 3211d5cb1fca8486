package rst

import (
	"fmt"
	"regexp"
	"strings"

	"revealit/doctree"
	"revealit/element"
)

type imageDirective struct{}

func (imageDirective) Spec() Spec {
	return Spec{
		Required:                1,
		FinalArgumentWhitespace: true,
		Options: element.OptionSpec{
			{Name: "alt", Convert: element.Unchanged},
			{Name: "width", Convert: element.Length},
			{Name: "height", Convert: element.Length},
			{Name: "class", Convert: element.ClassList},
			{Name: "name", Convert: element.UnchangedRequired},
		},
	}
}

func (imageDirective) Run(inv *Invocation) ([]*doctree.Node, error) {
	// uri may not contain spaces, wrapped arguments are glued back
	uri := strings.Join(strings.Fields(inv.Arguments[0]), "")
	img := doctree.New(doctree.KindImage)
	img.SetAttr(doctree.AttrURI, uri)
	for opt, key := range map[string]doctree.AttrKey{
		"alt":    doctree.AttrAlt,
		"width":  doctree.AttrWidth,
		"height": doctree.AttrHeight,
		"name":   doctree.AttrNames,
	} {
		if v, ok := inv.Options[opt]; ok {
			img.SetAttr(key, v)
		}
	}
	if v, ok := inv.Options["class"]; ok {
		img.AddClass(strings.Fields(v)...)
	}
	return []*doctree.Node{img}, nil
}

type containerDirective struct{}

func (containerDirective) Spec() Spec {
	return Spec{
		Optional:                1,
		FinalArgumentWhitespace: true,
		Options: element.OptionSpec{
			{Name: "name", Convert: element.UnchangedRequired},
		},
		HasContent: true,
	}
}

func (containerDirective) Run(inv *Invocation) ([]*doctree.Node, error) {
	if len(inv.Content) == 0 {
		return nil, ErrContentRequired
	}
	c := doctree.New(doctree.KindContainer)
	if len(inv.Arguments) > 0 {
		classes, err := element.ClassList(inv.Arguments[0])
		if err != nil {
			return nil, fmt.Errorf("invalid class argument: %w", err)
		}
		c.AddClass(strings.Fields(classes)...)
	}
	if v, ok := inv.Options["name"]; ok {
		c.SetAttr(doctree.AttrNames, v)
	}
	if err := inv.NestedParse(c); err != nil {
		return nil, err
	}
	return []*doctree.Node{c}, nil
}

var reLineList = regexp.MustCompile(`^[0-9]+(-[0-9]+)?(,[0-9]+(-[0-9]+)?)*$`)

// LineList accepts comma separated list of line numbers and ranges, e.g.
// "1,3-5".
func LineList(value string) (string, error) {
	v := strings.ReplaceAll(strings.TrimSpace(value), " ", "")
	if !reLineList.MatchString(v) {
		return "", fmt.Errorf("invalid line list %q", value)
	}
	return v, nil
}

// CodeBlockOptions is option spec of the generic code block directive.
var CodeBlockOptions = element.OptionSpec{
	{Name: "linenos", Convert: element.Flag},
	{Name: "lineno-start", Convert: element.PositiveInt},
	{Name: "emphasize-lines", Convert: LineList},
	{Name: "caption", Convert: element.UnchangedRequired},
	{Name: "name", Convert: element.UnchangedRequired},
	{Name: "class", Convert: element.ClassList},
}

// CodeBlock is generic literal code directive, content is kept verbatim.
type CodeBlock struct{}

func (CodeBlock) Spec() Spec {
	return Spec{
		Optional:   1,
		Options:    CodeBlockOptions,
		HasContent: true,
	}
}

func (CodeBlock) Run(inv *Invocation) ([]*doctree.Node, error) {
	if len(inv.Content) == 0 {
		return nil, ErrContentRequired
	}
	lb := doctree.NewText(doctree.KindLiteralBlock, strings.Join(inv.Content, "\n"))
	if len(inv.Arguments) > 0 {
		lb.SetAttr(doctree.AttrLanguage, inv.Arguments[0])
	}
	if v, ok := inv.Options["emphasize-lines"]; ok {
		lb.SetAttr(doctree.AttrEmphasizeLines, v)
	}
	if _, ok := inv.Options["linenos"]; ok {
		start := inv.Options["lineno-start"]
		if start == "" {
			start = "1"
		}
		lb.SetAttr(doctree.AttrLineNos, start)
	} else if v, ok := inv.Options["lineno-start"]; ok {
		lb.SetAttr(doctree.AttrLineNos, v)
	}
	if v, ok := inv.Options["caption"]; ok {
		lb.SetAttr(doctree.AttrCaption, v)
	}
	if v, ok := inv.Options["name"]; ok {
		lb.SetAttr(doctree.AttrNames, v)
	}
	if v, ok := inv.Options["class"]; ok {
		lb.AddClass(strings.Fields(v)...)
	}
	return []*doctree.Node{lb}, nil
}
