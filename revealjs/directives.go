package revealjs

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"revealit/doctree"
	"revealit/element"
	"revealit/rst"
)

// Directive names.
const (
	DirectiveSection   = "revealjs-section"
	DirectiveBreak     = "revealjs-break"
	DirectiveDeck      = "revealjs-deck"
	DirectiveEffect    = "revealjs-effect"
	DirectiveEffects   = "revealjs-effects"
	DirectiveFragments = "revealjs-fragments"
	DirectiveID        = "revealjs-id"
	DirectiveCode      = "revealjs-code-block"
	DirectiveShape     = "revealjs-shape"
	DirectiveTitle     = "revealjs-title"
)

// Register adds slide directives to registry.
func Register(reg *rst.Registry) {
	reg.Register(DirectiveSection, slide{kind: KindSection})
	reg.Register(DirectiveBreak, slide{kind: KindBreak})
	reg.Register(DirectiveDeck, deck{})
	reg.Register(DirectiveEffect, nesting{kind: KindEffect, schema: element.Effect})
	reg.Register(DirectiveEffects, effects{})
	reg.Register(DirectiveFragments, fragments{})
	reg.Register(DirectiveID, identifier{})
	reg.Register(DirectiveCode, Code{})
	reg.Register("revealjs-code", Code{})
	reg.Register(DirectiveShape, nesting{kind: KindShape, schema: element.Box})
	reg.Register(DirectiveTitle, nesting{kind: KindTitle, schema: element.Title})
}

// NewRegistry returns host registry with slide directives registered.
func NewRegistry() *rst.Registry {
	reg := rst.NewRegistry()
	Register(reg)
	return reg
}

// slide handles section and break directives: single childless node
// carrying section descriptor.
type slide struct {
	kind doctree.Kind
}

func (slide) Spec() rst.Spec {
	return rst.SpecFromSchema(element.Section, false)
}

func (d slide) Run(inv *rst.Invocation) ([]*doctree.Node, error) {
	e, err := element.New(element.Section, inv.Arguments, inv.Options)
	if err != nil {
		return nil, err
	}
	n := doctree.New(d.kind)
	n.Element = e
	return []*doctree.Node{n}, nil
}

type deck struct{}

func (deck) Spec() rst.Spec {
	return rst.SpecFromSchema(element.Deck, true)
}

func (deck) Run(inv *rst.Invocation) ([]*doctree.Node, error) {
	if len(inv.Content) == 0 {
		return nil, rst.ErrContentRequired
	}
	e, err := element.New(element.Deck, inv.Arguments, inv.Options)
	if err != nil {
		return nil, err
	}
	n := doctree.New(KindDeck)
	n.Element = e
	// opaque for us, goes to renderer as is
	n.Content = strings.Join(inv.Content, "\n")
	return []*doctree.Node{n}, nil
}

// nesting handles directives producing single node with descriptor and
// nested content parsed into it.
type nesting struct {
	kind   doctree.Kind
	schema *element.Schema
}

func (d nesting) Spec() rst.Spec {
	return rst.SpecFromSchema(d.schema, true)
}

func (d nesting) Run(inv *rst.Invocation) ([]*doctree.Node, error) {
	n, err := d.build(inv)
	if err != nil {
		return nil, err
	}
	return []*doctree.Node{n}, nil
}

func (d nesting) build(inv *rst.Invocation) (*doctree.Node, error) {
	e, err := element.New(d.schema, inv.Arguments, inv.Options)
	if err != nil {
		return nil, err
	}
	n := doctree.New(d.kind)
	n.Element = e
	if len(inv.Content) > 0 {
		if err := inv.NestedParse(n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

type fragments struct{}

func (fragments) Spec() rst.Spec {
	return rst.SpecFromSchema(element.Fragments, true)
}

func (fragments) Run(inv *rst.Invocation) ([]*doctree.Node, error) {
	n, err := nesting{kind: KindFragments, schema: element.Fragments}.build(inv)
	if err != nil {
		return nil, err
	}
	count := TagFragments(n, n.Element.Data(element.DataAnimation))
	inv.Logger().Debug("Fragments tagged", zap.Int("line", inv.Line), zap.Int("count", count))
	return []*doctree.Node{n}, nil
}

// TagFragments marks transformable descendants of n with fragment class and
// optional animation class. Transformable nodes are tagged but not descended
// into, everything else is. It returns number of tagged nodes.
func TagFragments(n *doctree.Node, animation string) int {
	var count int
	for _, c := range n.Children {
		if !transformable(c.Kind) {
			count += TagFragments(c, animation)
			continue
		}
		c.AddClass(ClassFragment)
		if animation != "" {
			c.AddClass(animation)
		}
		count++
	}
	return count
}

// effects expands compact chain of animation steps ("fade 2.zoom") into
// linearly nested effect nodes.
type effects struct{}

func (effects) Spec() rst.Spec {
	return rst.Spec{
		Optional:                1,
		FinalArgumentWhitespace: true,
		Options: element.OptionSpec{
			{Name: element.DataID, Convert: element.UnchangedRequired},
		},
		HasContent: true,
	}
}

func (effects) Run(inv *rst.Invocation) ([]*doctree.Node, error) {
	root := doctree.New(KindEffect)
	cur := root

	add := func(args []string, opts map[string]string) error {
		if cur.Element == nil {
			// only chain head gets identifier
			if id, ok := inv.Options[element.DataID]; ok {
				opts[element.DataID] = id
			}
			e, err := element.New(element.Effect, args, opts)
			if err != nil {
				return err
			}
			cur.Element = e
			return nil
		}
		e, err := element.New(element.Effect, args, opts)
		if err != nil {
			return err
		}
		n := doctree.New(KindEffect)
		n.Element = e
		cur.Append(n)
		cur = n
		return nil
	}

	var tokens []string
	if len(inv.Arguments) > 0 {
		tokens = strings.Fields(inv.Arguments[0])
	}
	if len(tokens) == 0 {
		if err := add(nil, map[string]string{}); err != nil {
			return nil, err
		}
	}
	for _, tok := range tokens {
		anim, opts := tok, map[string]string{}
		if parts := strings.Split(tok, "."); len(parts) == 2 {
			opts[element.DataIndex] = parts[0]
			anim = parts[1]
		}
		if err := add([]string{anim}, opts); err != nil {
			return nil, err
		}
	}

	if len(inv.Content) > 0 {
		if err := inv.NestedParse(cur); err != nil {
			return nil, err
		}
	}
	return []*doctree.Node{root}, nil
}

// identifier stamps revealjs-id onto its content, or, without content, onto
// whatever follows it once document is complete.
type identifier struct{}

func (identifier) Spec() rst.Spec {
	return rst.Spec{
		Optional:                1,
		FinalArgumentWhitespace: true,
		HasContent:              true,
	}
}

func (identifier) Run(inv *rst.Invocation) ([]*doctree.Node, error) {
	var id string
	if len(inv.Arguments) > 0 {
		id = strings.TrimSpace(inv.Arguments[0])
	}
	if id == "" {
		return nil, &element.MissingArgumentError{Directive: inv.Name, Argument: "id"}
	}

	if len(inv.Content) > 0 {
		c := doctree.New(doctree.KindElement)
		if err := inv.NestedParse(c); err != nil {
			return nil, err
		}
		for _, n := range c.Children {
			if !n.Invisible() {
				n.SetAttr(doctree.AttrIdentifier, id)
			}
		}
		return c.Children, nil
	}

	m := doctree.New(doctree.KindPending)
	m.SetAttr(doctree.AttrLine, strconv.Itoa(inv.Line))
	m.Pending = &doctree.Pending{
		Directive: inv.Name,
		Details:   map[doctree.AttrKey]string{doctree.AttrIdentifier: id},
		RawSource: inv.BlockText,
	}
	inv.NotePending(m, IDAttribute{})
	return []*doctree.Node{m}, nil
}
