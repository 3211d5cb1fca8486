// Package element defines validated descriptors of slide directives - decks,
// sections, effects, fragment groups, shaped and titled boxes.
package element

import (
	"maps"
	"slices"
)

// Kind names group of directives sharing the same descriptor schema.
type Kind string

const (
	KindDeck      Kind = "deck"
	KindSection   Kind = "section"
	KindEffect    Kind = "effect"
	KindFragments Kind = "fragments"
	KindBox       Kind = "box"
	KindTitle     Kind = "title"
)

// Well known computed data keys.
const (
	DataAnimation = "animation"
	DataIndex     = "index"
	DataID        = "data-id"
	DataClasses   = "classes"
	DataTitle     = "title"
	DataShape     = "shape"
	DataStyle     = "style"
)

// Element is validated, normalized representation of a single directive
// invocation. It is immutable: accessors return copies.
type Element struct {
	kind    Kind
	args    []string
	options map[string]string
	cdata   map[string]string
}

// New validates raw arguments and options against schema and builds
// descriptor.
func New(s *Schema, args []string, options map[string]string) (*Element, error) {
	lo, hi := s.Bounds()
	if len(args) < lo || len(args) > hi {
		return nil, &ArityError{Kind: s.Kind, Got: len(args), Min: lo, Max: hi}
	}

	opts, err := s.Options.Convert(s.Kind, options)
	if err != nil {
		return nil, err
	}

	if s.Positional {
		// optional positional arguments fill options in declaration order,
		// explicitly specified options win
		for i, v := range args[s.Required:] {
			o := s.Options[i]
			if _, ok := opts[o.Name]; ok {
				continue
			}
			cv, err := o.Convert(v)
			if err != nil {
				return nil, &OptionSchemaError{Kind: s.Kind, Option: o.Name, Value: v, Err: err}
			}
			opts[o.Name] = cv
		}
	}

	e := &Element{
		kind:    s.Kind,
		args:    slices.Clone(args),
		options: opts,
		cdata:   make(map[string]string),
	}
	if s.compute != nil {
		s.compute(e.args, e.options, e.cdata)
	}
	return e, nil
}

// MustNew is like New but panics on error. Intended for descriptors built
// from values which are known to be valid.
func MustNew(s *Schema, args []string, options map[string]string) *Element {
	e, err := New(s, args, options)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Element) Kind() Kind {
	if e == nil {
		return ""
	}
	return e.kind
}

// Arguments returns copy of raw positional arguments.
func (e *Element) Arguments() []string {
	if e == nil {
		return nil
	}
	return slices.Clone(e.args)
}

// Options returns copy of validated options.
func (e *Element) Options() map[string]string {
	if e == nil {
		return map[string]string{}
	}
	return maps.Clone(e.options)
}

// Option returns validated option value and whether it was specified.
func (e *Element) Option(name string) (string, bool) {
	if e == nil {
		return "", false
	}
	v, ok := e.options[name]
	return v, ok
}

// ComputedData returns copy of normalized semantic fields.
func (e *Element) ComputedData() map[string]string {
	if e == nil {
		return map[string]string{}
	}
	return maps.Clone(e.cdata)
}

// Data returns single computed field, empty if absent.
func (e *Element) Data(key string) string {
	if e == nil {
		return ""
	}
	return e.cdata[key]
}

// IsEmpty reports whether descriptor carries nothing at all.
func (e *Element) IsEmpty() bool {
	return e == nil || (len(e.args) == 0 && len(e.options) == 0)
}
