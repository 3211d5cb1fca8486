package rst

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"

	"revealit/doctree"
	"revealit/element"
)

var (
	ErrUnknownDirective  = errors.New("unknown directive type")
	ErrContentNotAllowed = errors.New("no content permitted")
	ErrContentRequired   = errors.New("content block expected, but none found")
	ErrDuplicateOption   = errors.New("duplicate option")
	ErrMalformedOptions  = errors.New("malformed option block")
)

// DirectiveError ties directive failure to its location in the source.
type DirectiveError struct {
	Name   string
	Source string
	Line   int
	Err    error
}

func (e *DirectiveError) Error() string {
	return fmt.Sprintf("%s:%d: error in %q directive: %v", e.Source, e.Line, e.Name, e.Err)
}

func (e *DirectiveError) Unwrap() error {
	return e.Err
}

// Spec declares how directive arguments, options and content are handled
// before directive runs.
type Spec struct {
	Required int
	Optional int
	// FinalArgumentWhitespace allows last argument to contain whitespace.
	FinalArgumentWhitespace bool
	Options                 element.OptionSpec
	HasContent              bool
}

// SpecFromSchema derives directive spec from descriptor schema.
func SpecFromSchema(s *element.Schema, hasContent bool) Spec {
	lo, hi := s.Bounds()
	return Spec{
		Required:                lo,
		Optional:                hi - lo,
		FinalArgumentWhitespace: s.FinalArgumentWhitespace,
		Options:                 s.Options,
		HasContent:              hasContent,
	}
}

// Directive handles single kind of explicit markup block.
type Directive interface {
	Spec() Spec
	Run(inv *Invocation) ([]*doctree.Node, error)
}

// Registry maps directive names to handlers.
type Registry struct {
	directives map[string]Directive
}

// NewRegistry returns registry with generic host directives already
// registered.
func NewRegistry() *Registry {
	r := &Registry{directives: make(map[string]Directive)}
	r.Register("image", imageDirective{})
	r.Register("container", containerDirective{})
	r.Register("code-block", CodeBlock{})
	r.Register("code", CodeBlock{})
	return r
}

// Register adds or replaces directive. Names are case insensitive.
func (r *Registry) Register(name string, d Directive) {
	r.directives[strings.ToLower(name)] = d
}

// Lookup returns directive registered under name.
func (r *Registry) Lookup(name string) (Directive, bool) {
	d, ok := r.directives[strings.ToLower(name)]
	return d, ok
}

// Names returns sorted list of registered directives.
func (r *Registry) Names() []string {
	names := slices.Collect(maps.Keys(r.directives))
	sort.Strings(names)
	return names
}

// Invocation is a single directive block found in the source.
type Invocation struct {
	Name      string
	Arguments []string
	// Options are already validated against directive option spec.
	Options map[string]string
	Content []string
	// ContentOffset is zero based source line index of the first content
	// line.
	ContentOffset int
	// Line is one based source line of the directive start.
	Line      int
	BlockText string

	state *State
}

// NestedParse parses directive content as structured markup appending
// resulting nodes to target.
func (inv *Invocation) NestedParse(target *doctree.Node) error {
	return inv.state.ParseInto(inv.Content, inv.ContentOffset, target)
}

// ParseInto parses arbitrary lines as structured markup appending resulting
// nodes to target. Offset is zero based source line index of the first line.
func (inv *Invocation) ParseInto(lines []string, offset int, target *doctree.Node) error {
	return inv.state.ParseInto(lines, offset, target)
}

// NotePending registers deferred transform to be applied to marker once
// whole document tree is built.
func (inv *Invocation) NotePending(marker *doctree.Node, t Transform) {
	inv.state.doc.NotePending(marker, t)
}

// Document returns document being built.
func (inv *Invocation) Document() *Document {
	return inv.state.doc
}

// Logger returns logger of the current parsing run.
func (inv *Invocation) Logger() *zap.Logger {
	return inv.state.log
}

// WithOptions returns shallow copy of invocation with replaced options.
func (inv *Invocation) WithOptions(opts map[string]string) *Invocation {
	c := *inv
	c.Options = opts
	return &c
}

// Errorf wraps error with directive location.
func (inv *Invocation) Errorf(format string, args ...any) error {
	return inv.wrap(fmt.Errorf(format, args...))
}

func (inv *Invocation) wrap(err error) error {
	var de *DirectiveError
	if errors.As(err, &de) {
		// keep innermost location
		return err
	}
	return &DirectiveError{Name: inv.Name, Source: inv.state.doc.Source, Line: inv.Line, Err: err}
}

// splitArguments breaks argument text according to directive spec and
// checks arity.
func splitArguments(name, text string, spec Spec) ([]string, error) {
	fields := strings.Fields(text)
	maxArgs := spec.Required + spec.Optional
	if spec.FinalArgumentWhitespace && maxArgs > 0 && len(fields) > maxArgs {
		last := strings.Join(fields[maxArgs-1:], " ")
		fields = append(fields[:maxArgs-1], last)
	}
	if len(fields) < spec.Required || len(fields) > maxArgs {
		return nil, &element.ArityError{Kind: element.Kind(name), Got: len(fields), Min: spec.Required, Max: maxArgs}
	}
	return fields, nil
}
