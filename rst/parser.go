// Package rst is a compact structured text (reStructuredText subset) engine:
// block parser, directive registry, nested parsing entry point and document
// level deferred transforms.
package rst

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gosimple/slug"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"revealit/doctree"
	"revealit/element"
)

const DefaultTabWidth = 8

var (
	reDirective = regexp.MustCompile(`^\.\.\s+([A-Za-z0-9][A-Za-z0-9_:+.-]*?)::(?:\s+(.*))?$`)
	reOption    = regexp.MustCompile(`^:([^:\s][^:]*):(?:\s+(.*))?$`)
)

const adornmentChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Parser turns structured text into document tree. Parser is stateless and
// may be reused, every call produces fresh Document.
type Parser struct {
	reg      *Registry
	log      *zap.Logger
	tabWidth int
	strict   bool
}

// Option configures parser.
type Option func(*Parser)

// WithTabWidth sets tab stops used when expanding tabs.
func WithTabWidth(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.tabWidth = n
		}
	}
}

// WithStrict makes parser stop on the first failed block instead of
// collecting errors.
func WithStrict(strict bool) Option {
	return func(p *Parser) {
		p.strict = strict
	}
}

func NewParser(reg *Registry, log *zap.Logger, opts ...Option) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Parser{reg: reg, log: log, tabWidth: DefaultTabWidth}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Scan builds document tree without applying pending transforms. Failed
// blocks are dropped and their errors are combined in the returned error,
// document is always returned.
func (p *Parser) Scan(source, text string) (*Document, error) {
	doc := newDocument(source, p.log)
	st := &State{
		doc:    doc,
		reg:    p.reg,
		log:    p.log.With(zap.String("source", source)),
		strict: p.strict,
	}
	err := st.parseBlocks(splitLines(text, p.tabWidth), 0, doc.Root, &sectionStack{nodes: []*doctree.Node{doc.Root}}, true)
	return doc, err
}

// Parse scans text and resolves all pending transforms.
func (p *Parser) Parse(source, text string) (*Document, error) {
	doc, err := p.Scan(source, text)
	if err != nil && p.strict {
		return doc, err
	}
	if er := doc.Finalize(); er != nil {
		err = multierr.Append(err, er)
	}
	return doc, err
}

// State is the parsing context of a single document.
type State struct {
	doc    *Document
	reg    *Registry
	log    *zap.Logger
	strict bool
	styles []adornment
}

type adornment struct {
	char rune
	over bool
}

type sectionStack struct {
	// nodes[0] is document root, nodes[n] is current section of level n
	nodes []*doctree.Node
}

func (ss *sectionStack) top() *doctree.Node {
	return ss.nodes[len(ss.nodes)-1]
}

// ParseInto parses lines as structured markup appending nodes to target.
// Section titles are not recognized in nested content. The first error
// stops parsing and is returned unchanged.
func (s *State) ParseInto(lines []string, offset int, target *doctree.Node) error {
	return s.parseBlocks(lines, offset, target, nil, false)
}

func (s *State) parseBlocks(lines []string, offset int, target *doctree.Node, sections *sectionStack, top bool) error {
	var errs error

	fail := func(err error) error {
		if !top || s.strict {
			return err
		}
		s.log.Warn("Dropping block", zap.Error(err))
		errs = multierr.Append(errs, err)
		return nil
	}
	current := func() *doctree.Node {
		if sections != nil {
			return sections.top()
		}
		return target
	}

	for i := 0; i < len(lines); {
		line := lines[i]
		if isBlank(line) {
			i++
			continue
		}

		if indentOf(line) > 0 {
			end := indentedEnd(lines, i)
			quote := doctree.New(doctree.KindBlockQuote)
			if err := s.parseBlocks(dedent(lines[i:end]), offset+i, quote, nil, false); err != nil {
				if err = fail(err); err != nil {
					return err
				}
			} else {
				current().Append(quote)
			}
			i = end
			continue
		}

		if isExplicit(line) {
			end := indentedEnd(lines, i+1)
			if m := reDirective.FindStringSubmatch(line); m != nil {
				nodes, err := s.runDirective(m[1], m[2], lines[i:end], offset+i)
				if err != nil {
					if err = fail(err); err != nil {
						return err
					}
				} else {
					current().Append(nodes...)
				}
			} else {
				text := strings.TrimSpace(line[2:])
				if rest := dedent(lines[i+1 : end]); len(rest) > 0 {
					text = strings.TrimSpace(text + "\n" + strings.Join(rest, "\n"))
				}
				current().Append(doctree.NewText(doctree.KindComment, text))
			}
			i = end
			continue
		}

		if bullet := bulletMarker(line); bullet != 0 {
			list := doctree.New(doctree.KindBulletList)
			for {
				end := indentedEnd(lines, i+1)
				item := doctree.New(doctree.KindListItem)
				itemLines := append([]string{strings.TrimLeft(lines[i][1:], " ")}, dedent(lines[i+1:end])...)
				if err := s.parseBlocks(itemLines, offset+i, item, nil, false); err != nil {
					if err = fail(err); err != nil {
						return err
					}
				} else {
					list.Append(item)
				}
				i = end
				next := skipBlank(lines, i)
				if next >= len(lines) || bulletMarker(lines[next]) != bullet {
					break
				}
				i = next
			}
			current().Append(list)
			continue
		}

		if sections != nil {
			if title, style, n := sectionTitle(lines, i); n > 0 {
				if err := s.openSection(sections, title, style); err != nil {
					if err = fail(&DirectiveError{Name: "section", Source: s.doc.Source, Line: offset + i + 1, Err: err}); err != nil {
						return err
					}
				}
				i += n
				continue
			}
		}

		end := i
		for end < len(lines) && !isBlank(lines[end]) && indentOf(lines[end]) == 0 {
			end++
		}
		text := strings.Join(lines[i:end], "\n")
		i = end

		literal := strings.HasSuffix(text, "::")
		if literal {
			switch {
			case text == "::":
				text = ""
			case strings.HasSuffix(text, " ::"):
				text = strings.TrimSuffix(text, " ::")
			default:
				text = strings.TrimSuffix(text, ":")
			}
		}
		if text != "" {
			current().Append(doctree.NewText(doctree.KindParagraph, text))
		}
		if literal {
			next := skipBlank(lines, i)
			if next < len(lines) && indentOf(lines[next]) > 0 {
				end := indentedEnd(lines, next)
				current().Append(doctree.NewText(doctree.KindLiteralBlock, strings.Join(dedent(lines[next:end]), "\n")))
				i = end
			}
		}
	}
	return errs
}

func (s *State) openSection(sections *sectionStack, title string, style adornment) error {
	level := 0
	for idx, st := range s.styles {
		if st == style {
			level = idx + 1
			break
		}
	}
	if level == 0 {
		if len(s.styles) >= len(sections.nodes) {
			return fmt.Errorf("title level inconsistent: %q", title)
		}
		s.styles = append(s.styles, style)
		level = len(s.styles)
	}
	if level > len(sections.nodes) {
		return fmt.Errorf("title level inconsistent: %q", title)
	}

	sections.nodes = sections.nodes[:level]
	sec := doctree.New(doctree.KindSection, doctree.NewText(doctree.KindTitle, title))
	sec.SetAttr(doctree.AttrNames, slug.Make(title))
	sec.SetAttr(doctree.AttrLevel, strconv.Itoa(level))
	sections.top().Append(sec)
	sections.nodes = append(sections.nodes, sec)
	return nil
}

func (s *State) runDirective(name, argText string, block []string, lineIdx int) ([]*doctree.Node, error) {
	inv := &Invocation{
		Name:      strings.ToLower(name),
		Line:      lineIdx + 1,
		BlockText: strings.Join(block, "\n"),
		state:     s,
	}

	d, ok := s.reg.Lookup(name)
	if !ok {
		return nil, inv.wrap(fmt.Errorf("%w %q", ErrUnknownDirective, name))
	}
	spec := d.Spec()

	body := dedent(block[1:])
	j := 0
	if spec.Required+spec.Optional > 0 {
		for j < len(body) && !isBlank(body[j]) && !reOption.MatchString(body[j]) {
			argText += " " + strings.TrimSpace(body[j])
			j++
		}
	}

	raw := make(map[string]string)
	if j < len(body) && reOption.MatchString(body[j]) {
		var last string
		for j < len(body) && !isBlank(body[j]) {
			m := reOption.FindStringSubmatch(body[j])
			if m == nil {
				if last == "" || indentOf(body[j]) == 0 {
					return nil, inv.wrap(ErrMalformedOptions)
				}
				raw[last] = strings.TrimSpace(raw[last] + " " + strings.TrimSpace(body[j]))
				j++
				continue
			}
			if _, dup := raw[m[1]]; dup {
				return nil, inv.wrap(&element.OptionSchemaError{Kind: element.Kind(inv.Name), Option: m[1], Value: m[2], Err: ErrDuplicateOption})
			}
			raw[m[1]] = m[2]
			last = m[1]
			j++
		}
	}
	j = skipBlank(body, j)
	inv.Content = body[j:]
	inv.ContentOffset = lineIdx + 1 + j

	args, err := splitArguments(inv.Name, argText, spec)
	if err != nil {
		return nil, inv.wrap(err)
	}
	inv.Arguments = args

	opts, err := spec.Options.Convert(element.Kind(inv.Name), raw)
	if err != nil {
		return nil, inv.wrap(err)
	}
	inv.Options = opts

	if len(inv.Content) > 0 && !spec.HasContent {
		return nil, inv.wrap(ErrContentNotAllowed)
	}

	s.log.Debug("Running directive", zap.String("name", inv.Name), zap.Int("line", inv.Line), zap.Strings("args", args))
	nodes, err := d.Run(inv)
	if err != nil {
		return nil, inv.wrap(err)
	}
	return nodes, nil
}

// splitLines normalizes line endings, expands tabs and strips trailing
// whitespace.
func splitLines(text string, tabWidth int) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(expandTabs(l, tabWidth), " \t\f\v")
	}
	return lines
}

func expandTabs(line string, width int) string {
	if !strings.ContainsRune(line, '\t') {
		return line
	}
	var b strings.Builder
	col := 0
	for _, r := range line {
		if r == '\t' {
			n := width - col%width
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

func isExplicit(line string) bool {
	return line == ".." || strings.HasPrefix(line, ".. ")
}

func bulletMarker(line string) byte {
	if line == "" || !strings.ContainsRune("-*+", rune(line[0])) {
		return 0
	}
	if len(line) == 1 || line[1] == ' ' {
		return line[0]
	}
	return 0
}

func skipBlank(lines []string, i int) int {
	for i < len(lines) && isBlank(lines[i]) {
		i++
	}
	return i
}

// indentedEnd returns end of the block starting at start which consists of
// indented and blank lines, trailing blank lines excluded.
func indentedEnd(lines []string, start int) int {
	end := start
	for end < len(lines) && (isBlank(lines[end]) || indentOf(lines[end]) > 0) {
		end++
	}
	for end > start && isBlank(lines[end-1]) {
		end--
	}
	return end
}

// dedent removes common indentation, blank lines become empty.
func dedent(lines []string) []string {
	common := -1
	for _, l := range lines {
		if isBlank(l) {
			continue
		}
		if n := indentOf(l); common < 0 || n < common {
			common = n
		}
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		if isBlank(l) {
			continue
		}
		out[i] = l[common:]
	}
	return out
}

func isAdornment(line string) bool {
	if utf8.RuneCountInString(line) < 2 || indentOf(line) > 0 {
		return false
	}
	first := rune(line[0])
	if !strings.ContainsRune(adornmentChars, first) {
		return false
	}
	for _, r := range line {
		if r != first {
			return false
		}
	}
	return true
}

// sectionTitle recognizes section title at index i and returns its text,
// adornment style and number of consumed lines (0 if there is no title).
func sectionTitle(lines []string, i int) (string, adornment, int) {
	if isAdornment(lines[i]) {
		if i+2 < len(lines) && !isBlank(lines[i+1]) && lines[i+2] == lines[i] {
			title := strings.TrimSpace(lines[i+1])
			if utf8.RuneCountInString(lines[i]) >= utf8.RuneCountInString(title) {
				return title, adornment{char: rune(lines[i][0]), over: true}, 3
			}
		}
		return "", adornment{}, 0
	}
	if i+1 < len(lines) && isAdornment(lines[i+1]) {
		title := strings.TrimSpace(lines[i])
		if utf8.RuneCountInString(lines[i+1]) >= utf8.RuneCountInString(title) {
			return title, adornment{char: rune(lines[i+1][0])}, 2
		}
	}
	return "", adornment{}, 0
}
