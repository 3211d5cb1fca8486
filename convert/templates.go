package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"revealit/config"
	"revealit/doctree"
	"revealit/element"
	"revealit/revealjs"
	"revealit/rst"
)

// Values is a struct that holds variables we make available for template
// expansion.
type Values struct {
	Context    string
	Title      string
	Slides     int
	Theme      string
	Format     string
	SourceFile string
	SourcePath string
}

// documentTitle returns slide title of the first titled slide or first
// section heading, whichever comes first.
func documentTitle(root *doctree.Node) string {
	var title string
	doctree.Walk(root, func(n *doctree.Node, _ int) bool {
		if title != "" {
			return false
		}
		switch {
		case n.Kind == revealjs.KindSection || n.Kind == revealjs.KindTitle:
			title = n.Element.Data(element.DataTitle)
		case n.Kind == doctree.KindTitle:
			title = n.Text
		}
		return title == ""
	})
	return title
}

// countSlides counts explicit slides and sections.
func countSlides(root *doctree.Node) int {
	return doctree.Count(root, revealjs.KindSection) + doctree.Count(root, doctree.KindSection)
}

func deckTheme(root *doctree.Node) string {
	for _, n := range doctree.Collect(root, revealjs.KindDeck) {
		if theme := n.Element.Data("theme"); theme != "" {
			return theme
		}
	}
	return ""
}

func newValues(doc *rst.Document, name config.TemplateFieldName, src string, format config.OutputFmt) Values {
	return Values{
		Context:    string(name),
		Title:      documentTitle(doc.Root),
		Slides:     countSlides(doc.Root),
		Theme:      deckTheme(doc.Root),
		Format:     format.String(),
		SourceFile: strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		SourcePath: filepath.ToSlash(filepath.Dir(src)),
	}
}

func expandTemplate(values Values, field string) (string, error) {
	tmpl, err := template.New(values.Context).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", values.Context, err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", fmt.Errorf("unable to expand template field %s: %w", values.Context, err)
	}
	return buf.String(), nil
}
