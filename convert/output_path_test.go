package convert

import (
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"revealit/config"
	"revealit/revealjs"
	"revealit/rst"
	"revealit/state"
)

func setupTestEnvForOutputPath(t *testing.T, noDirs, transliterate bool, format config.OutputFmt, template string) *state.LocalEnv {
	t.Helper()
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Document.Output.FileNameTransliterate = transliterate
	cfg.Document.Output.NameTemplate = template

	return &state.LocalEnv{
		Log:    zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))),
		Cfg:    cfg,
		NoDirs: noDirs,
		Format: format,
	}
}

func parseTestDoc(t *testing.T, text string) *rst.Document {
	t.Helper()
	doc, err := rst.NewParser(revealjs.NewRegistry(), zaptest.NewLogger(t)).Parse("deck.rst", text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

func TestBuildOutputPath(t *testing.T) {
	doc := parseTestDoc(t, ".. revealjs-section:: Grand Opening\n\nHello")

	tests := []struct {
		name          string
		noDirs        bool
		transliterate bool
		format        config.OutputFmt
		template      string
		src           string
		want          string
	}{
		{"no_dirs", true, false, config.OutputFmtTree, "", "talks/2024/deck.rst", "/output/deck.tree.txt"},
		{"with_dirs", false, false, config.OutputFmtTree, "", "talks/2024/deck.rst", "/output/talks/2024/deck.tree.txt"},
		{"xml", true, false, config.OutputFmtXML, "", "deck.rst", "/output/deck.xml"},
		{"transliterate", true, true, config.OutputFmtTree, "", "Доклад Один.rst", "/output/doklad-odin.tree.txt"},
		{"template", true, false, config.OutputFmtTree, "{{ .Title }}", "deck.rst", "/output/Grand Opening.tree.txt"},
		{"template_subdirs", true, true, config.OutputFmtXML, "{{ .Format }}/{{ .Title }}", "deck.rst", "/output/xml/grand-opening.xml"},
		{"template_escape", true, false, config.OutputFmtTree, "../../{{ .SourceFile }}", "deck.rst", "/output/deck.tree.txt"},
		{"template_empty", true, false, config.OutputFmtTree, "{{ if false }}x{{ end }}", "deck.rst", "/output/deck.tree.txt"},
		{"template_invalid", true, false, config.OutputFmtTree, "{{ .Nope }}", "deck.rst", "/output/deck.tree.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnvForOutputPath(t, tt.noDirs, tt.transliterate, tt.format, tt.template)
			got := buildOutputPath(doc, filepath.FromSlash(tt.src), filepath.FromSlash("/output"), env)
			if want := filepath.FromSlash(tt.want); got != want {
				t.Errorf("buildOutputPath() = %q, want %q", got, want)
			}
		})
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a", "a"},
		{"a/b/c", "a b c"},
		{"/a/b/", "a b"},
		{"a/./b/../c", "a b c"},
		{"a// /b", "a b"},
		{"", ""},
		{"/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := strings.Join(splitPath(filepath.FromSlash(tt.in)), " ")
			if got != tt.want {
				t.Errorf("splitPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanPathSegment(t *testing.T) {
	env := setupTestEnvForOutputPath(t, false, false, config.OutputFmtTree, "")
	if got := cleanPathSegment("..Intro Deck", env); got != "Intro Deck" {
		t.Errorf("cleanPathSegment() = %q", got)
	}
	env.Cfg.Document.Output.FileNameTransliterate = true
	if got := cleanPathSegment("Intro Deck", env); got != "intro-deck" {
		t.Errorf("cleanPathSegment() transliterated = %q", got)
	}
}
