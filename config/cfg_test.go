package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rupor-github/gencfg"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Document.Parser.TabWidth != 8 {
		t.Errorf("TabWidth = %d, want 8", cfg.Document.Parser.TabWidth)
	}
	if cfg.Document.Parser.Strict {
		t.Error("Strict should be off by default")
	}
	if cfg.Document.Output.Format != OutputFmtTree {
		t.Errorf("Format = %v, want tree", cfg.Document.Output.Format)
	}
	if cfg.Document.Output.NameTemplate != "" {
		t.Errorf("NameTemplate = %q, want empty", cfg.Document.Output.NameTemplate)
	}
	if len(cfg.Document.Parser.SourceExtensions) == 0 {
		t.Error("SourceExtensions should not be empty")
	}
	if cfg.Logging.ConsoleLogger.Level != "normal" {
		t.Errorf("console level = %q", cfg.Logging.ConsoleLogger.Level)
	}
	if !strings.HasSuffix(cfg.Reporting.Destination, "revealit-report.zip") {
		t.Errorf("report destination = %q", cfg.Reporting.Destination)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	path := writeConfig(t, `version: 1
document:
  parser:
    tab_width: 4
    strict: true
    source_extensions: [".rst"]
  output:
    format: xml
    name_template: "{{ .Title | lower }}"
    xml_indent: 0
logging:
  console:
    level: debug
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	p := cfg.Document.Parser
	if p.TabWidth != 4 || !p.Strict || len(p.SourceExtensions) != 1 {
		t.Errorf("parser = %+v", p)
	}
	o := cfg.Document.Output
	if o.Format != OutputFmtXML {
		t.Errorf("Format = %v, want xml", o.Format)
	}
	// templates must survive processing unexpanded
	if o.NameTemplate != "{{ .Title | lower }}" {
		t.Errorf("NameTemplate = %q", o.NameTemplate)
	}
	if o.XMLIndent != 0 {
		t.Errorf("XMLIndent = %d, want 0", o.XMLIndent)
	}
	// untouched sections keep defaults
	if cfg.Logging.FileLogger.Level != "none" {
		t.Errorf("file level = %q, want none", cfg.Logging.FileLogger.Level)
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid_yaml", "version: 1\ndocument:\n  parser: [\n"},
		{"unknown_field", "version: 1\nunknown_field: value\n"},
		{"bad_version", "version: 2\n"},
		{"tab_width", "version: 1\ndocument:\n  parser:\n    tab_width: 0\n"},
		{"xml_indent", "version: 1\ndocument:\n  output:\n    xml_indent: 9\n"},
		{"format", "version: 1\ndocument:\n  output:\n    format: pdf\n"},
		{"extension", "version: 1\ndocument:\n  parser:\n    source_extensions: [\"rst\"]\n"},
		{"log_level", "version: 1\nlogging:\n  console:\n    level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("LoadConfiguration() expected error")
			}
		})
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {}
	if _, err := LoadConfiguration("", option); err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err := unmarshalConfig(data, &Config{}, true); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Document.Output.Format = OutputFmtXML

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(string(data), "format: xml") {
		t.Errorf("Dump() does not contain format:\n%s", data)
	}

	back, err := unmarshalConfig(data, &Config{}, true)
	if err != nil {
		t.Fatalf("Dumped config cannot be loaded: %v", err)
	}
	if back.Document.Output.Format != OutputFmtXML || back.Document.Parser.TabWidth != cfg.Document.Parser.TabWidth {
		t.Errorf("mismatch after dump/load: %+v", back.Document)
	}
}

func TestUnmarshalConfig_WrapsValidationError(t *testing.T) {
	_, err := unmarshalConfig([]byte("version: 99\n"), &Config{}, true)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "validat") {
		t.Errorf("expected error to mention validation, got: %v", err)
	}
	if errors.Unwrap(err) == nil {
		t.Errorf("expected wrapped error, got bare error: %v", err)
	}
}

func TestParserConfig_IsSource(t *testing.T) {
	p := ParserConfig{SourceExtensions: []string{".rst", ".txt"}}
	tests := []struct {
		name string
		want bool
	}{
		{"slides.rst", true},
		{"dir/SLIDES.RST", true},
		{"notes.txt", true},
		{"deck.md", false},
		{"rst", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.IsSource(tt.name); got != tt.want {
				t.Errorf("IsSource(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
