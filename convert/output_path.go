package convert

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"revealit/config"
	"revealit/rst"
	"revealit/state"
)

// buildOutputPath returns output file path for the source. It uses either
// source file name or user defined template and takes into account whether
// to preserve source directory structure on the output. Path segments are
// cleaned and, if requested, transliterated.
func buildOutputPath(doc *rst.Document, src, dst string, env *state.LocalEnv) string {
	outDir := determineOutputDir(src, dst, env)
	out := &env.Cfg.Document.Output

	if out.NameTemplate != "" {
		values := newValues(doc, config.NameTemplateFieldName, src, env.Format)
		expanded, err := expandTemplate(values, out.NameTemplate)
		if err != nil {
			env.Log.Warn("Unable to prepare output filename, using default", zap.Error(err))
		} else if segments := splitPath(filepath.FromSlash(expanded)); len(segments) > 0 {
			return assemblePath(outDir, segments, env)
		}
	}
	return assemblePath(outDir, []string{strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))}, env)
}

func determineOutputDir(src, dst string, env *state.LocalEnv) string {
	if env.NoDirs {
		return dst
	}
	return filepath.Join(dst, filepath.Dir(src))
}

// assemblePath joins cleaned segments under outDir, last segment gets output
// format extension.
func assemblePath(outDir string, segments []string, env *state.LocalEnv) string {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, outDir)
	for _, s := range segments {
		parts = append(parts, cleanPathSegment(s, env))
	}
	parts[len(parts)-1] += env.Format.Ext()
	return filepath.Join(parts...)
}

// splitPath breaks path into non empty segments, "." and ".." are dropped
// so template cannot escape destination.
func splitPath(path string) []string {
	var segments []string
	for head, tail := filepath.Split(strings.TrimRight(path, string(filepath.Separator))); tail != ""; {
		if tail != "." && tail != ".." && strings.TrimSpace(tail) != "" {
			segments = slices.Insert(segments, 0, tail)
		}
		head = strings.TrimRight(head, string(filepath.Separator))
		if head == "" {
			break
		}
		head, tail = filepath.Split(head)
	}
	return segments
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Document.Output.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
