// Package convert implements build command: it finds sources, parses them
// into slide trees and writes results.
package convert

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"revealit/archive"
	"revealit/config"
	"revealit/doctree"
	"revealit/revealjs"
	"revealit/rst"
	"revealit/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("build")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.Format = env.Cfg.Document.Output.Format
	if to := cmd.String("to"); len(to) > 0 {
		if env.Format, err = config.ParseOutputFmt(to); err != nil {
			log.Warn("Unknown output format requested, using configured one", zap.Error(err), zap.Stringer("format", env.Cfg.Document.Output.Format))
			env.Format = env.Cfg.Document.Output.Format
		}
	}
	env.NoDirs = cmd.Bool("nodirs")
	env.Overwrite = cmd.Bool("overwrite")

	// zip does not define file name encoding, old archives may need code page
	if cp := cmd.String("force-zip-cp"); len(cp) > 0 {
		if env.CodePage, err = ianaindex.IANA.Encoding(cp); err != nil || env.CodePage == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("format", env.Format))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// process determines the input type (directory, archive or single file) and
// processes it. Path may continue inside of an archive, so it is checked
// component by component from the end.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	conf := &state.EnvFromContext(ctx).Cfg.Document.Parser

	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exist, probably path inside archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			return nil
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			pathIn := filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator)))
			if err := processArchive(ctx, head, pathIn, "", dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			return nil
		}

		if len(tail) != 0 {
			// regular file cannot have tail
			return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}
		ok, enc, err := isSourceFile(head, conf)
		if err != nil {
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if !ok {
			return fmt.Errorf("input was not recognized as source (%s)", head)
		}
		file, err := os.Open(head)
		if err != nil {
			return err
		}
		defer file.Close()
		return processSource(ctx, selectReader(file, enc), filepath.Base(head), dst, log)
	}
	return fmt.Errorf("input source was not found (%s)", src)
}

// processDir walks directory tree in natural order finding sources and
// archives. Failures of single files are logged, walking continues.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) error {
	conf := &state.EnvFromContext(ctx).Cfg.Document.Parser

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slices.SortFunc(paths, func(a, b string) int {
		switch {
		case natural.Less(a, b):
			return -1
		case natural.Less(b, a):
			return 1
		}
		return 0
	})

	count := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		isArchive, err := isArchiveFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if isArchive {
			count++
			if err := processArchive(ctx, path, "", filepath.Dir(rel), dst, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			continue
		}

		ok, enc, err := isSourceFile(path, conf)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if !ok {
			log.Debug("Skipping file, not recognized as source or archive", zap.String("file", path))
			continue
		}
		count++
		if err := processFile(ctx, path, enc, rel, dst, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
	}
	if count == 0 {
		log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return nil
}

func processFile(ctx context.Context, path string, enc srcEncoding, rel, dst string, log *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return processSource(ctx, selectReader(f, enc), rel, dst, log)
}

// processArchive processes all sources inside archive located under
// "pathIn". "pathOut" is prepended to names inside archive when building
// output path.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)
	conf := &env.Cfg.Document.Parser

	count := 0
	err := archive.Walk(path, pathIn, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, enc, err := isSourceInArchive(f, conf)
		if err != nil {
			log.Warn("Skipping file in archive", zap.String("archive", arc), zap.String("path", f.Name), zap.Error(err))
			return nil
		}
		if !ok {
			log.Debug("Skipping file, not recognized as source", zap.String("archive", arc), zap.String("file", f.Name))
			return nil
		}
		count++

		name := f.Name
		if env.CodePage != nil && f.NonUTF8 {
			if n, err := env.CodePage.NewDecoder().String(name); err == nil {
				name = n
			} else {
				cp, _ := ianaindex.IANA.Name(env.CodePage)
				log.Warn("Unable to convert archive name from specified encoding", zap.String("charset", cp), zap.String("path", name), zap.Error(err))
			}
		}

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to process file in archive", zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
			return nil
		}
		defer r.Close()

		if err := processSource(ctx, selectReader(r, enc), filepath.Join(pathOut, filepath.FromSlash(name)), dst, log); err != nil {
			log.Error("Unable to process file in archive", zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
		}
		return nil
	})
	if err == nil && count == 0 {
		log.Debug("Nothing to process", zap.String("archive", path))
	}
	return err
}

// processSource parses single source and writes result. "src" is path of the
// source relative to the original one (base name for a single file) and it
// is used to build output name. "dst" is destination directory.
func processSource(ctx context.Context, r io.Reader, src, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var outputName string

	log.Info("Build starting", zap.String("from", src))
	defer func(start time.Time) {
		// a broken source must not stop processing of the rest
		if r := recover(); r != nil {
			log.Error("Build ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("build panic: %v", r)
		} else if rerr == nil {
			log.Info("Build completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("unable to read source (%s): %w", src, err)
	}

	doc, err := parseSource(src, data, env, log)
	if err != nil {
		return err
	}

	outputName = buildOutputPath(doc, src, dst, env)
	if err := prepareOutput(outputName, env.Overwrite, log); err != nil {
		return err
	}

	out, err := os.Create(outputName)
	if err != nil {
		return fmt.Errorf("unable to create output: %w", err)
	}
	if err := writeResult(out, doc.Root, env.Format, env.Cfg.Document.Output.XMLIndent); err != nil {
		return multierr.Append(err, out.Close())
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}

	env.Rpt.Store("result/"+filepath.ToSlash(src)+env.Format.Ext(), outputName)
	return nil
}

// parseSource builds finalized document. In strict mode any directive error
// fails the source, otherwise failed blocks are reported and dropped.
func parseSource(src string, data []byte, env *state.LocalEnv, log *zap.Logger) (*rst.Document, error) {
	parser := rst.NewParser(revealjs.NewRegistry(), log.Named("parser"), env.ParserOptions()...)
	doc, err := parser.Parse(src, string(data))
	if err != nil {
		if env.Cfg.Document.Parser.Strict {
			return nil, fmt.Errorf("unable to parse source (%s): %w", src, err)
		}
		errs := multierr.Errors(err)
		for _, e := range errs {
			log.Warn("Block dropped", zap.String("source", src), zap.Error(e))
		}
		log.Warn("Source has errors", zap.String("source", src), zap.Int("count", len(errs)))
	}
	if env.Rpt != nil {
		env.Rpt.StoreData("tree/"+filepath.ToSlash(src)+".txt", []byte(doc.Root.String()))
	}
	return doc, nil
}

// prepareOutput checks destination and makes sure directory exists.
func prepareOutput(name string, overwrite bool, log *zap.Logger) error {
	_, err := os.Stat(name)
	switch {
	case err == nil:
		if !overwrite {
			return fmt.Errorf("output file already exists: %s", name)
		}
		log.Warn("Overwriting existing file", zap.String("file", name))
		return os.Remove(name)
	case !os.IsNotExist(err):
		return err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	return nil
}

func writeResult(w io.Writer, root *doctree.Node, format config.OutputFmt, indent int) error {
	switch format {
	case config.OutputFmtTree:
		if _, err := io.WriteString(w, root.String()); err != nil {
			return fmt.Errorf("unable to write tree: %w", err)
		}
		return nil
	case config.OutputFmtXML:
		return doctree.WriteXML(w, root, indent)
	}
	return fmt.Errorf("unsupported output format %s", format)
}
