// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"revealit/config"
	"revealit/rst"
)

type envKey struct{}

// LocalEnv is per-run state shared by all subcommands. It is created empty
// before command line parsing and filled by the root Before hook.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report // nil unless --debug
	Log *zap.Logger

	// NoDirs flattens output, trees for all sources go directly into
	// destination directory.
	NoDirs bool
	// Overwrite allows replacing existing output files.
	Overwrite bool
	// Format of produced trees, configured value unless --to is given.
	Format config.OutputFmt
	// CodePage decodes non UTF-8 file names inside zip archives, nil when
	// names are used as stored.
	CodePage encoding.Encoding

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &LocalEnv{start: time.Now()})
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// ParserOptions returns parser settings from configuration, defaults are
// used when configuration is not loaded.
func (e *LocalEnv) ParserOptions() []rst.Option {
	if e.Cfg == nil {
		return nil
	}
	return []rst.Option{
		rst.WithTabWidth(e.Cfg.Document.Parser.TabWidth),
		rst.WithStrict(e.Cfg.Document.Parser.Strict),
	}
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
