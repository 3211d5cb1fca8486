package state

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"revealit/config"
	"revealit/rst"
)

func TestContextWithEnv(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))
	if env == nil {
		t.Fatal("EnvFromContext() returned nil")
	}
	if env.start.IsZero() {
		t.Error("Environment start time not set")
	}
	if env.Format != config.OutputFmtTree {
		t.Errorf("Format = %v, want tree", env.Format)
	}
}

func TestEnvFromContext_Missing(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when env not in context")
		}
	}()
	EnvFromContext(context.Background())
}

func TestLocalEnv_Uptime(t *testing.T) {
	env := &LocalEnv{start: time.Now()}
	time.Sleep(10 * time.Millisecond)
	if uptime := env.Uptime(); uptime < 10*time.Millisecond || uptime > time.Second {
		t.Errorf("Uptime() = %v", uptime)
	}
}

func TestLocalEnv_StdLog(t *testing.T) {
	t.Run("with_logger", func(t *testing.T) {
		env := &LocalEnv{
			Log: zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))),
		}
		for i := 0; i < 3; i++ {
			env.RedirectStdLog()
			if env.restoreStdLog == nil {
				t.Fatalf("iteration %d: restoreStdLog not set", i)
			}
			env.RestoreStdLog()
		}
	})
	t.Run("without_logger", func(t *testing.T) {
		env := &LocalEnv{}
		env.RedirectStdLog()
		if env.restoreStdLog != nil {
			t.Error("Expected restoreStdLog to remain nil")
		}
		env.RestoreStdLog()
	})
}

func TestLocalEnv_ParserOptions(t *testing.T) {
	env := &LocalEnv{}
	if opts := env.ParserOptions(); opts != nil {
		t.Errorf("ParserOptions() without config = %v, want nil", opts)
	}

	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Document.Parser.Strict = true
	env.Cfg = cfg

	opts := env.ParserOptions()
	if len(opts) != 2 {
		t.Fatalf("ParserOptions() = %d options, want 2", len(opts))
	}

	// strict parser stops on the first failure and returns no partial result
	p := rst.NewParser(rst.NewRegistry(), zaptest.NewLogger(t), opts...)
	doc, err := p.Parse("slides.rst", ".. bogus::\n\nPara")
	if err == nil {
		t.Fatal("Parse() expected error in strict mode")
	}
	if doc != nil && len(doc.Root.Children) != 0 {
		t.Errorf("strict Parse() kept blocks after failure: %s", doc.Root)
	}
}
