package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"revealit/doctree"
	"revealit/state"
)

// Inspect reads XML produced by build and prints readable tree dump. It is
// also a quick check that output is consumable by renderers.
func Inspect(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("inspect")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("unable to open source: %w", err)
	}
	defer f.Close()

	return inspect(f, cmd.Root().Writer, cmd.String("kind"), log)
}

func inspect(r io.Reader, w io.Writer, kind string, log *zap.Logger) error {
	root, err := doctree.ReadXML(r)
	if err != nil {
		return err
	}

	nodes := []*doctree.Node{root}
	if kind != "" {
		nodes = doctree.Collect(root, doctree.Kind(kind))
	}
	log.Debug("Tree loaded", zap.Int("nodes", len(nodes)), zap.String("kind", kind))
	for _, n := range nodes {
		if _, err := io.WriteString(w, n.String()); err != nil {
			return err
		}
	}
	return nil
}
