package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/MimeLyc/sales-copilot/internal/session"
)

// DeleteCmd removes stored sessions with their history
type DeleteCmd struct {
	Args struct {
		IDs []string `positional-arg-name:"session-id" required:"1"`
	} `positional-args:"yes"`

	root *Options `no-flag:"true"`
}

func (c *DeleteCmd) Execute(_ []string) error {
	a, err := newApp(c.root)
	if err != nil {
		return err
	}
	defer a.Close()

	return deleteSessions(context.Background(), a.manager, c.Args.IDs, os.Stdout)
}

// deleteSessions keeps going past failures and returns the first one
func deleteSessions(ctx context.Context, m *session.Manager, ids []string, out io.Writer) error {
	var first error
	for _, id := range ids {
		if err := m.Delete(ctx, id); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			if first == nil {
				first = err
			}
			continue
		}
		fmt.Fprintf(out, "deleted %s\n", id)
	}
	return first
}
