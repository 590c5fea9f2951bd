package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
)

// AskCmd answers one request in a session and prints the answer
type AskCmd struct {
	Save string `short:"o" long:"output" description:"also save the answer to this markdown file"`
	Args struct {
		Request []string `positional-arg-name:"request" required:"1"`
	} `positional-args:"yes"`

	root *Options `no-flag:"true"`
}

func (c *AskCmd) Execute(_ []string) error {
	a, err := newApp(c.root)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sess, err := a.manager.Open(ctx, c.root.Session)
	if err != nil {
		return err
	}
	answer, err := sess.Ask(ctx, strings.Join(c.Args.Request, " "))
	if err != nil {
		return err
	}
	fmt.Println(answer)

	if c.Save != "" {
		path, err := a.saver.Save(answer, c.Save)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "saved to %s\n", path)
	}
	fmt.Fprintf(os.Stderr, "session: %s\n", sess.ID())
	return nil
}
