package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
)

// ListCmd prints the stored sessions, most recent first
type ListCmd struct {
	root *Options `no-flag:"true"`
}

func (c *ListCmd) Execute(_ []string) error {
	a, err := newApp(c.root)
	if err != nil {
		return err
	}
	defer a.Close()

	sessions, err := a.manager.List(context.Background())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTURNS\tUPDATED")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.ID, s.Model, s.TurnCount, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
