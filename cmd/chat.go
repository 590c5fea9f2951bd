package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/MimeLyc/sales-copilot/internal/session"
	"github.com/MimeLyc/sales-copilot/pkg/file"
)

var examplePrompts = []string{
	"I have a call with Sarah Johnson from TechCorp tomorrow. Her LinkedIn is www.linkedin.com/in/sarah-johnson and company website is https://techcorp.com",
	"Research this prospect: www.linkedin.com/in/john-doe and their company: https://example.org",
	"I need information about Acme Corp (https://acme.com) for my sales call",
}

const replHelp = `Commands:
  /examples      show example requests
  /use N         send example N
  /history       show this session's conversation
  /save [FILE]   save the last answer as markdown
  /clear         forget this session's conversation
  /help          show this help
  /exit          quit`

// ChatCmd runs an interactive session
type ChatCmd struct {
	root *Options `no-flag:"true"`
}

func (c *ChatCmd) Execute(_ []string) error {
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

	fmt.Printf("Sales Co-Pilot (session %s, model %s). Type /help for commands.\n", sess.ID(), a.cfg.LLM.Model)
	r := &repl{
		session: sess,
		save:    a.saver.Save,
		in:      os.Stdin,
		out:     os.Stdout,
	}
	return r.run(ctx)
}

// repl reads requests line by line and dispatches slash commands
type repl struct {
	session *session.Session
	save    func(content, filename string) (string, error)
	in      io.Reader
	out     io.Writer
}

func (r *repl) run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	r.prompt()
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			r.prompt()
			continue
		}
		if strings.HasPrefix(line, "/") {
			quit, err := r.command(ctx, line)
			if err != nil {
				fmt.Fprintf(r.out, "error: %v\n", err)
			}
			if quit {
				return nil
			}
			r.prompt()
			continue
		}
		r.ask(ctx, line)
		r.prompt()
	}
	return scanner.Err()
}

func (r *repl) prompt() {
	fmt.Fprint(r.out, "> ")
}

func (r *repl) ask(ctx context.Context, text string) {
	fmt.Fprintln(r.out, "Researching... This might take a minute")
	answer, err := r.session.Ask(ctx, text)
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "\n%s\n\n", answer)
}

func (r *repl) command(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	switch name {
	case "/exit", "/quit":
		return true, nil
	case "/help":
		fmt.Fprintln(r.out, replHelp)
	case "/examples":
		for i, p := range examplePrompts {
			fmt.Fprintf(r.out, "%d. %s\n", i+1, p)
		}
	case "/use":
		var n int
		if len(args) != 1 {
			return false, fmt.Errorf("usage: /use N")
		}
		if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil || n < 1 || n > len(examplePrompts) {
			return false, fmt.Errorf("no example %s", args[0])
		}
		fmt.Fprintln(r.out, examplePrompts[n-1])
		r.ask(ctx, examplePrompts[n-1])
	case "/history":
		history := r.session.History()
		if len(history) == 0 {
			fmt.Fprintln(r.out, "(no messages yet)")
		}
		for _, m := range history {
			fmt.Fprintf(r.out, "[%s] %s: %s\n", m.Timestamp.Local().Format("15:04:05"), m.Role, m.Content)
		}
	case "/save":
		answer := r.session.LastAnswer()
		if answer == "" {
			return false, fmt.Errorf("nothing to save yet")
		}
		filename := ""
		if len(args) > 0 {
			filename = file.EnsureExt(strings.Join(args, " "), ".md")
		}
		path, err := r.save(answer, filename)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(r.out, "saved to %s\n", path)
	case "/clear":
		if err := r.session.Clear(ctx); err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, "conversation cleared")
	default:
		return false, fmt.Errorf("unknown command %s, try /help", name)
	}
	return false, nil
}
