package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Open(ctx context.Context, args []string) error
	More(ctx context.Context) error
	Show(ctx context.Context) error
	Like(ctx context.Context, args []string) error
	Save(ctx context.Context, args []string) error
	React(ctx context.Context, args []string) error
	Attach(ctx context.Context, args []string) error
	Detach(ctx context.Context, args []string) error
	Attachments(ctx context.Context) error
	Discard(ctx context.Context) error
	Submit(ctx context.Context) error
	Wait(ctx context.Context) error
}

const helpText = `Feed:     open [collection], more, show, like <id>, save <id>, react <id> <reaction>
Composer: attach <path>..., detach <id>, files, submit, discard, wait
Other:    help, exit`

// runREPL reads one command per line and dispatches it to a. The prompt shows
// statusFn. Command errors are printed and the loop carries on; it exits on
// scanner EOF, on "exit" or "quit", or when ctx is cancelled.
//
// Collections are written kind[:identity], e.g. feed, saved, company:acme,
// tag:golang or author:u42.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("jw %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn(helpText)
		case "open":
			err = a.Open(ctx, args)
		case "more", "m":
			err = a.More(ctx)
		case "show", "l", "list":
			err = a.Show(ctx)
		case "like":
			err = a.Like(ctx, args)
		case "save":
			err = a.Save(ctx, args)
		case "react":
			err = a.React(ctx, args)
		case "attach":
			err = a.Attach(ctx, args)
		case "detach":
			err = a.Detach(ctx, args)
		case "files":
			err = a.Attachments(ctx)
		case "submit":
			err = a.Submit(ctx)
		case "discard":
			err = a.Discard(ctx)
		case "wait":
			err = a.Wait(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
		if err != nil {
			printlnFn("error:", err)
		}
	}
}
