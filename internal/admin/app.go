// Package admin is a local maintenance console for stored user profiles.
// It operates directly on the state files in the data directory, without
// going through the HTTP API, so it works while the server is down.
package admin

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/dmitrijs2005/qubicboard/internal/filex"
	"github.com/dmitrijs2005/qubicboard/internal/server/config"
	"github.com/dmitrijs2005/qubicboard/internal/server/repositories/states"
)

type App struct {
	repo states.Repository
	out  io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	dir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		log.Printf("error preparing data directory: %s", err.Error())
		return nil, err
	}
	return &App{repo: states.NewFileRepository(dir), out: os.Stdout}, nil
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}

func (a *App) Root(ctx context.Context) {

	log.Println("QubicBoard admin console (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Fprint(a.out, "qbadm> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			fmt.Fprintln(a.out, "Available commands: list, show <user>, setpw <user>, clearpw <user>, reset <user>, exit")

		case "list":
			a.list(ctx)

		case "show":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: show <user>")
				continue
			}
			a.show(ctx, args[0])

		case "setpw":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: setpw <user>")
				continue
			}
			a.setPassword(ctx, args[0])

		case "clearpw":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: clearpw <user>")
				continue
			}
			a.clearPassword(ctx, args[0])

		case "reset":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: reset <user>")
				continue
			}
			a.reset(ctx, args[0])

		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return

		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}
	}

}
