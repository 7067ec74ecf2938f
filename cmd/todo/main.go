package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dori/todo/internal/app"
	"github.com/dori/todo/internal/config"
	"github.com/dori/todo/internal/model"
	"github.com/dori/todo/internal/server"
	"github.com/dori/todo/internal/ui"
	"github.com/dori/todo/internal/ui/theme"
)

var (
	version = "0.1.0"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) > 0 {
		switch args[0] {
		case "add":
			return handleAdd(args[1:], out)
		case "list", "ls":
			return handleList(args[1:], out)
		case "serve":
			return handleServe(args[1:])
		case "version":
			fmt.Fprintf(out, "todo v%s\n", version)
			return nil
		case "help", "-h", "--help":
			printHelp(out)
			return nil
		}
	}
	return runTUI(args)
}

func printHelp(out io.Writer) {
	help := `todo - a to-do list for the terminal

Usage:
  todo [flags]              Start the TUI
  todo add <text>           Add a todo
  todo list [--sort mode]   Print todos
  todo serve [--addr host:port]
                            Serve the todo API from the local database
  todo version              Show version
  todo help                 Show this help

Flags:
  --server <url>    Todo server base URL (local database when unset)
  --local           Use the local database even if a server is configured
  --timeout <dur>   Request timeout (default: none beyond the transport)
  --config <path>   Config file
  --data-dir <dir>  Data directory
  --db <path>       Database path
  --locale <tag>    Speech capture language (default ko-KR)
  --theme <name>    Theme (nord, dracula, gruvbox, catppuccin)
  --notify          Desktop notifications on failures
  --debug           Debug logging

Sort modes:
  all, latest, oldest, completed, notCompleted

Keybindings:
  Navigation:   ↑/↓ or j/k    Move cursor
                g/G           Go to top/bottom

  Actions:      a             Add new todo
                enter         Edit todo
                tab           Toggle done
                d             Delete (with confirm)
                s             Cycle sort
                m             Speak a todo
                r             Reload

  General:      ctrl+t        Cycle theme
                ?             Help
                q             Quit

Environment:
  TODO_SERVER, TODO_TOKEN, TODO_SPEECH_CMD and friends override the config file.`

	fmt.Fprintln(out, help)
}

func handleAdd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("todo add", flag.ContinueOnError)
	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New(`usage: todo add <text>` + "\n" + `example: todo add "Buy groceries"`)
	}

	// Join all args as the todo text
	text := strings.Join(fs.Args(), " ")
	if model.IsBlank(text) {
		return errors.New("todo text is blank")
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := requestContext(cfg.Timeout)
	defer cancel()

	if err := a.Controller.Add(ctx, text); err != nil {
		return fmt.Errorf("creating todo: %w", err)
	}
	items := a.Controller.State().Items
	fmt.Fprintf(out, "Created: %s\n", items[len(items)-1].Text)
	return nil
}

func handleList(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("todo list", flag.ContinueOnError)
	sortFlag := fs.String("sort", string(model.SortAll), "Sort mode")
	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}
	mode, err := model.ParseSortMode(*sortFlag)
	if err != nil {
		return err
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := requestContext(cfg.Timeout)
	defer cancel()

	if err := a.Controller.Load(ctx); err != nil {
		return fmt.Errorf("listing todos: %w", err)
	}
	if mode != model.SortAll {
		if err := a.Controller.SetSortMode(ctx, mode); err != nil {
			return fmt.Errorf("listing todos: %w", err)
		}
	}
	printTodos(out, a.Controller.DerivedView())
	return nil
}

// requestContext bounds a one-shot command by d; zero means no bound.
func requestContext(d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(context.Background(), d)
	}
	return context.WithCancel(context.Background())
}

func printTodos(out io.Writer, todos []model.Todo) {
	if len(todos) == 0 {
		fmt.Fprintln(out, "Nothing to do.")
		return
	}
	for _, t := range todos {
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		fmt.Fprintf(out, "%s %s  %s  (%s)\n", check, t.Text, t.Date(), t.ID)
	}
}

func handleServe(args []string) error {
	fs := flag.NewFlagSet("todo serve", flag.ContinueOnError)
	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}
	cfg.Local = true

	a, err := app.New(cfg, app.Exclusive(), app.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(a.Store, a.Log).ListenAndServe(ctx, cfg.ListenAddr)
}

func runTUI(args []string) error {
	cfg, err := config.Load(flag.NewFlagSet("todo", flag.ContinueOnError), args)
	if err != nil {
		return err
	}

	if t, ok := theme.ByName(cfg.Theme); ok {
		theme.SetTheme(t)
	}

	var opts []app.Option
	if cfg.UsesLocalStore() {
		opts = append(opts, app.Exclusive())
	}
	application, err := app.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	root := ui.NewRootModel(ctx, application)
	defer root.Close()

	p := tea.NewProgram(
		root,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err = p.Run()
	return err
}
