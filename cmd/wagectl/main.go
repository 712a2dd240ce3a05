package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"wagevo/internal/domain/shift"
	"wagevo/internal/platform/config"
	"wagevo/internal/platform/kv"
)

// now is replaced in tests.
var now = time.Now

type command struct {
	summary string
	run     func(ctx context.Context, env *env, args []string) error
}

var commands = map[string]command{
	"in":      {"start a shift", runClockIn},
	"out":     {"end the running shift", runClockOut},
	"status":  {"show the running shift (-watch for a live clock)", runStatus},
	"history": {"list closed shifts", runHistory},
	"delete":  {"delete a closed shift", runDelete},
	"expense": {"record an expense or income", runExpense},
	"summary": {"show the earnings dashboard", runSummary},
	"export":  {"export shifts as csv or pdf", runExport},
	"token":   {"issue an API token for a worker", runToken},
	"compact": {"compact the local store", runCompact},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is what every command works with.
type env struct {
	cfg    config.Config
	db     kv.Store
	store  *shift.Store
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg := config.Load()

	fs := flag.NewFlagSet("wagectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.StoreBackend, "backend", cfg.StoreBackend, "Store backend: badger, sqlite, postgres")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory for local store files")
	fs.StringVar(&cfg.SQLitePath, "sqlite", cfg.SQLitePath, "SQLite database path (sqlite backend)")
	fs.StringVar(&cfg.DefaultOwnerID, "owner", cfg.DefaultOwnerID, "Worker whose shifts to use")
	fs.Float64Var(&cfg.WageRate, "rate", cfg.WageRate, "Hourly wage")
	fs.Usage = func() { usage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		usage(stdout, fs)
		return fmt.Errorf("missing command")
	}
	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		usage(stdout, fs)
		return fmt.Errorf("unknown command %q", name)
	}
	if cfg.StoreBackend == kv.BackendMemory {
		return fmt.Errorf("the memory backend does not persist between invocations")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	e := &env{cfg: cfg, stdin: stdin, stdout: stdout, stderr: stderr}
	if name != "token" {
		db, err := kv.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer db.Close()
		e.db = db
		e.store = shift.NewStore(db, cfg.DefaultOwnerID, nil)
		e.store.Clock = now
	}
	return cmd.run(ctx, e, fs.Args()[1:])
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: wagectl [flags] <command> [command flags]")
	fmt.Fprintln(w, "\nCommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w, "\nFlags:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

func subcommand(e *env, name string) *flag.FlagSet {
	fs := flag.NewFlagSet("wagectl "+name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

func location(cfg config.Config) *time.Location {
	loc, err := cfg.Location()
	if err != nil {
		return time.Local
	}
	return loc
}

func confirm(stdin io.Reader, stdout io.Writer, prompt string) bool {
	fmt.Fprint(stdout, prompt+" [y/N] ")
	var answer string
	if _, err := fmt.Fscanln(stdin, &answer); err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
