package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joseph-ayodele/taxdocs/internal/common"
	"github.com/joseph-ayodele/taxdocs/internal/core"
	"github.com/joseph-ayodele/taxdocs/internal/repository"
	"github.com/joseph-ayodele/taxdocs/internal/server"
)

const usage = `usage: taxdoc-batch <command> [flags]

commands:
  process    -year Y -input PATH [-recursive] [-exts .pdf,.png]
  reprocess  -id DOCUMENT_ID
  list       [-year Y] [-type W2|1099_INT|1099_DIV]
  summary    -year Y
  export     -year Y [-format xlsx|json] [-out FILE]
  info       -file PATH
  delete     -id DOCUMENT_ID

every command accepts -inmem to use a throwaway in-memory database
`

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	if len(os.Args) < 2 {
		printError(usage)
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		printError("unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	fs := flag.NewFlagSet(os.Args[1], flag.ExitOnError)
	inmem := fs.Bool("inmem", false, "use in-memory SQLite database")
	run := cmd(fs)
	_ = fs.Parse(os.Args[2:])

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := server.ConnectDB(ctx, cfg.Database, *inmem, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	stack, err := core.NewStack(cfg, db, logger)
	if err != nil {
		logger.Error("failed to wire pipeline", "error", err)
		os.Exit(1)
	}

	code, err := run(ctx, &env{stack: stack, db: db, logger: logger, out: os.Stdout})
	if err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		printError("Error: %v\n", err)
		if code == 0 {
			code = 1
		}
	}
	if code != 0 {
		db.Close()
		os.Exit(code)
	}
}

type env struct {
	stack  *core.Stack
	db     *repository.DB
	logger *slog.Logger
	out    *os.File
}

func (e *env) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(e.out, format, args...)
}

// runFunc runs a parsed command and returns the process exit code.
type runFunc func(ctx context.Context, e *env) (int, error)

var commands = map[string]func(fs *flag.FlagSet) runFunc{
	"process":   processCmd,
	"reprocess": reprocessCmd,
	"list":      listCmd,
	"summary":   summaryCmd,
	"export":    exportCmd,
	"info":      infoCmd,
	"delete":    deleteCmd,
}
