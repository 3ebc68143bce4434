// Package main is the entry point for the fieldcheck CLI and server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldcheck/config"
	"fieldcheck/internal/app"
	"fieldcheck/internal/check"
	"fieldcheck/internal/core"
	"fieldcheck/internal/history"
	"fieldcheck/internal/logging"
	"fieldcheck/internal/version"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailed  = 1 // a report failed
	exitUsage   = 2
	exitRuntime = 3 // config, transport, or storage error
)

const usage = `Usage: fieldcheck [-config path] <command> [arg]

Commands:
  serve                  run the HTTP API
  account <name>         validate /user/<name>/about
  submission <id>        validate a submission
  comment <id>           validate the first comment of a submission
  frontpage              validate media embeds on the front page
  types                  print the contracts discovered for each type
  history                print recent failing reports
`

// commandArgs maps each command to the number of positional arguments it takes.
var commandArgs = map[string]int{
	"serve":      0,
	"account":    1,
	"submission": 1,
	"comment":    1,
	"frontpage":  0,
	"types":      0,
	"history":    0,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fieldcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", "", "Path to config.yaml")
	versionFlag := fs.Bool("version", false, "Print version information")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if *versionFlag {
		fmt.Fprintln(stdout, version.Info())
		return exitOK
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}
	command, rest := fs.Arg(0), fs.Args()[1:]

	// Usage errors are reported before any backend is opened.
	wantArgs, known := commandArgs[command]
	if !known {
		fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		fs.Usage()
		return exitUsage
	}
	if len(rest) != wantArgs {
		if wantArgs == 0 {
			fmt.Fprintf(stderr, "%s takes no arguments\n\n", command)
		} else {
			fmt.Fprintf(stderr, "%s requires exactly one argument\n\n", command)
		}
		fs.Usage()
		return exitUsage
	}
	var arg string
	if wantArgs == 1 {
		arg = rest[0]
	}

	loaded, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return exitRuntime
	}
	logging.Setup(loaded.Config.Log.Level, loaded.Config.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, app.Config{AppConfig: loaded})
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		return exitRuntime
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := application.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	// History entries written by one invocation share a request ID.
	ctx, requestID := core.EnsureRequestID(ctx)
	slog.Debug("running command", "command", command, "request_id", requestID)

	checker := application.Checker()
	switch command {
	case "serve":
		return serve(ctx, application, loaded.Config.Server.Port)
	case "account":
		return report(stdout, func() (*check.Result, error) { return checker.Account(ctx, arg) })
	case "submission":
		return report(stdout, func() (*check.Result, error) { return checker.Submission(ctx, arg) })
	case "comment":
		return report(stdout, func() (*check.Result, error) { return checker.FirstComment(ctx, arg) })
	case "frontpage":
		return report(stdout, func() (*check.Result, error) { return checker.FrontPageMedia(ctx) })
	case "types":
		return printTypes(stdout, application)
	default: // "history"
		return printHistory(ctx, stdout, application.HistoryReader())
	}
}

func serve(ctx context.Context, application *app.App, port string) int {
	slog.Info("starting fieldcheck",
		"version", version.Version,
		"commit", version.Commit,
		"build_date", version.Date,
	)
	application.LogServerSecurity()

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Start(":" + port)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("server error", "error", err)
			return exitRuntime
		}
		return exitOK
	case <-ctx.Done():
		slog.Info("shutting down server...")
		return exitOK
	}
}

// report runs one check and prints its result as JSON.
func report(w io.Writer, fn func() (*check.Result, error)) int {
	result, err := fn()
	if err != nil {
		slog.Error("check failed", "error", err)
		return exitRuntime
	}

	if err := writeJSON(w, result); err != nil {
		slog.Error("failed to write result", "error", err)
		return exitRuntime
	}
	if !result.OK() {
		return exitFailed
	}
	return exitOK
}

func printTypes(w io.Writer, application *app.App) int {
	registry := application.Registry()
	for _, id := range registry.Types() {
		fmt.Fprintf(w, "%s\n", id)
		for _, c := range registry.Discover(id) {
			nullable := ""
			if c.Nullable {
				nullable = " (nullable)"
			}
			fmt.Fprintf(w, "  %s%s\n", c, nullable)
		}
	}
	return exitOK
}

func printHistory(ctx context.Context, w io.Writer, reader history.Reader) int {
	if reader == nil {
		slog.Error("history is disabled; set history.enabled or HISTORY_ENABLED=true")
		return exitRuntime
	}
	entries, err := reader.Recent(ctx, history.Query{FailuresOnly: true, Limit: 20})
	if err != nil {
		slog.Error("failed to read history", "error", err)
		return exitRuntime
	}
	if err := writeJSON(w, entries); err != nil {
		slog.Error("failed to write history", "error", err)
		return exitRuntime
	}
	return exitOK
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Join(errors.New("encoding output"), err)
	}
	return nil
}
