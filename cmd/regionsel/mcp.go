package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/regionsel/internal/capture"
	"github.com/1broseidon/regionsel/internal/mcp"
	"github.com/1broseidon/regionsel/internal/selector"
)

func printMCPUsage() {
	fmt.Fprintln(os.Stderr, "Usage: regionsel mcp serve [--path FILE]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Serve the select_region and list_displays tools over MCP on stdio.")
}

func runMCP(args []string) int {
	if len(args) == 0 || isHelp(args) {
		printMCPUsage()
		if len(args) == 0 {
			return 2
		}
		return 0
	}
	if args[0] != "serve" {
		fmt.Fprintf(os.Stderr, "Unknown mcp subcommand: %s\n\n", args[0])
		printMCPUsage()
		return 2
	}
	return runMCPServe(args[1:])
}

func runMCPServe(args []string) int {
	fs := flag.NewFlagSet("mcp serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/regionsel/config.yaml)")
	fs.Usage = func() {
		printMCPUsage()
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "mcp serve takes no arguments")
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg := res.Config
	logger := newLogger(cfg.LogLevel)

	backend, err := newBackend(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	j := openJournal(cfg)
	defer j.Close()

	sel := selector.New(backend,
		selector.WithConfig(cfg.SelectorConfig()),
		selector.WithLogger(logger),
		selector.WithMetrics(selector.Tee(selector.SlogMetrics{Logger: logger}, j)),
	)

	srv, err := mcp.NewServer(cfg, mcp.Deps{
		Selector: sel,
		Grab:     capture.Virtual,
		Displays: backend.Displays,
		Lock:     acquireSessionLock,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		return 1
	}
	return 0
}
