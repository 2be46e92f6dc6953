package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/regionsel/internal/config"
	"github.com/1broseidon/regionsel/internal/daemon"
	"github.com/1broseidon/regionsel/internal/hotkeys"
	"github.com/1broseidon/regionsel/internal/ipc"
)

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/regionsel/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: regionsel daemon [--path FILE]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Register the selection hotkey and serve status, trigger and reload over IPC.")
		fmt.Fprintln(os.Stderr, "SIGHUP reloads the configuration.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
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

	d := daemon.New(cfg, daemon.Options{
		Logger:   logger,
		Load:     reloader(*path),
		Displays: backend.Displays,
	})

	host, err := backend.Hotkeys()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect for hotkeys: %v\n", err)
		return 1
	}
	defer host.Disconnect()

	handler, err := hotkeys.NewHandler(host)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := handler.Register(cfg.Hotkey, func() error { return d.Trigger(false) }); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to register hotkey %s: %v\n", cfg.Hotkey, err)
		return 1
	}
	log.Printf("Selection hotkey registered: %s", cfg.Hotkey)

	ipcServer, err := ipc.NewServer(d)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create IPC server: %v\n", err)
		return 1
	}
	if err := ipcServer.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start IPC server: %v\n", err)
		return 1
	}
	defer ipcServer.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGHUP:
				logger.Info("received SIGHUP, reloading config")
				if err := d.Reload(); err != nil {
					logger.Error("config reload failed", "error", err)
				}
			case os.Interrupt, syscall.SIGTERM:
				logger.Info("shutting down regionsel daemon")
				ipcServer.Stop()
				d.Shutdown()
				host.Disconnect()
				os.Exit(0)
			}
		}
	}()

	log.Println("Entering event loop...")
	host.EventLoop()
	return 0
}

// reloader loads from path when set, otherwise from the default locations.
func reloader(path string) func() (*config.Config, error) {
	if path == "" {
		return config.Load
	}
	return func() (*config.Config, error) {
		res, err := config.LoadFromPath(path)
		if err != nil {
			return nil, err
		}
		return res.Config, nil
	}
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: regionsel status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("hotkey:         %s\n", status.Hotkey)
	fmt.Printf("busy:           %v\n", status.Busy)
	fmt.Printf("triggers:       %d\n", status.Triggers)
	if status.LastOutcome != "" {
		fmt.Printf("last_outcome:   %s\n", status.LastOutcome)
	}
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func runTrigger(args []string) int {
	fs := flag.NewFlagSet("trigger", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	freeze := fs.Bool("capture", false, "Freeze the screen and capture the selection")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: regionsel trigger [--capture]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Ask the daemon to start a selection, as if the hotkey was pressed.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "trigger takes no arguments")
		fs.Usage()
		return 2
	}

	if err := ipc.NewClient().Trigger(*freeze); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: regionsel reload")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Ask the daemon to reload its configuration.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "reload takes no arguments")
		fs.Usage()
		return 2
	}

	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("Config reloaded")
	return 0
}
