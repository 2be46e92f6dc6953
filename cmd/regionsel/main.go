package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/regionsel/internal/config"
	"github.com/1broseidon/regionsel/internal/displayenv"
	"github.com/1broseidon/regionsel/internal/journal"
	"github.com/1broseidon/regionsel/internal/platform"
	"github.com/1broseidon/regionsel/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "select":
		os.Exit(runSelect(os.Args[2:]))
	case "displays":
		os.Exit(runDisplays(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "trigger":
		os.Exit(runTrigger(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: regionsel <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  select              Drag out a screen region and print it")
	fmt.Fprintln(w, "  displays            List attached displays")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  daemon              Run the hotkey daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  trigger             Start a selection through the daemon")
	fmt.Fprintln(w, "  reload              Reload the daemon configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "  config edit         Edit configuration interactively")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'regionsel <command> --help' for command-specific options.")
}

func isHelp(args []string) bool {
	return len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help")
}

// loadConfig loads the config file at path, or the default one.
func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

// newLogger builds the stderr text logger and installs it as the default.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

// openJournal opens the session journal, logging and disabling it on error.
func openJournal(cfg *config.Config) *journal.Journal {
	j, err := journal.New(journal.Config{
		Enabled:   cfg.Journal.Enabled,
		Level:     journal.ParseLevel(cfg.Journal.Level),
		FilePath:  cfg.JournalPath(),
		MaxSizeMB: cfg.Journal.MaxSizeMB,
		MaxFiles:  cfg.Journal.MaxFiles,
	})
	if err != nil {
		log.Printf("Warning: failed to open session journal: %v", err)
		return nil
	}
	return j
}

// newBackend resolves the display and returns the native backend.
func newBackend(cfg *config.Config) (platform.Backend, error) {
	display, err := displayenv.Apply(cfg.Display, cfg.XAuthority)
	if err != nil {
		return nil, err
	}
	return platform.NewBackend(platform.Options{
		Display:     display,
		GrabRetries: cfg.Input.GrabRetries,
	}), nil
}

func runDisplays(args []string) int {
	fs := flag.NewFlagSet("displays", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/regionsel/config.yaml)")
	asJSON := fs.Bool("json", false, "Print JSON")
	if isHelp(args) {
		fmt.Fprintln(os.Stdout, "Usage: regionsel displays [--json] [--path PATH]")
		return 0
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	backend, err := newBackend(res.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	reports, err := backend.Displays()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *asJSON {
		type displayJSON struct {
			ID       uint32  `json:"id"`
			Name     string  `json:"name"`
			Primary  bool    `json:"primary"`
			X        int     `json:"x"`
			Y        int     `json:"y"`
			Width    int     `json:"width"`
			Height   int     `json:"height"`
			Scale    float64 `json:"scale"`
			DPIScale float64 `json:"dpi_scale"`
		}
		out := make([]displayJSON, 0, len(reports))
		for _, r := range reports {
			d := r.Display
			out = append(out, displayJSON{d.ID, d.Name, d.Primary, d.X, d.Y, d.Width, d.Height, d.Scale, r.DPIScale})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	for _, r := range reports {
		d := r.Display
		primary := ""
		if d.Primary {
			primary = " primary"
		}
		fmt.Printf("%s\t%dx%d%+d%+d\tscale=%g dpi_scale=%g%s\n", d.Name, d.Width, d.Height, d.X, d.Y, d.Scale, r.DPIScale, primary)
	}
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || isHelp(args) {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  regionsel config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  regionsel config print [--path PATH] [--effective|--defaults]")
		fmt.Fprintln(os.Stderr, "  regionsel config explain [--path PATH] <yaml.path>")
		fmt.Fprintln(os.Stderr, "  regionsel config edit [--path PATH]")
		return 2
	}

	switch args[0] {
	case "edit":
		fs := flag.NewFlagSet("edit", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/regionsel/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if err := tui.Run(*path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/regionsel/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, f := range res.Files {
			fmt.Printf("# loaded: %s\n", f)
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/regionsel/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		fs.Bool("effective", false, "Print effective config (default)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			res, err := loadConfig(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			cfg = res.Config
		}
		data, err := cfg.Marshal()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	case "explain":
		fs := flag.NewFlagSet("explain", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/regionsel/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
			return 2
		}
		queryPath := fs.Arg(0)

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		value, src, err := config.Explain(res, queryPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		out, err := yaml.Marshal(value)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		fmt.Printf("path: %s\n", queryPath)
		fmt.Printf("source: %s\n", formatSource(src))
		fmt.Printf("value:\n%s", string(out))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceEnv:
		if src.Name != "" {
			return "env:" + src.Name
		}
		return "env"
	case config.SourceDefault:
		if src.Name != "" {
			return "default:" + src.Name
		}
		return "default"
	default:
		return string(src.Kind)
	}
}
