package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwulff/jobwatch/internal/api"
	"github.com/jwulff/jobwatch/internal/app"
	"github.com/jwulff/jobwatch/internal/archive"
	"github.com/jwulff/jobwatch/internal/clip"
	"github.com/jwulff/jobwatch/internal/config"
	"github.com/jwulff/jobwatch/internal/logger"
	"github.com/jwulff/jobwatch/internal/mcpserver"
	"github.com/jwulff/jobwatch/internal/notify"
	"github.com/jwulff/jobwatch/internal/timeline"
)

var version = "dev"

const usage = `usage: jobwatch [flags] [command]

commands:
  tui              interactive monitor (default)
  export [-o FILE] write the job list and every job's logs to a SQLite file
  export -list -o FILE
                   print the latest export stored in FILE
  mcp              serve read-only monitor tools over stdio

flags:
`

func main() {
	var (
		configPath = flag.String("config", config.DefaultPath(), "config file")
		baseURL    = flag.String("base-url", "", "job service base URL (overrides config)")
	)
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := loadConfig(*configPath, *baseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jobwatch: %v\n", err)
		os.Exit(2)
	}

	cmd, args := "tui", []string(nil)
	if flag.NArg() > 0 {
		cmd, args = flag.Arg(0), flag.Args()[1:]
	}

	switch cmd {
	case "tui":
		err = runTUI(cfg)
	case "export":
		err = runExport(cfg, args)
	case "mcp":
		err = runMCP(cfg)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "jobwatch %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

// loadConfig layers file, environment and flags, then validates.
func loadConfig(path, baseURL string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	cfg.ApplyEnv(os.Getenv)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func runTUI(cfg config.Config) error {
	// stdout belongs to the terminal UI.
	logPath := cfg.LogFile
	if logPath == "" || logPath == "stderr" {
		logPath = filepath.Join(os.TempDir(), "jobwatch.log")
	}
	log, err := logger.New(cfg.LogMode, logPath)
	if err != nil {
		return err
	}
	defer log.Sync()
	log.Info("starting monitor", "base_url", cfg.BaseURL, "version", version)

	m := app.New(app.Deps{
		Service: api.New(cfg.BaseURL, cfg.RequestTimeout),
		Config:  cfg,
		Log:     log,
		Notes:   notify.NewQueue(cfg.NotificationTTL),
		Copier:  clip.New(cfg.ExportDir),
		Loc:     time.Local,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func runExport(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("o", "", "output file (default: export_dir/jobwatch-TIMESTAMP.db)")
	list := fs.Bool("list", false, "print the latest export in -o FILE instead of writing one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *list {
		if *out == "" {
			return fmt.Errorf("-list needs -o FILE")
		}
		return listExport(*out)
	}

	log, err := logger.New(cfg.LogMode, "stderr")
	if err != nil {
		return err
	}
	defer log.Sync()

	now := time.Now()
	path := *out
	if path == "" {
		if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
		path = filepath.Join(cfg.ExportDir, "jobwatch-"+now.Format("20060102-150405")+".db")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc := api.New(cfg.BaseURL, cfg.RequestTimeout)
	snap, err := archive.Collect(ctx, svc, svc.BaseURL(), now, log)
	if err != nil {
		return err
	}

	store, err := archive.Create(path)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.WriteSnapshot(ctx, snap)
	if err != nil {
		return err
	}
	log.Info("export written", "path", path, "export", id, "jobs", len(snap.Jobs), "with_logs", len(snap.Logs))
	fmt.Println(path)
	return nil
}

func listExport(path string) error {
	store, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Report(context.Background(), os.Stdout, time.Local)
}

func runMCP(cfg config.Config) error {
	// stdout carries the protocol.
	logPath := cfg.LogFile
	if logPath == "" {
		logPath = "stderr"
	}
	log, err := logger.New(cfg.LogMode, logPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	tools := &mcpserver.Tools{
		Service: api.New(cfg.BaseURL, cfg.RequestTimeout),
		Format:  timeline.Formatter{Loc: time.Local, Log: log.With("component", "timeline")},
		Log:     log.With("component", "mcp"),
	}
	log.Info("serving mcp", "base_url", cfg.BaseURL)
	return mcpserver.Serve(mcpserver.New(tools, version))
}
