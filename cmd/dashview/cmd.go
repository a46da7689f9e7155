// Command dashview drives a dashboard from the terminal: it renders
// widgets, authors them, imports configurations and follows analysis jobs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"

	"github.com/GregMSThompson/analytics-dashboard/internal/client/dashboardapi"
	"github.com/GregMSThompson/analytics-dashboard/internal/config"
	"github.com/GregMSThompson/analytics-dashboard/pkg/logger"
)

// Command is one dashview subcommand.
type Command struct {
	Name        string
	Description string
	FlagSet     *flag.FlagSet
	Run         func(ctx context.Context, env *Env) error
}

// Env carries what every subcommand needs.
type Env struct {
	Cfg    *config.Config
	Log    *slog.Logger
	Client *dashboardapi.Client
}

var (
	apiURL   = flag.String("api", "", "dashboard API base URL (defaults to DASHBOARDAPI)")
	logLevel = flag.String("loglevel", "", "log level (defaults to LOGLEVEL)")

	commands = make(map[string]*Command)
)

func main() {
	defineCommands()
	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		usage()
		os.Exit(1)
	}
	cmd.FlagSet.Parse(args[1:])

	cfg := config.New()
	if *apiURL != "" {
		cfg.DashboardAPI = *apiURL
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	log := logger.New(cfg.LogLevel, func(l slog.Level) slog.Handler {
		return logger.NewCloudRunHandlerTo(os.Stderr, l)
	})
	env := &Env{Cfg: cfg, Log: log, Client: dashboardapi.New(cfg.DashboardAPI, nil, log)}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logger.ToContext(ctx, log)

	if err := cmd.Run(ctx, env); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: dashview [-api URL] <command> [options]")
	fmt.Fprintln(os.Stderr, "Available commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s\t%s\n", name, commands[name].Description)
	}
	flag.PrintDefaults()
}

func register(c *Command) {
	commands[c.Name] = c
}
