package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattjoyce/redistq/internal/admission"
	"github.com/mattjoyce/redistq/internal/api"
	"github.com/mattjoyce/redistq/internal/auth"
	"github.com/mattjoyce/redistq/internal/cmclient"
	"github.com/mattjoyce/redistq/internal/config"
	"github.com/mattjoyce/redistq/internal/content"
	"github.com/mattjoyce/redistq/internal/controller"
	"github.com/mattjoyce/redistq/internal/events"
	"github.com/mattjoyce/redistq/internal/journal"
	"github.com/mattjoyce/redistq/internal/log"
	"github.com/mattjoyce/redistq/internal/tui"
)

const version = "0.3.1"

// Exit codes: 1 for usage/config problems, 2 when the backend session cannot
// be established.
const (
	exitOK      = 0
	exitUsage   = 1
	exitSession = 2
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitUsage)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "run":
		os.Exit(runRun(args))
	case "config":
		os.Exit(runConfigNoun(args))
	case "watch":
		os.Exit(runWatch(args))
	case "token":
		os.Exit(runToken(args))
	case "version":
		fmt.Printf("redistq version %s\n", version)
		os.Exit(exitOK)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(exitOK)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(exitUsage)
	}
}

func printUsage() {
	fmt.Print(`redistq - Throttled content redistribution controller

Usage:
  redistq <command> [flags]

Commands:
  run           Dispatch the work list against the backend
  config check  Validate configuration syntax and integrity
  config lock   Authorize current config state (update checksum)
  token set     Store the backend token in the OS keyring
  watch         Live terminal monitor for a running controller
  version       Show version information
  help          Show this help message

Run 'redistq <command> -h' for command-specific flags.
`)
}

func runRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "./config.yaml", "path to configuration file")
	listPath := fs.String("list", "", "work list file (overrides worklist.path)")
	maxConcurrent := fs.Int("max-concurrent", 0, "override throttle.max_concurrent")
	delayMinutes := fs.Int("delay-minutes", -1, "override throttle.delay, in minutes")
	_ = fs.Parse(args)

	// Computed once at startup; names the log file and stamps the journal.
	startedAt := time.Now().UTC()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}
	if err := config.VerifyIntegrity(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}

	if *listPath != "" {
		cfg.WorkList.Path = *listPath
	}
	if *maxConcurrent > 0 {
		cfg.Throttle.MaxConcurrent = *maxConcurrent
	}
	if *delayMinutes >= 0 {
		cfg.Throttle.Delay = time.Duration(*delayMinutes) * time.Minute
	}

	var logWriter io.Writer = os.Stdout
	if cfg.Log.Dir != "" {
		f, err := log.OpenLogFile(cfg.Log.Dir, startedAt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitUsage
		}
		defer f.Close()
		logWriter = io.MultiWriter(os.Stdout, f)
	}
	log.Setup(log.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Writer: logWriter})
	logger := log.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	token, err := auth.Token(cfg.Site.TokenEnv, cfg.Site.Code)
	if err != nil {
		logger.Error("failed to resolve backend token", "error", err)
		return exitSession
	}

	client := cmclient.New(cmclient.Options{
		BaseURL:  cfg.Site.URL,
		SiteCode: cfg.Site.Code,
		Token:    token,
		Timeout:  cfg.Site.Timeout,
	})
	if err := client.Ping(ctx); err != nil {
		logger.Error("backend session failed", "error", err)
		return exitSession
	}

	list, err := content.Load(ctx, cfg.WorkList.Path, client)
	if err != nil {
		logger.Error("failed to load work list", "error", err)
		return exitUsage
	}

	db, err := journal.Open(ctx, cfg.Journal.Path)
	if err != nil {
		logger.Error("failed to open journal", "error", err)
		return exitUsage
	}
	defer db.Close()

	recorder, err := journal.NewRecorder(ctx, db, cfg.Site.Code, list.Len(), startedAt)
	if err != nil {
		logger.Error("failed to start journal run", "error", err)
		return exitUsage
	}
	logger.Info("journal run opened", "run_id", recorder.RunID())

	hub := events.NewHub(256)
	ctrl := controller.New(controller.Config{
		Admission: admission.Config{
			InProgressThreshold: cfg.Throttle.InProgressThreshold,
			TargetThreshold:     cfg.Throttle.TargetThreshold,
			MaxConcurrent:       cfg.Throttle.MaxConcurrent,
		},
		Delay: cfg.Throttle.Delay,
	}, client, hub, recorder)

	if cfg.API.Enabled {
		srv := api.New(api.Config{Listen: cfg.API.Listen, APIKey: cfg.API.APIKey}, ctrl, hub, log.WithComponent("api"))
		go func() {
			if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("status API stopped", "error", err)
			}
		}()
	}

	res, runErr := ctrl.Run(ctx, list)

	outcome := "completed"
	if runErr != nil {
		outcome = "cancelled"
	}
	if err := recorder.Finish(context.Background(), outcome, res.ItemsDispatched, res.ItemsSkipped, res.Ticks); err != nil {
		logger.Error("failed to finalize journal run", "error", err)
	}

	if runErr != nil {
		logger.Warn("run interrupted", "error", runErr,
			"dispatched", res.ItemsDispatched, "skipped", res.ItemsSkipped)
		return exitUsage
	}
	return exitOK
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: redistq config <check|lock> [flags]")
		return exitUsage
	}
	action := args[0]
	fs := flag.NewFlagSet("config "+action, flag.ExitOnError)
	configPath := fs.String("config", "./config.yaml", "path to configuration file")
	_ = fs.Parse(args[1:])

	switch action {
	case "check":
		if _, err := config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			return exitUsage
		}
		if err := config.VerifyIntegrity(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			return exitUsage
		}
		fmt.Println("OK: configuration is valid")
		return exitOK
	case "lock":
		checksumPath, err := config.Lock(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitUsage
		}
		fmt.Printf("Locked: wrote %s\n", checksumPath)
		return exitOK
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return exitUsage
	}
}

func runToken(args []string) int {
	if len(args) < 1 || args[0] != "set" {
		fmt.Fprintln(os.Stderr, "Usage: redistq token set -site <code>")
		return exitUsage
	}
	fs := flag.NewFlagSet("token set", flag.ExitOnError)
	site := fs.String("site", "", "site code the token belongs to")
	_ = fs.Parse(args[1:])

	if *site == "" {
		fmt.Fprintln(os.Stderr, "Error: -site is required")
		return exitUsage
	}

	fmt.Fprint(os.Stderr, "Token: ")
	var token string
	if _, err := fmt.Scanln(&token); err != nil || token == "" {
		fmt.Fprintln(os.Stderr, "Error: no token read")
		return exitUsage
	}
	if err := auth.StoreToken(*site, token); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}
	fmt.Printf("Stored token for site %s\n", *site)
	return exitOK
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiURL := fs.String("api", "http://127.0.0.1:8671", "status API base URL")
	apiKey := fs.String("api-key", "", "status API bearer token")
	_ = fs.Parse(args)

	p := tea.NewProgram(tui.New(*apiURL, *apiKey), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}
	return exitOK
}
