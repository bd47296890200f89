// Package main provides the Surf CLI: an autonomous browser-automation agent
// that takes a natural-language task, drives a real browser toward it, and
// streams its progress to the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/entrhq/surf/pkg/agent"
	"github.com/entrhq/surf/pkg/agent/tools"
	"github.com/entrhq/surf/pkg/browser"
	"github.com/entrhq/surf/pkg/config"
	"github.com/entrhq/surf/pkg/llm/openai"
	"github.com/entrhq/surf/pkg/logging"
	"github.com/entrhq/surf/pkg/types"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration.
type CLIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	ConfigFile  string
	Task        string
	Headless    bool
	ShowVersion bool
}

func main() {
	// A .env file is optional; environment variables win either way.
	_ = godotenv.Load()

	cli := parseFlags()
	if cli.ShowVersion {
		fmt.Printf("Surf v%s\n", version)
		return
	}
	if cli.Task == "" {
		fmt.Fprintln(os.Stderr, "a task is required (-task)")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
	}()

	if err := run(ctx, cli); err != nil {
		fmt.Fprintf(os.Stderr, "surf: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() *CLIConfig {
	cli := &CLIConfig{}

	flag.StringVar(&cli.APIKey, "api-key", os.Getenv("OPENAI_API_KEY"), "OpenAI API key")
	flag.StringVar(&cli.BaseURL, "base-url", os.Getenv("OPENAI_BASE_URL"), "OpenAI API base URL")
	flag.StringVar(&cli.Model, "model", "", "Model to use (overrides config)")
	flag.StringVar(&cli.ConfigFile, "config", "", "Path to configuration file (YAML)")
	flag.StringVar(&cli.Task, "task", "", "Task for the agent to perform (required)")
	flag.BoolVar(&cli.Headless, "headless", true, "Run the browser without a visible window")
	flag.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Surf - Autonomous Browser Agent\n\n")
		fmt.Fprintf(os.Stderr, "Usage: surf [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  surf -task \"open example.com and read the title\"\n")
		fmt.Fprintf(os.Stderr, "  surf -config surf.yaml -task \"find the cheapest flight to Lisbon\"\n\n")
	}

	flag.Parse()
	return cli
}

func run(ctx context.Context, cli *CLIConfig) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	log, err := logging.NewLogger("surf")
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: file logging unavailable: %v\n", err)
	}
	defer log.Close()

	provider, err := openai.NewProvider(cli.APIKey,
		openai.WithModel(cfg.Model),
		openai.WithBaseURL(cfg.BaseURL),
	)
	if err != nil {
		return err
	}

	session, err := browser.NewSession(cfg)
	if err != nil {
		return err
	}
	defer session.Close()

	allowlist, err := browser.NewAllowlist(cfg.AllowedDomains)
	if err != nil {
		return err
	}

	a, err := agent.New(provider, browser.NewState(session),
		agent.WithConfig(cfg),
		agent.WithLogger(log),
		agent.WithTools(
			browser.NewNavigateTool(session, allowlist),
			browser.NewClickTool(session),
			browser.NewFillTool(session),
			browser.NewExtractTool(session),
		),
	)
	if err != nil {
		return err
	}

	taskID := uuid.New().String()
	sub := a.Channels().GetOrCreate(taskID).Subscribe(printEvent)
	defer sub.Unsubscribe()

	go func() {
		<-ctx.Done()
		a.Abort(taskID)
	}()

	return a.Execute(ctx, taskID, cli.Task)
}

func loadConfig(cli *CLIConfig) (*config.Config, error) {
	cfg := config.Default()
	if cli.ConfigFile != "" {
		loaded, err := config.Load(cli.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if cli.Model != "" {
		cfg.Model = cli.Model
	}
	if cli.BaseURL != "" {
		cfg.BaseURL = cli.BaseURL
	}
	cfg.Headless = cli.Headless
	return cfg, nil
}

// printEvent renders progress on the terminal as events arrive.
func printEvent(e *types.AgentEvent) {
	switch e.Type {
	case types.EventTypeTaskStart:
		fmt.Printf("task: %s\n", e.Content)
	case types.EventTypeToolCall:
		fmt.Printf("  -> %s %v\n", e.ToolName, e.ToolInput)
	case types.EventTypeToolResult:
		if e.ToolName != tools.DoneName {
			fmt.Printf("  <- %s\n", e.ToolName)
		}
	case types.EventTypeHumanInputRequest:
		fmt.Printf("\nHUMAN INPUT NEEDED: %s\n", e.HumanInputRequest.Prompt)
		fmt.Printf("(request %s)\n\n", e.HumanInputRequest.RequestID)
	case types.EventTypeError:
		fmt.Printf("  error: %v\n", e.Error)
	case types.EventTypeAssistant:
		fmt.Printf("\n%s\n", e.Content)
	case types.EventTypeTaskDone:
		fmt.Println("task complete")
	case types.EventTypeTaskFailed:
		fmt.Printf("task failed: %v\n", e.Error)
	case types.EventTypeTaskCancelled:
		fmt.Printf("task cancelled: %s\n", e.Content)
	}
}
