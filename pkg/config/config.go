// Package config holds the Surf agent configuration: loop budgets, handshake
// timing, model settings, and the navigation allowlist. Values load from a
// YAML file with sensible defaults for anything unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full agent configuration.
type Config struct {
	// Model is the model name for both the planner and executor calls.
	Model string `yaml:"model"`

	// BaseURL overrides the model API base URL (empty uses the default).
	BaseURL string `yaml:"base_url"`

	// MaxPlanningIterations caps outer-loop planner invocations per task.
	MaxPlanningIterations int `yaml:"max_planning_iterations"`

	// MaxExecutorIterations caps executor sub-iterations per plan.
	MaxExecutorIterations int `yaml:"max_executor_iterations"`

	// MaxActionsPerPlan caps the number of actions a plan may contain.
	MaxActionsPerPlan int `yaml:"max_actions_per_plan"`

	// ReasoningWindow is how many recent reasoning entries feed the planner.
	ReasoningWindow int `yaml:"reasoning_window"`

	// MaxPromptTokens bounds the planner's history transcript; above it the
	// transcript is truncated from the oldest end.
	MaxPromptTokens int `yaml:"max_prompt_tokens"`

	// HumanInputPollInterval is how often the handshake polls for a response.
	HumanInputPollInterval time.Duration `yaml:"human_input_poll_interval"`

	// HumanInputTimeout bounds how long the handshake waits for a human.
	HumanInputTimeout time.Duration `yaml:"human_input_timeout"`

	// AllowedDomains is a list of glob patterns for navigable hosts. Empty
	// means all hosts are allowed.
	AllowedDomains []string `yaml:"allowed_domains"`

	// Headless controls whether the browser runs without a visible window.
	Headless bool `yaml:"headless"`

	// ScreenshotQuality is the JPEG quality (1-100) of state screenshots.
	ScreenshotQuality int `yaml:"screenshot_quality"`
}

// Default returns the configuration with its default values.
func Default() *Config {
	return &Config{
		Model:                  "gpt-4o",
		MaxPlanningIterations:  50,
		MaxExecutorIterations:  3,
		MaxActionsPerPlan:      5,
		ReasoningWindow:        10,
		MaxPromptTokens:        32000,
		HumanInputPollInterval: 500 * time.Millisecond,
		HumanInputTimeout:      10 * time.Minute,
		Headless:               true,
		ScreenshotQuality:      60,
	}
}

// Load reads a YAML config file, applying defaults for unset fields.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks budget and timing fields for sane values.
func (c *Config) Validate() error {
	if c.MaxPlanningIterations <= 0 {
		return fmt.Errorf("max_planning_iterations must be positive, got %d", c.MaxPlanningIterations)
	}
	if c.MaxExecutorIterations <= 0 {
		return fmt.Errorf("max_executor_iterations must be positive, got %d", c.MaxExecutorIterations)
	}
	if c.MaxActionsPerPlan <= 0 {
		return fmt.Errorf("max_actions_per_plan must be positive, got %d", c.MaxActionsPerPlan)
	}
	if c.HumanInputPollInterval <= 0 {
		return fmt.Errorf("human_input_poll_interval must be positive, got %s", c.HumanInputPollInterval)
	}
	if c.HumanInputTimeout <= 0 {
		return fmt.Errorf("human_input_timeout must be positive, got %s", c.HumanInputTimeout)
	}
	return nil
}
