package extract

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Strategy is one configuration variant for invoking the extraction tool.
// Strategies are data, not code branches: the resolver walks the list in
// declared order, and the first one that produces parseable metadata wins.
// No strategy is retried within itself.
type Strategy struct {
	Name    string
	Args    []string
	Timeout time.Duration
}

const (
	defaultStrategyTimeout = 30 * time.Second
	maxStrategyTimeout     = 120 * time.Second
)

// DefaultStrategies returns the built-in fallback chain. The impersonation
// variant is only included when the installed tool supports it; slower, more
// thorough variants get longer budgets.
func DefaultStrategies(impersonation bool) []Strategy {
	strategies := []Strategy{
		{Name: "default", Timeout: 30 * time.Second},
		{
			Name:    "android-client",
			Args:    []string{"--extractor-args", "youtube:player_client=android"},
			Timeout: 60 * time.Second,
		},
	}
	if impersonation {
		strategies = append(strategies, Strategy{
			Name:    "impersonate",
			Args:    []string{"--impersonate", "chrome"},
			Timeout: 90 * time.Second,
		})
	}
	strategies = append(strategies, Strategy{
		Name:    "minimal",
		Args:    []string{"--no-check-certificates"},
		Timeout: 120 * time.Second,
	})
	return strategies
}

type strategyEntry struct {
	Name           string   `yaml:"name"`
	Args           []string `yaml:"args"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

type strategyFile struct {
	Strategies []strategyEntry `yaml:"strategies"`
}

// LoadStrategies reads an ordered strategy list from a YAML file. Missing
// timeouts default to 30s; anything above the 120s ceiling is clamped.
func LoadStrategies(path string) ([]Strategy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategies: %w", err)
	}
	var file strategyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse strategies yaml: %w", err)
	}
	if len(file.Strategies) == 0 {
		return nil, fmt.Errorf("no strategies defined in %s", path)
	}
	strategies := make([]Strategy, 0, len(file.Strategies))
	for i, entry := range file.Strategies {
		if entry.Name == "" {
			return nil, fmt.Errorf("strategy %d has no name", i)
		}
		timeout := time.Duration(entry.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = defaultStrategyTimeout
		}
		if timeout > maxStrategyTimeout {
			timeout = maxStrategyTimeout
		}
		strategies = append(strategies, Strategy{
			Name:    entry.Name,
			Args:    entry.Args,
			Timeout: timeout,
		})
	}
	return strategies, nil
}
