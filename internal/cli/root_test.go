package cli

import (
	"testing"

	"swarmgrid/internal/config"
)

func TestMergeConfigPrefersOverrideOverBase(t *testing.T) {
	base := config.Default()
	override := config.Config{Agents: 3, Drop: 0.2, OutTrace: "custom.csv"}

	merged := mergeConfig(base, override)

	if merged.Agents != 3 || merged.Drop != 0.2 || merged.OutTrace != "custom.csv" {
		t.Fatalf("override fields did not win: %+v", merged)
	}
	if merged.Seed != base.Seed || merged.MaxSteps != base.MaxSteps {
		t.Fatalf("base fields left unset by override should be preserved: %+v", merged)
	}
}

func TestMergeConfigPrefersOverrideLogFile(t *testing.T) {
	base := config.Default()
	override := config.Config{LogFile: "events.jsonl"}

	merged := mergeConfig(base, override)

	if merged.LogFile != "events.jsonl" {
		t.Fatalf("expected override log file to win, got %q", merged.LogFile)
	}
}

func TestValidateConfigRejectsMissingMap(t *testing.T) {
	cfg := config.Default()
	if err := validateConfig(cfg); err == nil {
		t.Fatalf("expected an error when --map is unset")
	}
}

func TestValidateConfigRejectsNonPositiveAgents(t *testing.T) {
	cfg := config.Default()
	cfg.Map = "map.txt"
	cfg.Agents = 0
	if err := validateConfig(cfg); err == nil {
		t.Fatalf("expected an error for zero agents")
	}
}

func TestValidateConfigRejectsDropOutOfRange(t *testing.T) {
	cfg := config.Default()
	cfg.Map = "map.txt"
	cfg.Drop = 1.5
	if err := validateConfig(cfg); err == nil {
		t.Fatalf("expected an error for an out-of-range drop probability")
	}
}

func TestValidateConfigAcceptsWellFormedConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Map = "map.txt"
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("unexpected error for a valid config: %v", err)
	}
}
