package config

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestGenerateRunConfigDefaults(t *testing.T) {
	config = &Config{}

	if err := GenerateRunConfig(); err != nil {
		t.Fatalf("GenerateRunConfig() error = %v", err)
	}

	if _, err := uuid.Parse(config.Job); err != nil {
		t.Errorf("Job = %q, want a generated UUID: %v", config.Job, err)
	}

	if want := "jobs/" + config.Job; config.JobPath != want {
		t.Errorf("JobPath = %q, want %q", config.JobPath, want)
	}

	if config.OutputDir != config.JobPath {
		t.Errorf("OutputDir = %q, want job path %q", config.OutputDir, config.JobPath)
	}

	if config.MaxConcurrentAssets != 8 {
		t.Errorf("MaxConcurrentAssets = %d, want 8", config.MaxConcurrentAssets)
	}

	if !strings.HasPrefix(config.UserAgent, "pagemirror/") {
		t.Errorf("UserAgent = %q, want pagemirror/ prefix", config.UserAgent)
	}
}

func TestGenerateRunConfigKeepsExplicitValues(t *testing.T) {
	config = &Config{
		Job:                 "archive-run",
		OutputDir:           "/tmp/mirror-out",
		MaxConcurrentAssets: 2,
		UserAgent:           "custom-agent/1.0",
	}

	if err := GenerateRunConfig(); err != nil {
		t.Fatalf("GenerateRunConfig() error = %v", err)
	}

	if config.Job != "archive-run" {
		t.Errorf("Job = %q, want archive-run", config.Job)
	}

	if config.JobPath != "jobs/archive-run" {
		t.Errorf("JobPath = %q, want jobs/archive-run", config.JobPath)
	}

	if config.OutputDir != "/tmp/mirror-out" {
		t.Errorf("OutputDir = %q, explicit value must be kept", config.OutputDir)
	}

	if config.MaxConcurrentAssets != 2 {
		t.Errorf("MaxConcurrentAssets = %d, want 2", config.MaxConcurrentAssets)
	}

	if config.UserAgent != "custom-agent/1.0" {
		t.Errorf("UserAgent = %q, explicit value must be kept", config.UserAgent)
	}
}
