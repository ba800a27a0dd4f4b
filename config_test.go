package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))

	cfg := LoadConfig()

	if cfg.Lookback != 50 {
		t.Fatalf("unexpected lookback default: %d", cfg.Lookback)
	}
	if cfg.FollowupDays != 5 {
		t.Fatalf("unexpected followup_days default: %d", cfg.FollowupDays)
	}
	if cfg.LLMBatchSize != 10 {
		t.Fatalf("unexpected llm_batch_size default: %d", cfg.LLMBatchSize)
	}
	if !cfg.UseLLM {
		t.Fatal("use_llm must default to true")
	}
	if cfg.CacheDBPath != "./copilot.db" {
		t.Fatalf("unexpected cache db path default: %q", cfg.CacheDBPath)
	}
	if cfg.ReportOutputDir != "./reports" {
		t.Fatalf("unexpected report output dir default: %q", cfg.ReportOutputDir)
	}
	if cfg.SyncSchedule != "0 6 * * *" || cfg.DigestSchedule != "0 7 * * *" {
		t.Fatalf("unexpected schedule defaults: %q / %q", cfg.SyncSchedule, cfg.DigestSchedule)
	}
	if len(cfg.FinalCategories) != 3 {
		t.Fatalf("unexpected final categories default: %v", cfg.FinalCategories)
	}
}

func TestLoadConfigYAMLAndEnvOverride(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
owner_email: "yaml@mydomain.com"
lookback: 25
groq_api_key: "yaml-groq"
use_llm: false
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", cfgPath)
	t.Setenv("LOOKBACK", "30")
	t.Setenv("GEMINI_API_KEY", "env-gemini")
	t.Setenv("USE_LLM", "true")

	cfg := LoadConfig()

	if cfg.OwnerEmail != "yaml@mydomain.com" {
		t.Fatalf("yaml value lost: %q", cfg.OwnerEmail)
	}
	if cfg.Lookback != 30 {
		t.Fatalf("env must override yaml, got lookback %d", cfg.Lookback)
	}
	if cfg.GroqAPIKey != "yaml-groq" || cfg.GeminiAPIKey != "env-gemini" {
		t.Fatalf("key sources wrong: groq=%q gemini=%q", cfg.GroqAPIKey, cfg.GeminiAPIKey)
	}
	if !cfg.UseLLM {
		t.Fatal("USE_LLM env override lost")
	}
}

func TestResolveKeys(t *testing.T) {
	store := newTestCache(t)
	if err := store.SetProp("GROQ_KEY", "stored-groq"); err != nil {
		t.Fatalf("SetProp: %v", err)
	}
	if err := store.SetProp("GEMINI_KEY", "stored-gemini"); err != nil {
		t.Fatalf("SetProp: %v", err)
	}

	cfg := Config{GeminiAPIKey: "config-gemini"}
	keys := resolveKeys(cfg, store)

	if keys["groq"] != "stored-groq" {
		t.Errorf("stored key must fill the gap, got %q", keys["groq"])
	}
	if keys["gemini"] != "config-gemini" {
		t.Errorf("config must win over stored, got %q", keys["gemini"])
	}
	if keys["anthropic"] != "" {
		t.Errorf("unset key must stay empty, got %q", keys["anthropic"])
	}
}
