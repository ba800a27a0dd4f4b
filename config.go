package main

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	GmailCredentialsPath string `yaml:"gmail_credentials_path"`
	GmailTokenPath       string `yaml:"gmail_token_path"`
	OwnerEmail           string `yaml:"owner_email"`

	Lookback     int  `yaml:"lookback"`
	FollowupDays int  `yaml:"followup_days"`
	UseLLM       bool `yaml:"use_llm"`
	LLMBatchSize int  `yaml:"llm_batch_size"`

	GroqAPIKey      string `yaml:"groq_api_key"`
	GeminiAPIKey    string `yaml:"gemini_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	GroqModel       string `yaml:"groq_model"`
	GeminiModel     string `yaml:"gemini_model"`
	AnthropicModel  string `yaml:"anthropic_model"`

	CacheDBPath     string `yaml:"cache_db_path"`
	ReportOutputDir string `yaml:"report_output_dir"`

	SyncSchedule   string `yaml:"sync_schedule"`
	DigestSchedule string `yaml:"digest_schedule"`

	SlackBotToken  string `yaml:"slack_bot_token"`
	SlackChannelID string `yaml:"slack_channel_id"`

	TelemetryEndpoint string   `yaml:"telemetry_endpoint"`
	FinalCategories   []string `yaml:"final_categories"`
}

func LoadConfig() Config {
	cfg := Config{UseLLM: true}

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.GmailCredentialsPath, "GMAIL_CREDENTIALS_PATH")
	envOverride(&cfg.GmailTokenPath, "GMAIL_TOKEN_PATH")
	envOverride(&cfg.OwnerEmail, "OWNER_EMAIL")
	envOverrideInt(&cfg.Lookback, "LOOKBACK")
	envOverrideInt(&cfg.FollowupDays, "FOLLOWUP_DAYS")
	envOverrideInt(&cfg.LLMBatchSize, "LLM_BATCH_SIZE")
	envOverride(&cfg.GroqAPIKey, "GROQ_API_KEY")
	envOverride(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.GroqModel, "GROQ_MODEL")
	envOverride(&cfg.GeminiModel, "GEMINI_MODEL")
	envOverride(&cfg.AnthropicModel, "ANTHROPIC_MODEL")
	envOverride(&cfg.CacheDBPath, "CACHE_DB_PATH")
	envOverride(&cfg.ReportOutputDir, "REPORT_OUTPUT_DIR")
	envOverride(&cfg.SyncSchedule, "SYNC_SCHEDULE")
	envOverride(&cfg.DigestSchedule, "DIGEST_SCHEDULE")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")
	envOverride(&cfg.TelemetryEndpoint, "TELEMETRY_ENDPOINT")
	if v := os.Getenv("USE_LLM"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			log.Fatalf("invalid USE_LLM '%s': %v", v, err)
		}
		cfg.UseLLM = parsed
	}

	// Defaults
	if cfg.GmailCredentialsPath == "" {
		cfg.GmailCredentialsPath = "client_secret.json"
	}
	if cfg.GmailTokenPath == "" {
		cfg.GmailTokenPath = "token.json"
	}
	if cfg.Lookback == 0 {
		cfg.Lookback = 50
	}
	if cfg.FollowupDays == 0 {
		cfg.FollowupDays = 5
	}
	if cfg.LLMBatchSize == 0 {
		cfg.LLMBatchSize = 10
	}
	if cfg.CacheDBPath == "" {
		cfg.CacheDBPath = "./copilot.db"
	}
	if cfg.ReportOutputDir == "" {
		cfg.ReportOutputDir = "./reports"
	}
	if cfg.SyncSchedule == "" {
		cfg.SyncSchedule = "0 6 * * *"
	}
	if cfg.DigestSchedule == "" {
		cfg.DigestSchedule = "0 7 * * *"
	}
	if len(cfg.FinalCategories) == 0 {
		cfg.FinalCategories = []string{"Offer", "Final Round", "Contract"}
	}

	// Validate
	if cfg.Lookback < 1 {
		log.Fatalf("invalid lookback '%d': must be >= 1", cfg.Lookback)
	}
	if cfg.FollowupDays < 1 {
		log.Fatalf("invalid followup_days '%d': must be >= 1", cfg.FollowupDays)
	}
	if cfg.LLMBatchSize < 1 {
		log.Fatalf("invalid llm_batch_size '%d': must be >= 1", cfg.LLMBatchSize)
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

// resolveKeys builds the provider credential map: config (file or env)
// wins, setup-stored props fill the gaps.
func resolveKeys(cfg Config, store *TriageCache) map[string]string {
	keys := map[string]string{
		"groq":      cfg.GroqAPIKey,
		"gemini":    cfg.GeminiAPIKey,
		"anthropic": cfg.AnthropicAPIKey,
	}
	propKeys := map[string]string{
		"groq":      "GROQ_KEY",
		"gemini":    "GEMINI_KEY",
		"anthropic": "ANTHROPIC_KEY",
	}
	for provider, propKey := range propKeys {
		if keys[provider] == "" {
			if v, err := store.GetProp(propKey); err == nil && v != "" {
				keys[provider] = v
			}
		}
	}
	return keys
}
