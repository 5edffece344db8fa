package main

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	storageFile   = "file"
	storageSQLite = "sqlite"
)

type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	DataDir    string `yaml:"data_dir"`

	Storage     string `yaml:"storage"` // file or sqlite
	JournalPath string `yaml:"journal_path"`
	DBPath      string `yaml:"db_path"`

	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	LLMModel        string `yaml:"llm_model"`
	AdviceLanguage  string `yaml:"advice_language"`
	SearchMaxUses   int    `yaml:"search_max_uses"`

	WatchJournal bool `yaml:"watch_journal"`

	DigestSchedule  string `yaml:"digest_schedule"` // 5-field cron, empty disables
	DigestOutputDir string `yaml:"digest_output_dir"`
	SlackBotToken   string `yaml:"slack_bot_token"`
	SlackChannelID  string `yaml:"slack_channel_id"`

	Timezone                   string `yaml:"timezone"`
	ExternalHTTPTimeoutSeconds int    `yaml:"external_http_timeout_seconds"`

	Location *time.Location `yaml:"-"`
}

// LoadConfig reads config.yaml (or CONFIG_PATH), applies environment
// overrides and defaults, and validates what it can. Invalid config is
// fatal; a missing file is not. The anthropic key is deliberately not
// required here: the key endpoint can supply it later.
func LoadConfig() Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}

	var cfg Config
	cfg.WatchJournal = true
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("failed to parse %s: %v", path, err)
		}
	}

	envOverride(&cfg.ListenAddr, "LISTEN_ADDR")
	envOverride(&cfg.DataDir, "DATA_DIR")
	envOverride(&cfg.Storage, "STORAGE")
	envOverride(&cfg.JournalPath, "JOURNAL_PATH")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AdviceLanguage, "ADVICE_LANGUAGE")
	envOverrideInt(&cfg.SearchMaxUses, "SEARCH_MAX_USES")
	envOverrideBool(&cfg.WatchJournal, "WATCH_JOURNAL")
	envOverride(&cfg.DigestSchedule, "DIGEST_SCHEDULE")
	envOverride(&cfg.DigestOutputDir, "DIGEST_OUTPUT_DIR")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")
	envOverride(&cfg.Timezone, "TIMEZONE")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8787"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.Storage == "" {
		cfg.Storage = storageFile
	}
	if cfg.JournalPath == "" {
		cfg.JournalPath = filepath.Join(cfg.DataDir, "journal.json")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "shotlog.db")
	}
	if cfg.AdviceLanguage == "" {
		cfg.AdviceLanguage = "English"
	}
	if cfg.SearchMaxUses == 0 {
		cfg.SearchMaxUses = defaultSearchMaxUses
	}
	if cfg.DigestOutputDir == "" {
		cfg.DigestOutputDir = "./digests"
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = int(defaultExternalHTTPTimeout / time.Second)
	}

	if cfg.Storage != storageFile && cfg.Storage != storageSQLite {
		log.Fatalf("invalid storage %q: must be %q or %q", cfg.Storage, storageFile, storageSQLite)
	}
	if cfg.DigestSchedule != "" {
		if _, err := digestCronParser.Parse(cfg.DigestSchedule); err != nil {
			log.Fatalf("invalid digest_schedule %q: %v", cfg.DigestSchedule, err)
		}
	}

	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone %q: %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	} else {
		cfg.Location = time.Local
	}

	loadPersistedKey(&cfg)
	return cfg
}

func envOverride(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func envOverrideInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

func envOverrideBool(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			*target = true
		case "0", "false", "no", "off":
			*target = false
		}
	}
}

// The credential entered through the key endpoint lives in its own
// file under the data dir, read only when config and environment left
// the key empty.
func keyFilePath(cfg Config) string {
	return filepath.Join(cfg.DataDir, "anthropic_key")
}

func loadPersistedKey(cfg *Config) {
	if strings.TrimSpace(cfg.AnthropicAPIKey) != "" {
		return
	}
	data, err := os.ReadFile(keyFilePath(*cfg))
	if err != nil {
		return
	}
	cfg.AnthropicAPIKey = strings.TrimSpace(string(data))
}

// SaveAPIKey persists the credential for future startups. Mode 0600:
// it is a secret.
func SaveAPIKey(cfg Config, key string) error {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(keyFilePath(cfg), []byte(strings.TrimSpace(key)+"\n"), 0o600)
}
