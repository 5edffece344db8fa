package main

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func pointConfigAtMissingFile(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
}

func TestLoadConfigDefaults(t *testing.T) {
	pointConfigAtMissingFile(t)
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("DATA_DIR", filepath.Join(t.TempDir(), "data"))

	cfg := LoadConfig()

	if cfg.ListenAddr != ":8787" {
		t.Fatalf("unexpected listen addr default: %q", cfg.ListenAddr)
	}
	if cfg.Storage != storageFile {
		t.Fatalf("unexpected storage default: %q", cfg.Storage)
	}
	if !strings.HasSuffix(cfg.JournalPath, "journal.json") {
		t.Fatalf("unexpected journal path default: %q", cfg.JournalPath)
	}
	if !strings.HasSuffix(cfg.DBPath, "shotlog.db") {
		t.Fatalf("unexpected db path default: %q", cfg.DBPath)
	}
	if cfg.AdviceLanguage != "English" {
		t.Fatalf("unexpected advice language default: %q", cfg.AdviceLanguage)
	}
	if cfg.SearchMaxUses != defaultSearchMaxUses {
		t.Fatalf("unexpected search uses default: %d", cfg.SearchMaxUses)
	}
	if !cfg.WatchJournal {
		t.Fatal("expected journal watching on by default")
	}
	if cfg.DigestOutputDir != "./digests" {
		t.Fatalf("unexpected digest dir default: %q", cfg.DigestOutputDir)
	}
	if cfg.ExternalHTTPTimeoutSeconds != int(defaultExternalHTTPTimeout/time.Second) {
		t.Fatalf("unexpected http timeout default: %d", cfg.ExternalHTTPTimeoutSeconds)
	}
	if cfg.Location == nil || cfg.Location.String() != "UTC" {
		t.Fatalf("unexpected location: %v", cfg.Location)
	}
}

func TestLoadConfigYAMLAndEnvOverride(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
listen_addr: ":9900"
storage: "sqlite"
anthropic_api_key: "sk-yaml"
llm_model: "claude-yaml"
advice_language: "Korean"
digest_schedule: "0 9 * * 1"
watch_journal: false
timezone: "UTC"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_PATH", cfgPath)
	t.Setenv("LLM_MODEL", "claude-env")
	t.Setenv("SEARCH_MAX_USES", "7")

	cfg := LoadConfig()

	if cfg.ListenAddr != ":9900" {
		t.Fatalf("expected listen addr from yaml, got %q", cfg.ListenAddr)
	}
	if cfg.Storage != storageSQLite {
		t.Fatalf("expected sqlite storage from yaml, got %q", cfg.Storage)
	}
	if cfg.AnthropicAPIKey != "sk-yaml" {
		t.Fatalf("expected key from yaml, got %q", cfg.AnthropicAPIKey)
	}
	if cfg.LLMModel != "claude-env" {
		t.Fatalf("expected model from env override, got %q", cfg.LLMModel)
	}
	if cfg.SearchMaxUses != 7 {
		t.Fatalf("expected search uses from env override, got %d", cfg.SearchMaxUses)
	}
	if cfg.AdviceLanguage != "Korean" {
		t.Fatalf("expected language from yaml, got %q", cfg.AdviceLanguage)
	}
	if cfg.WatchJournal {
		t.Fatal("expected watching disabled by yaml")
	}
	if cfg.DigestSchedule != "0 9 * * 1" {
		t.Fatalf("expected schedule from yaml, got %q", cfg.DigestSchedule)
	}
}

func TestEnvOverrideHelpers(t *testing.T) {
	s := "initial"
	t.Setenv("SL_TEST_STR", "value")
	envOverride(&s, "SL_TEST_STR")
	if s != "value" {
		t.Fatalf("envOverride failed, got %q", s)
	}

	i := 1
	t.Setenv("SL_TEST_INT", "42")
	envOverrideInt(&i, "SL_TEST_INT")
	if i != 42 {
		t.Fatalf("envOverrideInt failed, got %d", i)
	}

	b := true
	t.Setenv("SL_TEST_BOOL", "off")
	envOverrideBool(&b, "SL_TEST_BOOL")
	if b {
		t.Fatalf("envOverrideBool failed, got %v", b)
	}
	t.Setenv("SL_TEST_BOOL", "not-a-bool")
	envOverrideBool(&b, "SL_TEST_BOOL")
	if b {
		t.Fatalf("envOverrideBool must ignore junk, got %v", b)
	}
}

func TestPersistedKeyFallback(t *testing.T) {
	pointConfigAtMissingFile(t)
	dataDir := t.TempDir()
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("ANTHROPIC_API_KEY", "")

	if err := SaveAPIKey(Config{DataDir: dataDir}, "sk-persisted"); err != nil {
		t.Fatalf("save key: %v", err)
	}

	cfg := LoadConfig()
	if cfg.AnthropicAPIKey != "sk-persisted" {
		t.Fatalf("expected the persisted key, got %q", cfg.AnthropicAPIKey)
	}

	info, err := os.Stat(filepath.Join(dataDir, "anthropic_key"))
	if err != nil {
		t.Fatalf("stat key file: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 key file, got %v", info.Mode().Perm())
	}
}

func TestEnvKeyBeatsPersistedKey(t *testing.T) {
	pointConfigAtMissingFile(t)
	dataDir := t.TempDir()
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("ANTHROPIC_API_KEY", "sk-env")

	if err := SaveAPIKey(Config{DataDir: dataDir}, "sk-persisted"); err != nil {
		t.Fatalf("save key: %v", err)
	}

	cfg := LoadConfig()
	if cfg.AnthropicAPIKey != "sk-env" {
		t.Fatalf("expected the env key to win, got %q", cfg.AnthropicAPIKey)
	}
}

func TestLoadConfigInvalidStorageFatal(t *testing.T) {
	if os.Getenv("TEST_INVALID_STORAGE_FATAL") == "1" {
		_ = os.Setenv("CONFIG_PATH", filepath.Join(os.TempDir(), "no-config.yaml"))
		_ = os.Setenv("STORAGE", "cloud")
		LoadConfig()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestLoadConfigInvalidStorageFatal")
	cmd.Env = append(os.Environ(), "TEST_INVALID_STORAGE_FATAL=1")
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected subprocess to exit with failure")
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got: %v", err)
	}
}

func TestLoadConfigInvalidScheduleFatal(t *testing.T) {
	if os.Getenv("TEST_INVALID_SCHEDULE_FATAL") == "1" {
		_ = os.Setenv("CONFIG_PATH", filepath.Join(os.TempDir(), "no-config.yaml"))
		_ = os.Setenv("DIGEST_SCHEDULE", "every now and then")
		LoadConfig()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestLoadConfigInvalidScheduleFatal")
	cmd.Env = append(os.Environ(), "TEST_INVALID_SCHEDULE_FATAL=1")
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected subprocess to exit with failure")
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got: %v", err)
	}
}
