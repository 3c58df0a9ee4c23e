package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureUserConfigWritesDefaultOnce(t *testing.T) {
	dir := t.TempDir()

	path, err := EnsureUserConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yml"), path)

	// user edits must survive a second bootstrap
	require.NoError(t, os.WriteFile(path, []byte("app:\n  port: 9000\n"), 0o644))
	again, err := EnsureUserConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, path, again)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "9000")
}

func TestLoadDefaultConfig(t *testing.T) {
	path, err := EnsureUserConfig(t.TempDir())
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Len(t, cfg.Scrape.CategoryURLs, 2)
	assert.Equal(t, "cyber security", cfg.Filters.RoleKeywords[0])
	assert.Contains(t, cfg.Filters.RolesWithoutLevelCheck, "it support")
	assert.False(t, cfg.Filters.RequireRemote)
	assert.Equal(t, "data/processed_jobs.csv", cfg.Storage.TrackingFile)
	assert.Equal(t, 5, cfg.RecencyDays())
	assert.Equal(t, 20, cfg.Scrape.TimeoutSeconds)

	_, v := NormalizeAndValidate(cfg)
	assert.True(t, v.OK(), "default config should validate: %v", v.Errors)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("filters:\n  role_keywords: [devops]\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://www.topjobs.lk", cfg.Scrape.BaseURL)
	assert.Equal(t, 465, cfg.Mail.SMTPPort)
	assert.Equal(t, "Sent", cfg.IMAP.Mailbox)
	assert.Equal(t, float64(1), cfg.Scrape.RequestsPerSecond)
	assert.Equal(t, 5, cfg.RecencyDays())
}

func TestRecencyDaysZeroMeansToday(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("scrape:\n  recency_days: 0\n  category_urls: [\"https://example.com/a\"]\nfilters:\n  role_keywords: [devops]\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Scrape.RecencyDays)
	assert.Equal(t, 0, cfg.RecencyDays())

	out, v := NormalizeAndValidate(cfg)
	assert.Empty(t, v.Errors)
	assert.Equal(t, 0, out.RecencyDays())
}

func TestRecencyDaysNegativeRejected(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	cfg.Scrape.CategoryURLs = []string{"https://example.com/a"}
	cfg.Filters.RoleKeywords = []string{"devops"}
	days := -1
	cfg.Scrape.RecencyDays = &days

	_, v := NormalizeAndValidate(cfg)
	assert.Contains(t, v.Errors, "scrape.recency_days must be >= 0")
}

func TestNormalizeAndValidate(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	cfg.Scrape.CategoryURLs = []string{" https://example.com/a ", "https://example.com/a", "not a url"}
	cfg.Filters.RoleKeywords = []string{"DevOps", "devops", " "}
	cfg.Filters.RolesWithoutLevelCheck = []string{"it support"}
	cfg.Mail.Enabled = false

	out, v := NormalizeAndValidate(cfg)

	assert.Equal(t, []string{"https://example.com/a", "not a url"}, out.Scrape.CategoryURLs)
	assert.Equal(t, []string{"DevOps"}, out.Filters.RoleKeywords)
	assert.False(t, v.OK())
	assert.Len(t, v.Errors, 1)
	assert.Contains(t, v.Errors[0], "category_urls[1]")
	assert.NotEmpty(t, v.Warnings)
	assert.Error(t, v.Err())
}

func TestOverlayEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("EMAIL_ADDRESS=me@example.com\nEMAIL_PASSWORD=secret\nTELEGRAM_CHAT_ID=42\n"), 0o600))
	t.Setenv("EMAIL_ADDRESS", "")
	t.Setenv("EMAIL_PASSWORD", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	// godotenv does not override variables that are already set, even empty ones
	os.Unsetenv("EMAIL_ADDRESS")
	os.Unsetenv("EMAIL_PASSWORD")
	os.Unsetenv("TELEGRAM_CHAT_ID")

	var cfg Config
	require.NoError(t, OverlayEnv(&cfg, envFile))
	assert.Equal(t, "me@example.com", cfg.Mail.Username)
	assert.Equal(t, "secret", cfg.Mail.Password)
	assert.Equal(t, int64(42), cfg.Notify.Telegram.ChatID)
}

func TestOverlayEnvRejectsBadChatID(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "abc")
	var cfg Config
	assert.Error(t, OverlayEnv(&cfg, ""))
}

func TestResolvePaths(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	cfg.Profile.ResumePath = "/home/me/cv.pdf"

	ResolvePaths(&cfg, "/srv/jobhunt")
	assert.Equal(t, filepath.Join("/srv/jobhunt", "data", "processed_jobs.csv"), cfg.Storage.TrackingFile)
	assert.Equal(t, filepath.Join("/srv/jobhunt", "data", "leads"), cfg.Storage.LeadsDir)
	assert.Equal(t, filepath.Join("/srv/jobhunt", "logs"), cfg.App.LogDir)
	assert.Equal(t, "/home/me/cv.pdf", cfg.Profile.ResumePath)

	before := cfg
	ResolvePaths(&cfg, ".")
	assert.Equal(t, before, cfg)
}
