// engine/internal/config/config.go
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		LogDir          string `yaml:"log_dir"`
		Port            int    `yaml:"port"`
		IntervalMinutes int    `yaml:"interval_minutes"`
	} `yaml:"app"`

	Scrape struct {
		BaseURL           string   `yaml:"base_url"`
		CategoryURLs      []string `yaml:"category_urls"`
		UserAgent         string   `yaml:"user_agent"`
		TimeoutSeconds    int      `yaml:"timeout_seconds"`
		RequestsPerSecond float64  `yaml:"requests_per_second"`
		RecencyDays       *int     `yaml:"recency_days"` // 0 = today only; unset = 5
	} `yaml:"scrape"`

	Filters struct {
		RoleKeywords           []string `yaml:"role_keywords"`
		LevelKeywords          []string `yaml:"level_keywords"`
		RolesWithoutLevelCheck []string `yaml:"roles_without_level_check"`
		RequireRemote          bool     `yaml:"require_remote"`
	} `yaml:"filters"`

	Storage struct {
		TrackingFile string `yaml:"tracking_file"`
		LeadsDir     string `yaml:"leads_dir"`
		DBPath       string `yaml:"db_path"`
		ExportXLSX   bool   `yaml:"export_xlsx"`
	} `yaml:"storage"`

	Profile struct {
		Name       string `yaml:"name"`
		Summary    string `yaml:"summary"`
		Phone      string `yaml:"phone"`
		Email      string `yaml:"email"`
		Portfolio  string `yaml:"portfolio"`
		LinkedIn   string `yaml:"linkedin"`
		GitHub     string `yaml:"github"`
		ResumePath string `yaml:"resume_path"`
	} `yaml:"profile"`

	Mail struct {
		Enabled          bool   `yaml:"enabled"`
		SMTPHost         string `yaml:"smtp_host"`
		SMTPPort         int    `yaml:"smtp_port"`
		Username         string `yaml:"username"`
		Password         string `yaml:"-"` // .env / keychain only
		SendDelaySeconds int    `yaml:"send_delay_seconds"`
	} `yaml:"mail"`

	IMAP struct {
		ArchiveSent bool   `yaml:"archive_sent"`
		Host        string `yaml:"host"`
		Port        int    `yaml:"port"`
		Mailbox     string `yaml:"mailbox"`
	} `yaml:"imap"`

	Notify struct {
		Telegram struct {
			Enabled bool   `yaml:"enabled"`
			Token   string `yaml:"-"`
			ChatID  int64  `yaml:"chat_id"`
		} `yaml:"telegram"`
	} `yaml:"notify"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	ApplyDefaults(&cfg)
	return cfg, nil
}

// ApplyDefaults fills zero values with the values the engine has always run with.
func ApplyDefaults(cfg *Config) {
	if cfg.App.LogDir == "" {
		cfg.App.LogDir = "logs"
	}
	if cfg.App.Port == 0 {
		cfg.App.Port = 38471
	}
	if cfg.App.IntervalMinutes == 0 {
		cfg.App.IntervalMinutes = 360
	}

	if cfg.Scrape.BaseURL == "" {
		cfg.Scrape.BaseURL = "https://www.topjobs.lk"
	}
	if cfg.Scrape.UserAgent == "" {
		cfg.Scrape.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	}
	if cfg.Scrape.TimeoutSeconds == 0 {
		cfg.Scrape.TimeoutSeconds = 20
	}
	if cfg.Scrape.RequestsPerSecond == 0 {
		cfg.Scrape.RequestsPerSecond = 1
	}
	if cfg.Scrape.RecencyDays == nil {
		days := defaultRecencyDays
		cfg.Scrape.RecencyDays = &days
	}

	if cfg.Storage.TrackingFile == "" {
		cfg.Storage.TrackingFile = "data/processed_jobs.csv"
	}
	if cfg.Storage.LeadsDir == "" {
		cfg.Storage.LeadsDir = "data/leads"
	}
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = "data/applications.db"
	}

	if cfg.Mail.SMTPHost == "" {
		cfg.Mail.SMTPHost = "smtp.gmail.com"
	}
	if cfg.Mail.SMTPPort == 0 {
		cfg.Mail.SMTPPort = 465
	}
	if cfg.Mail.SendDelaySeconds == 0 {
		cfg.Mail.SendDelaySeconds = 5
	}

	if cfg.IMAP.Host == "" {
		cfg.IMAP.Host = "imap.gmail.com"
	}
	if cfg.IMAP.Port == 0 {
		cfg.IMAP.Port = 993
	}
	if cfg.IMAP.Mailbox == "" {
		cfg.IMAP.Mailbox = "Sent"
	}
}

// ResolvePaths makes every relative file path in cfg relative to root, the
// directory the engine runs from.
func ResolvePaths(cfg *Config, root string) {
	if root == "" || root == "." {
		return
	}
	for _, p := range []*string{
		&cfg.App.LogDir,
		&cfg.Storage.TrackingFile,
		&cfg.Storage.LeadsDir,
		&cfg.Storage.DBPath,
		&cfg.Profile.ResumePath,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(root, *p)
		}
	}
}

const defaultRecencyDays = 5

// RecencyDays is how many days back a posting may be dated and still count.
func (c Config) RecencyDays() int {
	if c.Scrape.RecencyDays == nil {
		return defaultRecencyDays
	}
	return *c.Scrape.RecencyDays
}

func (c Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.Scrape.TimeoutSeconds) * time.Second
}

func (c Config) SendDelay() time.Duration {
	return time.Duration(c.Mail.SendDelaySeconds) * time.Second
}

func (c Config) Interval() time.Duration {
	return time.Duration(c.App.IntervalMinutes) * time.Minute
}
