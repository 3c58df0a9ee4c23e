package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err folds the validation errors into a single error, nil when OK.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return errors.New("config validation failed:\n- " + strings.Join(v.Errors, "\n- "))
}

// NormalizeAndValidate returns a normalized copy of cfg plus the problems found.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Scrape.CategoryURLs = trimList(out.Scrape.CategoryURLs)
	out.Filters.RoleKeywords = trimList(out.Filters.RoleKeywords)
	out.Filters.LevelKeywords = trimList(out.Filters.LevelKeywords)
	out.Filters.RolesWithoutLevelCheck = trimList(out.Filters.RolesWithoutLevelCheck)

	// ---- Validation rules ----

	if len(out.Scrape.CategoryURLs) == 0 {
		res.addErr("scrape.category_urls must have at least 1 url")
	}
	for i, raw := range out.Scrape.CategoryURLs {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			res.addErr("scrape.category_urls[%d] is not an absolute url: %q", i, raw)
		}
	}
	if u, err := url.Parse(out.Scrape.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		res.addErr("scrape.base_url is not an absolute url: %q", out.Scrape.BaseURL)
	}
	if out.Scrape.TimeoutSeconds <= 0 {
		res.addErr("scrape.timeout_seconds must be > 0")
	}
	if out.Scrape.RequestsPerSecond <= 0 {
		res.addErr("scrape.requests_per_second must be > 0")
	} else if out.Scrape.RequestsPerSecond > 2 {
		res.addWarn("scrape.requests_per_second is high (%.1f) and may trip the site's bot protection.", out.Scrape.RequestsPerSecond)
	}
	if out.RecencyDays() < 0 {
		res.addErr("scrape.recency_days must be >= 0")
	}

	if len(out.Filters.RoleKeywords) == 0 {
		res.addErr("filters.role_keywords must have at least 1 keyword")
	}
	if len(out.Filters.LevelKeywords) == 0 && len(out.Filters.RolesWithoutLevelCheck) == 0 {
		res.addWarn("filters.level_keywords and filters.roles_without_level_check are both empty; nothing can match.")
	}

	// exempt roles only matter if they are also role keywords
	roles := map[string]bool{}
	for _, r := range out.Filters.RoleKeywords {
		roles[strings.ToLower(r)] = true
	}
	for _, r := range out.Filters.RolesWithoutLevelCheck {
		if !roles[strings.ToLower(r)] {
			res.addWarn("roles_without_level_check entry %q is not in role_keywords and has no effect", r)
		}
	}

	if strings.TrimSpace(out.Storage.TrackingFile) == "" {
		res.addErr("storage.tracking_file is required")
	}
	if strings.TrimSpace(out.Storage.LeadsDir) == "" {
		res.addErr("storage.leads_dir is required")
	}

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}
	if out.App.IntervalMinutes <= 0 {
		res.addErr("app.interval_minutes must be > 0")
	}

	// mail fields (password not required here; it's in keychain or .env)
	if out.Mail.Enabled {
		if strings.TrimSpace(out.Mail.SMTPHost) == "" {
			res.addErr("mail.smtp_host is required when mail.enabled=true")
		}
		if out.Mail.SMTPPort <= 0 || out.Mail.SMTPPort > 65535 {
			res.addErr("mail.smtp_port must be 1..65535")
		}
		if strings.TrimSpace(out.Profile.Name) == "" {
			res.addWarn("profile.name is empty; application emails will be unsigned.")
		}
		if strings.TrimSpace(out.Profile.ResumePath) == "" {
			res.addErr("profile.resume_path is required when mail.enabled=true")
		}
	}

	if out.IMAP.ArchiveSent && strings.TrimSpace(out.IMAP.Host) == "" {
		res.addErr("imap.host is required when imap.archive_sent=true")
	}
	if out.Notify.Telegram.Enabled && out.Notify.Telegram.ChatID == 0 {
		res.addErr("notify.telegram.chat_id is required when notify.telegram.enabled=true")
	}

	return out, res
}
