// Package mailer sends one application email per lead of the newest leads
// export and remembers every send so a lead is never mailed twice.
package mailer

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"jobapply-engine/internal/config"
	"jobapply-engine/internal/domain"
	"jobapply-engine/internal/logging"
	"jobapply-engine/internal/secrets"
	"jobapply-engine/internal/store"
)

type Mailer struct {
	Sender   Sender   // nil when credentials are missing
	Archiver Archiver // nil disables archiving
	DB       *sql.DB  // nil disables the applications log

	From     string // sender address
	Profile  Profile
	LeadsDir string
	Delay    time.Duration

	Rand *rand.Rand
	Now  func() time.Time
	Log  *slog.Logger
}

// NewFromConfig wires the SMTP sender and, when enabled, the IMAP archive.
// Missing credentials are not an error here; Run reports them.
func NewFromConfig(cfg config.Config, db *sql.DB, log *slog.Logger) *Mailer {
	if log == nil {
		log = slog.Default()
	}
	m := &Mailer{
		DB:       db,
		From:     strings.TrimSpace(cfg.Mail.Username),
		Profile:  ProfileFromConfig(cfg),
		LeadsDir: cfg.Storage.LeadsDir,
		Delay:    cfg.SendDelay(),
		Now:      time.Now,
		Log:      log,
	}

	password, err := secrets.SMTPPassword(cfg)
	if err != nil || m.From == "" {
		return m
	}
	m.Sender = &SMTPSender{
		Host:     cfg.Mail.SMTPHost,
		Port:     cfg.Mail.SMTPPort,
		Username: m.From,
		Password: password,
	}
	if cfg.IMAP.ArchiveSent {
		m.Archiver = &IMAPArchiver{
			Host:     cfg.IMAP.Host,
			Port:     cfg.IMAP.Port,
			Username: m.From,
			Password: password,
			Mailbox:  cfg.IMAP.Mailbox,
		}
	}
	return m
}

// Run mails the leads of the newest export. It never panics; every failed
// row counts one error and the loop moves on.
func (m *Mailer) Run(ctx context.Context) (sum domain.MailSummary) {
	log := m.log()

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("[mail] critical error", "err", rec)
			sum.Errors++
		}
	}()

	if m.Sender == nil || m.From == "" {
		log.Log(ctx, logging.LevelCritical, "[mail] EMAIL_ADDRESS or the SMTP password is not configured",
			"hint", "set EMAIL_ADDRESS and EMAIL_PASSWORD in .env or run `engine secrets set-smtp`")
		sum.Errors++
		return sum
	}

	path, err := store.LatestLeadsFile(m.LeadsDir)
	if errors.Is(err, store.ErrNoLeadsFile) {
		log.Warn("[mail] no leads file found to process", "dir", m.LeadsDir)
		return sum
	}
	if err != nil {
		log.Error("[mail] cannot list leads", "dir", m.LeadsDir, "err", err)
		sum.Errors++
		return sum
	}
	log.Info("[mail] found leads file to process", "file", path)

	leads, err := store.ReadLeads(path)
	if err != nil {
		log.Error("[mail] could not read leads file", "file", path, "err", err)
		sum.Errors++
		return sum
	}

	valid := ValidRecipients(leads)
	if len(valid) == 0 {
		log.Info("[mail] the leads file does not contain any valid emails", "file", path)
		return sum
	}

	if m.Archiver != nil {
		defer func() { _ = m.Archiver.Close() }()
	}

	from := &mail.Address{Name: m.Profile.Name, Address: m.From}
	for i, lead := range valid {
		if ctx.Err() != nil {
			log.Warn("[mail] stopped", "remaining", len(valid)-i, "err", ctx.Err())
			break
		}

		if m.DB != nil {
			applied, err := store.HasApplied(ctx, m.DB, lead.URL, lead.Email)
			if err != nil {
				log.Error("[mail] applications log lookup failed", "url", lead.URL, "err", err)
				sum.Errors++
				continue
			}
			if applied {
				log.Info("[mail] already applied, skipping", "title", lead.Title, "email", lead.Email)
				sum.EmailsSkipped++
				continue
			}
		}

		log.Info("[mail] processing application", "title", lead.Title, "email", lead.Email)
		if err := m.send(ctx, from, lead, path); err != nil {
			if isAuthError(err) {
				log.Error("[mail] SMTP authentication failed, check the mail credentials",
					"hint", "Gmail needs a 16 character app password", "err", err)
			} else {
				log.Error("[mail] sending failed", "email", lead.Email, "err", err)
			}
			sum.Errors++
			continue
		}
		sum.EmailsSent++
		log.Info("[mail] email sent", "email", lead.Email)

		if i < len(valid)-1 {
			if err := sleepCtx(ctx, m.Delay); err != nil {
				break
			}
		}
	}
	return sum
}

func (m *Mailer) send(ctx context.Context, from *mail.Address, lead domain.Lead, leadsFile string) error {
	at := m.now()
	draft := Compose(m.Profile, lead.Title, m.Rand)
	msg, err := BuildMessage(from, lead.Email, draft, m.Profile.ResumePath, at)
	if err != nil {
		return err
	}
	if err := m.Sender.Send(ctx, m.From, []string{lead.Email}, msg); err != nil {
		return err
	}

	// the email is out; failures below only cost bookkeeping
	if m.DB != nil {
		if _, err := store.RecordApplication(ctx, m.DB, store.Application{
			URL:       lead.URL,
			Email:     lead.Email,
			Title:     lead.Title,
			LeadsFile: leadsFile,
			SentAt:    at,
		}); err != nil {
			m.log().Warn("[mail] recording application failed", "url", lead.URL, "err", err)
		}
	}
	if m.Archiver != nil {
		if err := m.Archiver.Archive(ctx, msg, at); err != nil {
			m.log().Warn("[mail] archiving sent copy failed", "err", err)
		}
	}
	return nil
}

// ValidRecipients keeps leads whose email looks like an address.
func ValidRecipients(leads []domain.Lead) []domain.Lead {
	var out []domain.Lead
	for _, l := range leads {
		if strings.Contains(l.Email, "@") {
			out = append(out, l)
		}
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (m *Mailer) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func (m *Mailer) log() *slog.Logger {
	if m.Log == nil {
		return slog.Default()
	}
	return m.Log
}
