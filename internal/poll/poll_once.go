package poll

import (
	"context"
	"fmt"
	"log/slog"

	"jobapply-engine/internal/domain"
	"jobapply-engine/internal/notify"
)

// Scraper is the discovery pipeline.
type Scraper interface {
	RunOnce(ctx context.Context) domain.RunSummary
}

// Mailer sends applications for the newest leads export.
type Mailer interface {
	Run(ctx context.Context) domain.MailSummary
}

// Runner sequences one full automation pass: scrape, then mail when the
// scrape found new leads, then report.
type Runner struct {
	Scrape   Scraper
	Mail     Mailer          // nil when mailing is disabled
	Reporter notify.Reporter // nil disables notifications
	Log      *slog.Logger
}

func (r *Runner) RunOnce(ctx context.Context) (sum domain.RunSummary) {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("[run] critical error in main process", "err", rec)
				sum.Errors++
			}
		}()

		log.Info("[run] starting job automation")
		sum = r.Scrape.RunOnce(ctx)

		switch {
		case r.Mail == nil:
			log.Info("[run] mailing disabled, skipping email step")
		case sum.NewLeadsFound > 0:
			log.Info("[run] new leads found, starting email sender", "new_leads", sum.NewLeadsFound)
			sum.AddMail(r.Mail.Run(ctx))
		default:
			log.Info("[run] no new leads found, skipping email step")
		}
	}()

	LogSummary(log, sum)

	if r.Reporter != nil {
		if err := r.Reporter.Report(ctx, sum); err != nil {
			log.Warn("[run] sending notification failed", "err", err)
		}
	}
	return sum
}

// LogSummary writes the end-of-run block.
func LogSummary(log *slog.Logger, sum domain.RunSummary) {
	log.Info("[run] ==================== AUTOMATION SUMMARY ====================")
	log.Info(fmt.Sprintf("[run] Total jobs scanned:        %d", sum.TotalFound))
	log.Info(fmt.Sprintf("[run] Jobs matching criteria:    %d", sum.MatchingCriteria))
	log.Info(fmt.Sprintf("[run] New leads found:           %d", sum.NewLeadsFound))
	log.Info(fmt.Sprintf("[run] Emails successfully sent:  %d", sum.EmailsSent))
	if sum.EmailsSkipped > 0 {
		log.Info(fmt.Sprintf("[run] Already applied, skipped:  %d", sum.EmailsSkipped))
	}
	log.Info(fmt.Sprintf("[run] Total errors encountered:  %d", sum.Errors))
	if sum.CommitError != "" {
		log.Error("[run] processed jobs were not saved, the same leads will come back", "err", sum.CommitError)
	}
	log.Info("[run] ==============================================================", "run_id", sum.RunID)
}
