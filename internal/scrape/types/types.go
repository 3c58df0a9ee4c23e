package types

import (
	"context"

	"jobapply-engine/internal/domain"
)

// ScrapeStatus is the last known state of the scrape pipeline, served by the status API.
type ScrapeStatus struct {
	LastRunAt   string `json:"last_run_at"`
	LastOkAt    string `json:"last_ok_at"`
	LastError   string `json:"last_error"`
	LastRunID   string `json:"last_run_id"`
	LastLeads   int    `json:"last_leads"`
	LastEmailed int    `json:"last_emailed"`
	Running     bool   `json:"running"`
}

// CategoryFetcher lists the postings of one category page.
type CategoryFetcher interface {
	FetchCategory(ctx context.Context, categoryURL string) ([]domain.PostingSummary, error)
}

// DetailExtractor turns a posting into a lead by reading its detail page.
type DetailExtractor interface {
	Extract(ctx context.Context, p domain.PostingSummary) (domain.Lead, error)
}
