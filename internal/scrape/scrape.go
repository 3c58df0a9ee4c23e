package scrape

import (
	"log/slog"
	"time"

	"jobapply-engine/internal/config"
	"jobapply-engine/internal/scrape/types"
	"jobapply-engine/internal/scrape/util"
)

// Pipeline discovers new leads: it lists the category pages, filters the
// postings, reads the detail page of every new match and records what it
// processed. A Pipeline is not safe for concurrent use; RunOnce also holds
// a file lock so two processes cannot run it against the same tracking file.
type Pipeline struct {
	Fetcher   types.CategoryFetcher
	Extractor types.DetailExtractor
	Limiter   *util.HostLimiter // nil disables pacing

	Policy       Policy
	CategoryURLs []string
	RecencyDays  int

	TrackingFile string
	LeadsDir     string
	ExportXLSX   bool

	Now func() time.Time
	Log *slog.Logger
}

func NewPipeline(cfg config.Config, fetcher types.CategoryFetcher, extractor types.DetailExtractor, limiter *util.HostLimiter, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		Fetcher:      fetcher,
		Extractor:    extractor,
		Limiter:      limiter,
		Policy:       PolicyFromConfig(cfg),
		CategoryURLs: cfg.Scrape.CategoryURLs,
		RecencyDays:  cfg.RecencyDays(),
		TrackingFile: cfg.Storage.TrackingFile,
		LeadsDir:     cfg.Storage.LeadsDir,
		ExportXLSX:   cfg.Storage.ExportXLSX,
		Now:          time.Now,
		Log:          log,
	}
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *Pipeline) log() *slog.Logger {
	if p.Log == nil {
		return slog.Default()
	}
	return p.Log
}
