package scrape

import (
	"context"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"jobapply-engine/internal/domain"
	"jobapply-engine/internal/store"
)

// RunOnce executes one discovery pass. It never panics and always returns a
// summary; failures are logged and counted in Errors. A failure to persist
// the leads file or the tracking file is also reported in CommitError
// because it makes the next run return the same leads again.
func (p *Pipeline) RunOnce(ctx context.Context) (sum domain.RunSummary) {
	log := p.log()
	sum.RunID = uuid.NewString()
	sum.StartedAt = p.now()
	log = log.With("run_id", sum.RunID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("[scrape] critical error", "err", rec)
			sum.Errors++
		}
		sum.EndedAt = p.now()
	}()

	lock, err := store.AcquireRunLock(p.TrackingFile + ".lock")
	if err != nil {
		log.Error("[scrape] cannot start run", "err", err)
		sum.Errors++
		return sum
	}
	defer func() { _ = lock.Unlock() }()

	processed := store.LoadTracking(p.TrackingFile, log)
	log.Info("[scrape] loaded processed jobs", "count", processed.Cardinality(), "file", p.TrackingFile)

	// 1) list every category, best-effort
	var batches [][]domain.PostingSummary
	for _, catURL := range p.CategoryURLs {
		if err := p.Limiter.WaitURL(ctx, catURL); err != nil {
			log.Error("[scrape] stopped before category", "url", catURL, "err", err)
			sum.Errors++
			break
		}
		log.Info("[scrape] fetching category", "url", catURL)
		posts, err := p.Fetcher.FetchCategory(ctx, catURL)
		if err != nil {
			log.Error("[scrape] category fetch failed", "url", catURL, "err", err)
			sum.Errors++
			continue
		}
		log.Info("[scrape] category done", "url", catURL, "jobs", len(posts))
		batches = append(batches, posts)
	}

	all := MergeUnique(batches...)
	sum.TotalFound = len(all)
	log.Info("[scrape] collected unique jobs, applying filters", "count", sum.TotalFound)

	// 2) filter
	window := RecencyWindow(p.now(), p.RecencyDays)
	candidates, matching := SelectCandidates(log, all, p.Policy, window, processed)
	sum.MatchingCriteria = matching
	sum.NewLeadsFound = len(candidates)

	if len(candidates) == 0 {
		log.Info("[scrape] no new jobs match the profile", "recency_days", p.RecencyDays)
		return sum
	}
	log.Info("[scrape] starting extraction", "jobs", len(candidates))

	// 3) extract contacts, one page at a time
	leads := make([]domain.Lead, 0, len(candidates))
	newlyProcessed := mapset.NewThreadUnsafeSet[string]()
	for i, post := range candidates {
		if err := p.Limiter.WaitURL(ctx, post.URL); err != nil {
			log.Error("[scrape] stopped before extraction", "url", post.URL, "err", err)
			sum.Errors++
			break
		}
		log.Info(fmt.Sprintf("[scrape] processing (%d/%d)", i+1, len(candidates)), "title", post.Title)
		lead, err := p.Extractor.Extract(ctx, post)
		if err != nil {
			log.Error("[scrape] extraction failed", "url", post.URL, "err", err)
			sum.Errors++
			continue
		}
		leads = append(leads, lead)
		// marked even without an email so it is never retried
		newlyProcessed.Add(post.URL)
	}
	sum.Extracted = len(leads)

	if len(leads) == 0 {
		return sum
	}

	// 4) commit
	path, err := store.WriteLeads(p.LeadsDir, leads, p.now())
	if err != nil {
		// keep the tracking file untouched so these leads come back next run
		log.Error("[scrape] saving leads failed", "dir", p.LeadsDir, "err", err)
		sum.Errors++
		sum.CommitError = err.Error()
		return sum
	}
	sum.LeadsFile = path
	log.Info("[scrape] saved new job leads", "count", len(leads), "file", path)

	if p.ExportXLSX {
		xlsxPath := strings.TrimSuffix(path, ".csv") + ".xlsx"
		if err := store.WriteLeadsXLSX(xlsxPath, leads); err != nil {
			log.Warn("[scrape] xlsx export failed", "file", xlsxPath, "err", err)
			sum.Errors++
		}
	}

	updated := processed.Union(newlyProcessed)
	if err := store.SaveTracking(p.TrackingFile, updated); err != nil {
		log.Error("[scrape] updating processed jobs failed, the same leads will be found again", "file", p.TrackingFile, "err", err)
		sum.Errors++
		sum.CommitError = err.Error()
		return sum
	}
	log.Info("[scrape] updated processed jobs", "file", p.TrackingFile, "added", newlyProcessed.Cardinality(), "total", updated.Cardinality())

	return sum
}
