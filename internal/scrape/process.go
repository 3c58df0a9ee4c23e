package scrape

import (
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"

	"jobapply-engine/internal/domain"
)

// MergeUnique flattens per-category batches keeping the first posting seen
// for every URL.
func MergeUnique(batches ...[]domain.PostingSummary) []domain.PostingSummary {
	seen := mapset.NewThreadUnsafeSet[string]()
	var out []domain.PostingSummary
	for _, batch := range batches {
		for _, p := range batch {
			if !seen.Add(p.URL) {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

// SelectCandidates applies the match policy, the recency window and the
// processed set. matching counts postings that passed the policy alone.
func SelectCandidates(log *slog.Logger, postings []domain.PostingSummary, p Policy, w Window, processed mapset.Set[string]) (candidates []domain.PostingSummary, matching int) {
	for _, post := range postings {
		d := Decide(post.Title, p)
		if !d.IsMatch() {
			log.Debug("[scrape] skipped", "reason", "no_match", "title", post.Title, "role", d.MatchedRole)
			continue
		}
		matching++

		if !w.Contains(post.PostedOn) {
			log.Debug("[scrape] skipped", "reason", "outside_window", "title", post.Title, "posted_on", post.PostedOn.Format("2006-01-02"))
			continue
		}
		if processed != nil && processed.Contains(post.URL) {
			log.Debug("[scrape] skipped", "reason", "already_processed", "title", post.Title, "url", post.URL)
			continue
		}

		log.Info("[scrape] match found", "posted_on", post.PostedOn.Format("2006-01-02"), "title", post.Title, "role", d.MatchedRole)
		candidates = append(candidates, post)
	}
	return candidates, matching
}
