package scrape

import (
	"log/slog"
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobapply-engine/internal/domain"
)

func post(title, url string, on time.Time) domain.PostingSummary {
	return domain.PostingSummary{Title: title, URL: url, PostedOn: on}
}

func TestMergeUniqueFirstWins(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.Local)
	a := []domain.PostingSummary{post("A", "u1", day), post("B", "u2", day)}
	b := []domain.PostingSummary{post("A again", "u1", day), post("C", "u3", day)}

	got := MergeUnique(a, nil, b)
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, []string{"u1", "u2", "u3"}, []string{got[0].URL, got[1].URL, got[2].URL})
}

func TestSelectCandidates(t *testing.T) {
	today := time.Date(2024, 1, 15, 12, 0, 0, 0, time.Local)
	w := RecencyWindow(today, 5)
	fresh := time.Date(2024, 1, 14, 0, 0, 0, 0, time.Local)
	stale := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)

	postings := []domain.PostingSummary{
		post("Junior Network Engineer", "new", fresh),
		post("IT Support Officer", "seen", fresh),
		post("Trainee DevOps", "old", stale),
		post("Senior Accountant", "nomatch", fresh),
	}
	processed := mapset.NewThreadUnsafeSet("seen")

	cands, matching := SelectCandidates(slog.Default(), postings, testPolicy(), w, processed)
	assert.Equal(t, 3, matching)
	require.Len(t, cands, 1)
	assert.Equal(t, "new", cands[0].URL)
}

func TestNoveltyGateIsIdempotent(t *testing.T) {
	today := time.Date(2024, 1, 15, 12, 0, 0, 0, time.Local)
	w := RecencyWindow(today, 5)
	batch := []domain.PostingSummary{
		post("Junior Network Engineer", "a", today),
		post("IT Support Officer", "b", today),
	}
	processed := mapset.NewThreadUnsafeSet[string]()

	first, _ := SelectCandidates(slog.Default(), batch, testPolicy(), w, processed)
	require.Len(t, first, 2)
	for _, c := range first {
		processed.Add(c.URL)
	}

	second, matching := SelectCandidates(slog.Default(), batch, testPolicy(), w, processed)
	assert.Empty(t, second)
	assert.Equal(t, 2, matching)
}
