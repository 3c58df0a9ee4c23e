package topjobs

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobapply-engine/internal/domain"
	"jobapply-engine/internal/scrape/util"
)

const (
	postedLayout = "Mon Jan 2 2006"
	noTitle      = "No Title"
)

var createAlertRe = regexp.MustCompile(`createAlert\('(\d+)',\s*'([^']*)',\s*'([^']*)',\s*'([^']*)'`)

// FetchCategory lists the postings on one category page. Rows that do not
// look like a posting are skipped silently.
func (s *Scraper) FetchCategory(ctx context.Context, categoryURL string) ([]domain.PostingSummary, error) {
	res, err := s.get(ctx, categoryURL, s.cfg.UserAgent)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	posts, err := ParseCategory(res.Body, s.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse category %s: %w", categoryURL, err)
	}
	if len(posts) == 0 {
		s.log.Info("[topjobs] no job rows found in category", "url", categoryURL)
	}
	return posts, nil
}

// ParseCategory extracts postings from a category page. base is the
// absolute prefix used to build detail URLs.
func ParseCategory(r io.Reader, base string) ([]domain.PostingSummary, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var out []domain.PostingSummary
	doc.Find("tr[id]").Each(func(_ int, row *goquery.Selection) {
		if !isJobRow(row) {
			return
		}
		if p, ok := parseRow(row, base); ok {
			out = append(out, p)
		}
	})
	return out, nil
}

var rowIDRe = regexp.MustCompile(`^tr\d+`)

func isJobRow(row *goquery.Selection) bool {
	id, _ := row.Attr("id")
	return rowIDRe.MatchString(id)
}

func parseRow(row *goquery.Selection, base string) (domain.PostingSummary, bool) {
	onclick, ok := row.Attr("onclick")
	if !ok || onclick == "" {
		return domain.PostingSummary{}, false
	}
	cells := row.Find("td")
	if cells.Length() < 5 {
		return domain.PostingSummary{}, false
	}

	posted, err := parsePostedDate(cells.Eq(4).Text())
	if err != nil {
		return domain.PostingSummary{}, false
	}

	m := createAlertRe.FindStringSubmatch(onclick)
	if m == nil {
		return domain.PostingSummary{}, false
	}

	title := noTitle
	if h2 := row.Find("h2").First(); h2.Length() > 0 {
		title = strings.TrimSpace(h2.Text())
	}

	return domain.PostingSummary{
		Title:    title,
		URL:      DetailURL(base, m[1], m[2], m[3], m[4]),
		PostedOn: posted,
	}, true
}

// parsePostedDate reads dates like "Mon Jan 15 2024" as a local calendar date.
func parsePostedDate(s string) (time.Time, error) {
	return time.ParseInLocation(postedLayout, util.CleanText(s), time.Local)
}

// DetailURL builds the canonical posting URL. The URL is the posting's
// identity everywhere, so its format must never change.
func DetailURL(base, rid, ac, jc, ec string) string {
	return fmt.Sprintf("%s/employer/JobAdvertismentServlet?rid=%s&ac=%s&jc=%s&ec=%s", base, rid, ac, jc, ec)
}
