package topjobs

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobapply-engine/internal/domain"
)

// Extract reads the contact email from a posting's detail page. A page
// without the email field still yields a lead with domain.EmailNotFound;
// only transport and parse failures return an error.
func (s *Scraper) Extract(ctx context.Context, p domain.PostingSummary) (domain.Lead, error) {
	// detail pages are requested with the client's own user agent
	res, err := s.get(ctx, p.URL, "")
	if err != nil {
		return domain.Lead{}, err
	}
	defer res.Body.Close()

	email, err := ParseDetail(res.Body)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("parse detail %s: %w", p.URL, err)
	}

	if email == domain.EmailNotFound {
		s.log.Warn("[topjobs] no plain text email found", "url", p.URL)
	} else {
		s.log.Info("[topjobs] found email", "email", email, "url", p.URL)
	}
	return domain.Lead{PostingSummary: p, Email: email}, nil
}

// ParseDetail returns the value of the company email field, or
// domain.EmailNotFound when it is missing or empty.
func ParseDetail(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}
	v, ok := doc.Find("input#txtAVECompanyEmail").First().Attr("value")
	if !ok || strings.TrimSpace(v) == "" {
		return domain.EmailNotFound, nil
	}
	return strings.TrimSpace(v), nil
}
