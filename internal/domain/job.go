package domain

import "time"

// EmailNotFound marks a lead whose detail page carried no contact email.
const EmailNotFound = "Not Found"

// PostingSummary is one row of a category listing page.
type PostingSummary struct {
	Title    string
	URL      string    // detail page URL, also the tracking identifier
	PostedOn time.Time // calendar date, midnight local time
}

type Lead struct {
	PostingSummary
	Email string // contact address or EmailNotFound
}

func (l Lead) HasEmail() bool {
	return l.Email != "" && l.Email != EmailNotFound
}
