package domain

import "time"

// RunSummary carries the counters of one automation run.
type RunSummary struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`

	TotalFound       int `json:"total_found"`
	MatchingCriteria int `json:"matching_criteria"`
	NewLeadsFound    int `json:"new_leads_found"`
	Extracted        int `json:"extracted"`
	EmailsSent       int `json:"emails_sent"`
	EmailsSkipped    int `json:"emails_skipped"`
	Errors           int `json:"errors"`

	LeadsFile   string `json:"leads_file,omitempty"`
	CommitError string `json:"commit_error,omitempty"`
}

// MailSummary is what the mailer reports back to the orchestration.
type MailSummary struct {
	EmailsSent    int
	EmailsSkipped int
	Errors        int
}

func (s *RunSummary) AddMail(m MailSummary) {
	s.EmailsSent += m.EmailsSent
	s.EmailsSkipped += m.EmailsSkipped
	s.Errors += m.Errors
}
