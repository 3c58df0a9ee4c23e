package mailer

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobapply-engine/internal/domain"
	"jobapply-engine/internal/store"
)

type sent struct {
	from string
	to   []string
	msg  []byte
}

type fakeSender struct {
	out  []sent
	fail map[string]error
}

func (f *fakeSender) Send(_ context.Context, from string, to []string, msg []byte) error {
	if err := f.fail[to[0]]; err != nil {
		return err
	}
	f.out = append(f.out, sent{from: from, to: to, msg: msg})
	return nil
}

type fakeArchiver struct {
	n      int
	closed bool
}

func (f *fakeArchiver) Archive(context.Context, []byte, time.Time) error { f.n++; return nil }
func (f *fakeArchiver) Close() error                                      { f.closed = true; return nil }

func testProfile(t *testing.T) Profile {
	t.Helper()
	resume := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(resume, []byte("%PDF-1.4 test"), 0o644))
	return Profile{
		Name:       "Nimal Perera",
		Summary:    "I am a networking graduate.",
		Phone:      "+94 77 000 0000",
		Email:      "nimal@example.com",
		LinkedIn:   "linkedin.com/in/nimal",
		ResumePath: resume,
	}
}

func lead(title, email, url string) domain.Lead {
	return domain.Lead{PostingSummary: domain.PostingSummary{Title: title, URL: url}, Email: email}
}

func newTestMailer(t *testing.T, s Sender, leads ...domain.Lead) *Mailer {
	t.Helper()
	dir := t.TempDir()
	leadsDir := filepath.Join(dir, "leads")
	if leads != nil {
		_, err := store.WriteLeads(leadsDir, leads, time.Now())
		require.NoError(t, err)
	}
	db, err := store.Open(filepath.Join(dir, "applications.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &Mailer{
		Sender:   s,
		DB:       db.Pool,
		From:     "nimal@gmail.com",
		Profile:  testProfile(t),
		LeadsDir: leadsDir,
		Rand:     rand.New(rand.NewPCG(1, 2)),
	}
}

func TestComposeSubjectAndBody(t *testing.T) {
	p := testProfile(t)
	d := Compose(p, "Junior Network Engineer", rand.New(rand.NewPCG(7, 7)))

	assert.Equal(t, "Application for the Junior Network Engineer Position - Nimal Perera", d.Subject)
	assert.True(t, strings.HasPrefix(d.Body, "Dear Hiring Manager,"))
	assert.Contains(t, d.Body, "Junior Network Engineer position I saw advertised on TopJobs.lk.")
	assert.Contains(t, d.Body, "I am a networking graduate.")
	assert.Contains(t, d.Body, "+94 77 000 0000 | nimal@example.com")
	assert.Contains(t, d.Body, "LinkedIn: linkedin.com/in/nimal")
	assert.NotContains(t, d.Body, "Portfolio:")

	var opened bool
	for _, o := range openings {
		opened = opened || strings.Contains(d.Body, o+" Junior Network Engineer")
	}
	assert.True(t, opened)
}

func TestComposeIsDeterministicForSeed(t *testing.T) {
	p := testProfile(t)
	a := Compose(p, "DevOps Intern", rand.New(rand.NewPCG(3, 4)))
	b := Compose(p, "DevOps Intern", rand.New(rand.NewPCG(3, 4)))
	assert.Equal(t, a, b)
}

func TestBuildMessage(t *testing.T) {
	p := testProfile(t)
	d := Draft{Subject: "Application for the IT Support Position - Nimal Perera", Body: "Dear Hiring Manager,"}
	raw, err := BuildMessage(&mail.Address{Name: p.Name, Address: "nimal@gmail.com"}, "hr@acme.lk", d, p.ResumePath, time.Now())
	require.NoError(t, err)

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)

	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, d.Subject, subject)

	to, err := mr.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "hr@acme.lk", to[0].Address)

	var sawText, sawAttachment bool
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			sawText = true
		case *mail.AttachmentHeader:
			name, _ := h.Filename()
			assert.Equal(t, "resume.pdf", name)
			sawAttachment = true
		}
	}
	assert.True(t, sawText)
	assert.True(t, sawAttachment)
}

func TestBuildMessageMissingAttachment(t *testing.T) {
	_, err := BuildMessage(&mail.Address{Address: "a@b.c"}, "hr@acme.lk", Draft{}, filepath.Join(t.TempDir(), "nope.pdf"), time.Now())
	assert.Error(t, err)
}

func TestRunSendsToValidRows(t *testing.T) {
	s := &fakeSender{}
	m := newTestMailer(t, s,
		lead("Junior Network Engineer", "hr@acme.lk", "u1"),
		lead("IT Support Officer", domain.EmailNotFound, "u2"),
		lead("Trainee DevOps", "jobs@beta.lk", "u3"),
	)
	arch := &fakeArchiver{}
	m.Archiver = arch

	sum := m.Run(context.Background())
	assert.Equal(t, domain.MailSummary{EmailsSent: 2}, sum)
	require.Len(t, s.out, 2)
	assert.Equal(t, []string{"hr@acme.lk"}, s.out[0].to)
	assert.Equal(t, "nimal@gmail.com", s.out[0].from)
	assert.Equal(t, 2, arch.n)
	assert.True(t, arch.closed)

	// a second pass over the same file sends nothing
	again := m.Run(context.Background())
	assert.Equal(t, domain.MailSummary{EmailsSkipped: 2}, again)
	assert.Len(t, s.out, 2)
}

func TestRunCountsFailures(t *testing.T) {
	s := &fakeSender{fail: map[string]error{"hr@acme.lk": &AuthError{Err: errors.New("535 bad credentials")}}}
	m := newTestMailer(t, s,
		lead("Junior Network Engineer", "hr@acme.lk", "u1"),
		lead("Trainee DevOps", "jobs@beta.lk", "u2"),
	)

	sum := m.Run(context.Background())
	assert.Equal(t, 1, sum.EmailsSent)
	assert.Equal(t, 1, sum.Errors)

	applied, err := store.HasApplied(context.Background(), m.DB, "u1", "hr@acme.lk")
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestRunMissingResumeIsPerRowError(t *testing.T) {
	s := &fakeSender{}
	m := newTestMailer(t, s, lead("Junior Network Engineer", "hr@acme.lk", "u1"))
	m.Profile.ResumePath = filepath.Join(t.TempDir(), "missing.pdf")

	sum := m.Run(context.Background())
	assert.Equal(t, domain.MailSummary{Errors: 1}, sum)
	assert.Empty(t, s.out)
}

func TestRunWithoutCredentials(t *testing.T) {
	m := newTestMailer(t, nil, lead("Junior Network Engineer", "hr@acme.lk", "u1"))
	m.Sender = nil

	sum := m.Run(context.Background())
	assert.Equal(t, domain.MailSummary{Errors: 1}, sum)
}

func TestRunWithoutLeadsFile(t *testing.T) {
	m := newTestMailer(t, &fakeSender{})
	sum := m.Run(context.Background())
	assert.Equal(t, domain.MailSummary{}, sum)
}

func TestRunNoValidEmails(t *testing.T) {
	s := &fakeSender{}
	m := newTestMailer(t, s, lead("IT Support Officer", domain.EmailNotFound, "u1"))
	assert.Equal(t, domain.MailSummary{}, m.Run(context.Background()))
	assert.Empty(t, s.out)
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, isAuthError(&AuthError{Err: errors.New("x")}))
	assert.False(t, isAuthError(errors.New("connection reset")))
}
