package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobapply-engine/internal/domain"
)

type fakeScraper struct {
	sum   domain.RunSummary
	panic bool
	block chan struct{}
}

func (f *fakeScraper) RunOnce(context.Context) domain.RunSummary {
	if f.block != nil {
		<-f.block
	}
	if f.panic {
		panic("boom")
	}
	return f.sum
}

type fakeMailer struct {
	calls int
	sum   domain.MailSummary
}

func (f *fakeMailer) Run(context.Context) domain.MailSummary {
	f.calls++
	return f.sum
}

type fakeReporter struct {
	got []domain.RunSummary
	err error
}

func (f *fakeReporter) Report(_ context.Context, sum domain.RunSummary) error {
	f.got = append(f.got, sum)
	return f.err
}

func TestRunOnceMailsOnlyWithNewLeads(t *testing.T) {
	m := &fakeMailer{sum: domain.MailSummary{EmailsSent: 2, Errors: 1}}
	rep := &fakeReporter{}
	r := &Runner{
		Scrape:   &fakeScraper{sum: domain.RunSummary{RunID: "r1", TotalFound: 10, NewLeadsFound: 3, Extracted: 3}},
		Mail:     m,
		Reporter: rep,
	}

	sum := r.RunOnce(context.Background())
	assert.Equal(t, 1, m.calls)
	assert.Equal(t, 2, sum.EmailsSent)
	assert.Equal(t, 1, sum.Errors)
	require.Len(t, rep.got, 1)
	assert.Equal(t, sum, rep.got[0])

	r.Scrape = &fakeScraper{sum: domain.RunSummary{TotalFound: 10}}
	sum = r.RunOnce(context.Background())
	assert.Equal(t, 1, m.calls)
	assert.Equal(t, 0, sum.EmailsSent)
}

func TestRunOnceWithoutMailer(t *testing.T) {
	r := &Runner{Scrape: &fakeScraper{sum: domain.RunSummary{NewLeadsFound: 1}}}
	sum := r.RunOnce(context.Background())
	assert.Equal(t, 1, sum.NewLeadsFound)
}

func TestRunOnceRecoversAndStillReports(t *testing.T) {
	rep := &fakeReporter{err: errors.New("telegram down")}
	r := &Runner{Scrape: &fakeScraper{panic: true}, Reporter: rep}

	var sum domain.RunSummary
	assert.NotPanics(t, func() { sum = r.RunOnce(context.Background()) })
	assert.Equal(t, 1, sum.Errors)
	assert.Len(t, rep.got, 1)
}

func TestPollerUpdatesStatus(t *testing.T) {
	status := &atomic.Value{}
	p := NewPoller(&Runner{Scrape: &fakeScraper{sum: domain.RunSummary{RunID: "r1", Extracted: 2}}}, status, nil)

	sum, err := p.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r1", sum.RunID)

	st := p.CurrentStatus()
	assert.False(t, st.Running)
	assert.Equal(t, "r1", st.LastRunID)
	assert.Equal(t, 2, st.LastLeads)
	assert.Empty(t, st.LastError)
	assert.NotEmpty(t, st.LastOkAt)
}

type recorder struct{ got []string }

func (r *recorder) Publish(evt string) { r.got = append(r.got, evt) }

func TestPollerPublishesEvents(t *testing.T) {
	rec := &recorder{}
	p := NewPoller(&Runner{Scrape: &fakeScraper{sum: domain.RunSummary{RunID: "r9"}}}, nil, nil)
	p.Events = rec

	_, err := p.RunNow(context.Background())
	require.NoError(t, err)
	require.Len(t, rec.got, 2)
	assert.Contains(t, rec.got[0], `"type":"run_started"`)
	assert.Contains(t, rec.got[1], `"type":"run_finished"`)
	assert.Contains(t, rec.got[1], `"run_id":"r9"`)
}

func TestPollerStatusOnErrors(t *testing.T) {
	p := NewPoller(&Runner{Scrape: &fakeScraper{sum: domain.RunSummary{Errors: 2}}}, nil, nil)
	_, err := p.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2 errors, see automation.log", p.CurrentStatus().LastError)
	assert.Empty(t, p.CurrentStatus().LastOkAt)
}

func TestPollerIsSingleFlight(t *testing.T) {
	block := make(chan struct{})
	p := NewPoller(&Runner{Scrape: &fakeScraper{block: block}}, nil, nil)

	require.True(t, p.Kick(context.Background()))
	assert.Eventually(t, func() bool { return p.CurrentStatus().Running }, time.Second, 5*time.Millisecond)

	assert.False(t, p.Kick(context.Background()))
	_, err := p.RunNow(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(block)
	assert.Eventually(t, func() bool {
		_, err := p.RunNow(context.Background())
		return err == nil
	}, time.Second, 5*time.Millisecond)
}
