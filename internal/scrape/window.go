package scrape

import "time"

// Window is an inclusive range of calendar dates. Dates are compared by
// year, month and day in whatever location they carry; no timezone
// conversion happens.
type Window struct {
	From time.Time
	To   time.Time
}

// RecencyWindow covers the last days days up to and including today.
func RecencyWindow(today time.Time, days int) Window {
	to := dateOnly(today)
	return Window{From: to.AddDate(0, 0, -days), To: to}
}

func (w Window) Contains(d time.Time) bool {
	day := dateOnly(d)
	return !day.Before(w.From) && !day.After(w.To)
}

// dateOnly maps a time to midnight UTC of its own calendar day, so DST
// transitions cannot shift comparisons.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
