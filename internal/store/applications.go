package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Application is one application email that went out.
type Application struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	Email     string    `json:"email"`
	Title     string    `json:"title"`
	LeadsFile string    `json:"leads_file"`
	SentAt    time.Time `json:"sent_at"`
}

// RecordApplication stores a sent application. It reports false when the
// same url/email pair was already recorded.
func RecordApplication(ctx context.Context, db *sql.DB, a Application) (added bool, err error) {
	if strings.TrimSpace(a.URL) == "" || strings.TrimSpace(a.Email) == "" {
		return false, errors.New("application needs url and email")
	}
	if a.SentAt.IsZero() {
		a.SentAt = time.Now().UTC()
	}

	res, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO applications(url, email, title, leads_file, sent_at)
VALUES(?,?,?,?,?);`,
		strings.TrimSpace(a.URL),
		strings.ToLower(strings.TrimSpace(a.Email)),
		a.Title,
		a.LeadsFile,
		a.SentAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("insert application: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// HasApplied reports whether an application for url was already sent to email.
func HasApplied(ctx context.Context, db *sql.DB, url, email string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, `
SELECT 1 FROM applications WHERE url = ? AND email = ? LIMIT 1;`,
		strings.TrimSpace(url), strings.ToLower(strings.TrimSpace(email)),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListApplications returns the most recent applications first.
func ListApplications(ctx context.Context, db *sql.DB, limit int) ([]Application, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx, `
SELECT id, url, email, title, leads_file, sent_at
FROM applications
ORDER BY sent_at DESC, id DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Application
	for rows.Next() {
		var a Application
		var sentAt string
		if err := rows.Scan(&a.ID, &a.URL, &a.Email, &a.Title, &a.LeadsFile, &sentAt); err != nil {
			return nil, err
		}
		a.SentAt, _ = time.Parse(time.RFC3339, sentAt)
		out = append(out, a)
	}
	return out, rows.Err()
}
