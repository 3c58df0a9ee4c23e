package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jobapply-engine/internal/domain"
)

const (
	leadsPrefix = "topjobs_leads_"
	leadsLayout = "2006-01-02_150405"
)

// LeadsColumns is the exact header of a leads export.
var LeadsColumns = []string{"title", "email", "url"}

// ErrNoLeadsFile is returned when a leads directory holds no export yet.
var ErrNoLeadsFile = errors.New("no leads file found")

func LeadsFileName(at time.Time) string {
	return leadsPrefix + at.Format(leadsLayout) + ".csv"
}

// WriteLeads saves leads as a timestamped CSV in dir and returns its path.
func WriteLeads(dir string, leads []domain.Lead, at time.Time) (string, error) {
	path := filepath.Join(dir, LeadsFileName(at))
	err := WriteFileAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(LeadsColumns); err != nil {
			return err
		}
		for _, l := range leads {
			email := strings.TrimSpace(l.Email)
			if email == "" {
				email = domain.EmailNotFound
			}
			if err := cw.Write([]string{l.Title, email, l.URL}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return "", fmt.Errorf("write leads %s: %w", path, err)
	}
	return path, nil
}

// LatestLeadsFile returns the most recently written export in dir.
func LatestLeadsFile(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, leadsPrefix+"*.csv"))
	if err != nil {
		return "", err
	}

	var best string
	var bestMod time.Time
	for _, m := range matches {
		st, err := os.Stat(m)
		if err != nil || st.IsDir() {
			continue
		}
		mod := st.ModTime()
		// names carry the timestamp, so they break mtime ties
		if best == "" || mod.After(bestMod) || (mod.Equal(bestMod) && m > best) {
			best, bestMod = m, mod
		}
	}
	if best == "" {
		return "", ErrNoLeadsFile
	}
	return best, nil
}

// ReadLeads parses a leads export. Columns are located by header name.
func ReadLeads(path string) ([]domain.Lead, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read leads header %s: %w", path, err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range LeadsColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("leads file %s: missing column %q", path, c)
		}
	}

	field := func(rec []string, name string) string {
		i := idx[name]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []domain.Lead
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("read leads %s: %w", path, err)
		}
		out = append(out, domain.Lead{
			PostingSummary: domain.PostingSummary{
				Title: field(rec, "title"),
				URL:   field(rec, "url"),
			},
			Email: field(rec, "email"),
		})
	}
	return out, nil
}
