package store

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

const trackingColumn = "url"

// LoadTracking reads the set of already processed posting URLs. It never
// fails: a missing, empty or unreadable file yields an empty set, and only
// real read errors are logged. Each line is parsed on its own so a damaged
// row never hides the rows after it.
func LoadTracking(path string, log *slog.Logger) mapset.Set[string] {
	if log == nil {
		log = slog.Default()
	}
	set := mapset.NewThreadUnsafeSet[string]()

	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn("[store] cannot read tracking file, starting empty", "file", path, "err", err)
		}
		return set
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	col := -1
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := parseTrackingLine(line)
		if err != nil {
			// keep the raw text so the identifier survives the next save
			log.Warn("[store] damaged tracking row kept as-is", "file", path, "line", lineNo, "err", err)
			rec = []string{line}
		}

		if col < 0 {
			col = headerIndex(rec)
			if col >= 0 {
				continue
			}
			// headerless file written by hand
			col = 0
		}

		if col < len(rec) {
			if id := strings.TrimSpace(rec[col]); id != "" {
				set.Add(id)
			}
		}
	}
	if err := sc.Err(); err != nil {
		log.Warn("[store] tracking file read stopped early", "file", path, "rows", set.Cardinality(), "err", err)
	}
	return set
}

func parseTrackingLine(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.Read()
}

func headerIndex(rec []string) int {
	for i, h := range rec {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), trackingColumn) {
			return i
		}
	}
	return -1
}

// SaveTracking replaces the tracking file with the full set, one URL per
// row under a "url" header. Rows are sorted to keep diffs readable.
func SaveTracking(path string, set mapset.Set[string]) error {
	ids := set.ToSlice()
	sort.Strings(ids)

	return WriteFileAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{trackingColumn}); err != nil {
			return err
		}
		for _, id := range ids {
			if err := cw.Write([]string{id}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}
