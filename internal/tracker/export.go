package tracker

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"
)

// ExportCSV renders the roster as UTF-8 CSV: header id,name,joined_at and
// one row per entry in allocation order. Ids and timestamps round-trip
// losslessly (decimal ids, RFC-3339 UTC).
func (t *Tracker) ExportCSV() ([]byte, error) {
	entries := t.Entries()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "name", "joined_at"}); err != nil {
		return nil, err
	}
	for _, e := range entries {
		row := []string{
			strconv.FormatUint(e.ID, 10),
			e.Name,
			e.JoinedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
