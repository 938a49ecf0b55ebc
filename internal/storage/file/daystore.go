package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"marketwatch/internal/domain"
)

// DayStore appends enriched listings to one NDJSON file per UTC calendar
// day, one listing per line. Files are only ever appended to.
type DayStore struct {
	dir string
	now func() time.Time
}

func NewDayStore(dir string) *DayStore {
	return &DayStore{
		dir: dir,
		now: time.Now,
	}
}

// AppendListings writes the given listings to today's bucket and syncs the
// file before returning, so a success here means the records are durable.
func (s *DayStore) AppendListings(ctx context.Context, listings []domain.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	path := s.bucketPath(s.now().UTC())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open day bucket: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	for i := range listings {
		if err := enc.Encode(&listings[i]); err != nil {
			return fmt.Errorf("encode listing %s: %w", listings[i].ID, err)
		}
	}

	return f.Sync()
}

func (s *DayStore) bucketPath(day time.Time) string {
	return filepath.Join(s.dir, fmt.Sprintf("listings_%s.ndjson", day.Format("20060102")))
}
