// Package file implements the default storage backend: a day-bucketed
// NDJSON listing store and a flat append-only seen-ID ledger, both plain
// text files under one output directory.
package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Ledger is the durable record of every listing ID ever persisted, one ID
// per line. It only grows; there is no removal operation. A missing file
// is the expected first-run state, not an error.
type Ledger struct {
	path string
}

func NewLedger(path string) *Ledger {
	return &Ledger{path: path}
}

// LoadSeen returns every ID ever appended. Blank lines are skipped and
// surrounding whitespace is trimmed.
func (l *Ledger) LoadSeen(ctx context.Context) (map[string]struct{}, error) {
	seen := make(map[string]struct{})

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return seen, nil
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id != "" {
			seen[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan ledger: %w", err)
	}

	return seen, nil
}

// AppendSeen durably records new IDs. Prior records are never rewritten.
func (l *Ledger) AppendSeen(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, id := range ids {
		w.WriteString(id)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return f.Sync()
}
