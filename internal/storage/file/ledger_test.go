package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_LoadSeen_FirstRunIsEmpty(t *testing.T) {
	ledger := NewLedger(filepath.Join(t.TempDir(), "seen_ids.txt"))

	seen, err := ledger.LoadSeen(context.Background())

	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestLedger_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seen_ids.txt")

	require.NoError(t, NewLedger(path).AppendSeen(ctx, []string{"a", "b"}))

	// A fresh load must see everything appended before it.
	seen, err := NewLedger(path).LoadSeen(ctx)
	require.NoError(t, err)
	assert.Contains(t, seen, "a")
	assert.Contains(t, seen, "b")
	assert.Len(t, seen, 2)
}

func TestLedger_AppendIsCumulative(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(filepath.Join(t.TempDir(), "seen_ids.txt"))

	require.NoError(t, ledger.AppendSeen(ctx, []string{"a"}))
	require.NoError(t, ledger.AppendSeen(ctx, []string{"b", "c"}))

	seen, err := ledger.LoadSeen(ctx)
	require.NoError(t, err)
	assert.Len(t, seen, 3)
}

func TestLedger_AppendEmptyIsNoop(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seen_ids.txt")
	ledger := NewLedger(path)

	require.NoError(t, ledger.AppendSeen(ctx, nil))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLedger_LoadSeen_SkipsBlankLines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seen_ids.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\n\n  b  \n\n"), 0o644))

	seen, err := NewLedger(path).LoadSeen(ctx)

	require.NoError(t, err)
	assert.Contains(t, seen, "a")
	assert.Contains(t, seen, "b")
	assert.Len(t, seen, 2)
}
