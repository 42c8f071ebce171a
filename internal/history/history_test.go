package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/ertscan/pkg/models"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndGet(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()

	report := models.Report{
		Mode:   "ladder",
		Source: "<embedded>",
		Ladder: &models.Ladder{Alpha: 9.430340980881654, Base: 8, Source: "dataset",
			Rungs: []models.Rung{{Scale: "nuclear", Exponent: 8}}},
	}
	id, err := s.Record(ctx, report)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "ladder", got.Mode)
	assert.False(t, got.GeneratedAt.IsZero())
	require.NotNil(t, got.Ladder)
	assert.Equal(t, 8, got.Ladder.Rungs[0].Exponent)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListMostRecentFirst(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var ids []string
	for i, mode := range []string{"scan", "ladder", "residual"} {
		r := models.Report{Mode: mode, GeneratedAt: base.Add(time.Duration(i) * time.Minute)}
		if mode == "ladder" {
			r.Ladder = &models.Ladder{Alpha: 1.5}
		}
		id, err := s.Record(ctx, r)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, "residual", runs[0].Mode)
	assert.Nil(t, runs[0].AlphaStar)
	assert.Equal(t, ids[1], runs[1].ID)
	require.NotNil(t, runs[1].AlphaStar)
	assert.Equal(t, 1.5, *runs[1].AlphaStar)
	assert.True(t, runs[1].CreatedAt.Equal(base.Add(time.Minute)))
}

func TestReopenKeepsRuns(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	_, err = s.Record(context.Background(), models.Report{Mode: "scan"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestOpenInvalidPath(t *testing.T) {
	t.Parallel()
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "runs.db"), zerolog.Nop())
	assert.Error(t, err)
}
