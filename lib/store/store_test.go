package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"litterwatch/lib/litter"
	"litterwatch/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func testLitters() []litter.Litter {
	return litter.Tag([]litter.Litter{
		{KennelName: "Van de Gouden Velden", Breeder: "J. Jansen", MatingDate: "12-08-2025", ExpectedDate: "14-10-2025"},
		{KennelName: "Hof ter Duinen", Breeder: "P. de Boer", MatingDate: "01-09-2025"},
		{KennelName: "Of the Golden Meadow", Breeder: "J. de Vries", ExpectedDate: "30 oktober 2025"},
	}, "Test Source", "https://example.org/nesten")
}

func TestStore(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:store")
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	path := filepath.Join(t.TempDir(), "previous_litters.json")
	s := New(path)
	litters := testLitters()

	{
		// first run, nothing stored yet
		require.Empty(t, s.PreviousIdentities(ctx))

		fresh := s.DetectNew(ctx, litters)
		require.Len(t, fresh, 3)
		require.Equal(t, litters[0].ID, fresh[0].ID)
		require.Equal(t, litters[1].ID, fresh[1].ID)
		require.Equal(t, litters[2].ID, fresh[2].ID)
	}
	{
		err := s.Update(ctx, litters)
		require.NoError(t, err)

		require.Empty(t, s.DetectNew(ctx, litters))
		require.Len(t, s.All(ctx), 3)
	}
	{
		// a batch with one unseen litter reports exactly that litter
		extra := litter.Tag([]litter.Litter{
			{KennelName: "Nieuw Nest", Breeder: "K. Smit", MatingDate: "05-09-2025"},
		}, "Test Source", "https://example.org/nesten")

		fresh := s.DetectNew(ctx, append(litters, extra...))
		require.Len(t, fresh, 1)
		require.Equal(t, extra[0].ID, fresh[0].ID)
	}
	{
		// duplicate IDs within one batch keep the first occurrence
		dup := litter.Tag([]litter.Litter{
			{KennelName: "Dubbel", Breeder: "A. Bakker", MatingDate: "06-09-2025", Location: "eerste"},
			{KennelName: "Dubbel", Breeder: "A. Bakker", MatingDate: "06-09-2025", Location: "tweede"},
		}, "Test Source", "https://example.org/nesten")
		require.Equal(t, dup[0].ID, dup[1].ID)

		fresh := s.DetectNew(ctx, dup)
		require.Len(t, fresh, 1)
		require.Equal(t, "eerste", fresh[0].Location)
	}
	{
		// update is idempotent
		before := s.All(ctx)
		require.NoError(t, s.Update(ctx, litters))
		require.Empty(t, cmp.Diff(before, s.All(ctx)))
	}
	{
		// prune drops everything outside the keep set
		keep := map[string]struct{}{litters[0].ID: {}}
		require.NoError(t, s.Prune(ctx, keep))

		all := s.All(ctx)
		require.Len(t, all, 1)
		_, ok := all[litters[0].ID]
		require.True(t, ok)
	}
}

func TestPruneWithoutRemovalsDoesNotWrite(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:store")
	defer cleanup()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "previous_litters.json")
	s := New(path)

	require.NoError(t, s.Prune(ctx, map[string]struct{}{"anything": {}}))

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestCorruptStoreTreatedAsEmpty(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:store")
	defer cleanup()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "previous_litters.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := New(path)
	litters := testLitters()

	// everything is re-announced rather than silently dropped
	require.Empty(t, s.PreviousIdentities(ctx))
	require.Len(t, s.DetectNew(ctx, litters), 3)

	// the next update heals the file
	require.NoError(t, s.Update(ctx, litters))
	require.Len(t, s.All(ctx), 3)
	require.Empty(t, s.DetectNew(ctx, litters))
}

func TestUpdateSkipsUntaggedLitters(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:store")
	defer cleanup()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "previous_litters.json")
	s := New(path)

	require.NoError(t, s.Update(ctx, []litter.Litter{{KennelName: "Zonder ID"}}))
	require.Empty(t, s.All(ctx))
}
