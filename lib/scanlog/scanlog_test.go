package scanlog

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"litterwatch/lib/telemetry"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestStore(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scanlog")
	defer cleanup()

	sqlite, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	_, err = sqlite.Exec(schema)
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(sqlite)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	{
		records, err := store.Recent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, records, 0)
	}
	{
		start := time.Date(2025, 8, 20, 9, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			err := store.Append(ctx, Record{
				StartTime:       start.Add(time.Duration(i) * time.Hour),
				EndTime:         start.Add(time.Duration(i)*time.Hour + 42*time.Second),
				DurationSeconds: 42,
				UrlsChecked:     2,
				ChangesDetected: i,
				Errors:          0,
				Status:          "success",
			})
			require.NoError(t, err)
		}

		records, err := store.Recent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, records, 2)

		// newest first
		require.Equal(t, 2, records[0].ChangesDetected)
		require.Equal(t, 1, records[1].ChangesDetected)
		require.Equal(t, "success", records[0].Status)
		require.Equal(t, start.Add(2*time.Hour).Unix(), records[0].StartTime.Unix())
	}
}

func TestOpenAppliesSchema(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scanlog")
	defer cleanup()

	store, err := Open(Config{File: t.TempDir() + "/scan_history.db"})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Append(ctx, Record{
		StartTime: time.Now(),
		EndTime:   time.Now(),
		Status:    "no_urls",
	}))

	records, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "no_urls", records[0].Status)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
}
