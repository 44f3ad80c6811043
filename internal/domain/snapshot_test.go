package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSnapshotKey_FixedWidthAndZeroPadded(t *testing.T) {
	at := time.Date(2024, time.January, 2, 3, 4, 5, 999_000_000, time.UTC)
	require.Equal(t, "20240102030405", SnapshotKey(at))
	require.True(t, ValidSnapshotKey(SnapshotKey(at)))
}

func TestSnapshotKey_UsesCaptureLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	at := time.Date(2024, time.March, 10, 23, 30, 0, 0, loc)
	require.Equal(t, "20240310233000", SnapshotKey(at))
}

func TestSnapshotKey_OrderMatchesChronology(t *testing.T) {
	base := time.Date(2023, time.December, 31, 23, 59, 59, 0, time.UTC)
	earlier := SnapshotKey(base)
	later := SnapshotKey(base.Add(time.Second))
	require.Less(t, earlier, later)
	require.Equal(t, "20240101000000", later)
}

func TestValidSnapshotKey(t *testing.T) {
	cases := map[string]bool{
		"20240102030405":   true,
		"":                 false,
		"2024010203040":    false,
		"202401020304055":  false,
		"2024-01-02T03:04": false,
		"../../etc/passwd": false,
		"nonexistent-key":  false,
		"2024010203040a":   false,
	}
	for key, want := range cases {
		require.Equal(t, want, ValidSnapshotKey(key), key)
	}
}
