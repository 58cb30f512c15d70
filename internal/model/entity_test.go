package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSprintStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	day := func(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }

	cases := []struct {
		name   string
		sprint Sprint
		want   string
	}{
		{"active flag wins", Sprint{IsActive: true, StartDate: day(1), EndDate: day(5)}, SprintStatusActive},
		{"ended and inactive", Sprint{StartDate: day(1), EndDate: day(5)}, SprintStatusCompleted},
		{"future window", Sprint{StartDate: day(20), EndDate: day(25)}, SprintStatusPlanned},
		{"current but deactivated", Sprint{StartDate: day(8), EndDate: day(15)}, SprintStatusPlanned},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.sprint.Status(now))
		})
	}
}

func TestSprintWindowContains(t *testing.T) {
	s := Sprint{
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
	}
	// Границы окна включительны.
	require.True(t, s.WindowContains(s.StartDate))
	require.True(t, s.WindowContains(s.EndDate))
	require.True(t, s.WindowContains(time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC)))
	require.False(t, s.WindowContains(s.StartDate.Add(-time.Second)))
	require.False(t, s.WindowContains(s.EndDate.Add(time.Second)))
}

func TestNormalizeID(t *testing.T) {
	require.Equal(t, "5f3a9c", NormalizeID("  5F3A9C "))
	require.Equal(t, "proj-1", NormalizeID("PROJ-1"))
	require.Equal(t, "", NormalizeID("   "))
}

func TestCounterKey(t *testing.T) {
	require.Equal(t, "proj-1_BUG", CounterKey("Proj-1", "bug"))
	// Разный регистр на входе даёт один и тот же счётчик.
	require.Equal(t, CounterKey("PROJ-1", "BUG"), CounterKey("proj-1", " bug "))
}
