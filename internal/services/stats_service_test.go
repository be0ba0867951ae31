package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeStreak(t *testing.T) {
	asOf := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	t.Run("no activity", func(t *testing.T) {
		assert.Equal(t, 0, computeStreak(nil, asOf))
	})

	t.Run("single day today", func(t *testing.T) {
		days := []time.Time{day(2025, 6, 15)}
		assert.Equal(t, 1, computeStreak(days, asOf))
	})

	t.Run("three consecutive days ending today", func(t *testing.T) {
		days := []time.Time{day(2025, 6, 15), day(2025, 6, 14), day(2025, 6, 13)}
		assert.Equal(t, 3, computeStreak(days, asOf))
	})

	t.Run("gap breaks streak", func(t *testing.T) {
		days := []time.Time{day(2025, 6, 15), day(2025, 6, 14), day(2025, 6, 12)}
		assert.Equal(t, 2, computeStreak(days, asOf))
	})

	t.Run("no activity today means zero", func(t *testing.T) {
		days := []time.Time{day(2025, 6, 14), day(2025, 6, 13), day(2025, 6, 12)}
		assert.Equal(t, 0, computeStreak(days, asOf))
	})

	t.Run("streak across month boundary", func(t *testing.T) {
		july := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
		days := []time.Time{day(2025, 7, 1), day(2025, 6, 30), day(2025, 6, 29)}
		assert.Equal(t, 3, computeStreak(days, july))
	})

	t.Run("as-of in a zone east of UTC", func(t *testing.T) {
		karachi := time.FixedZone("PKT", 5*60*60)
		local := time.Date(2025, 6, 15, 9, 0, 0, 0, karachi)
		days := []time.Time{day(2025, 6, 15), day(2025, 6, 14)}
		assert.Equal(t, 2, computeStreak(days, local))
	})
}
