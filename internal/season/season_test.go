package season

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCurrentSeason(t *testing.T) {
	tests := []struct {
		name     string
		today    time.Time
		expected int
	}{
		{
			name:     "January belongs to previous year's season",
			today:    time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
			expected: 2023,
		},
		{
			name:     "September still belongs to previous season",
			today:    time.Date(2024, time.September, 30, 23, 59, 59, 0, time.UTC),
			expected: 2023,
		},
		{
			name:     "October 1 starts the new season",
			today:    time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC),
			expected: 2024,
		},
		{
			name:     "December belongs to the current year's season",
			today:    time.Date(2024, time.December, 25, 12, 0, 0, 0, time.UTC),
			expected: 2024,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CurrentSeason(tt.today))
		})
	}
}

func TestLastNSeasons(t *testing.T) {
	today := time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, []int{2022, 2023, 2024}, LastNSeasons(3, today))
	assert.Equal(t, []int{2024}, LastNSeasons(1, today))
	assert.Empty(t, LastNSeasons(0, today))
	assert.Empty(t, LastNSeasons(-2, today))
}

func TestLastNSeasonsBeforeSeasonStart(t *testing.T) {
	today := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, []int{2023, 2024}, LastNSeasons(2, today))
}
