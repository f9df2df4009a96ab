// Package season labels NBA seasons by the calendar year they start in.
package season

import "time"

// seasonStartMonth is October; games before it belong to the prior label.
const seasonStartMonth = time.October

// CurrentSeason returns the label of the season in progress on the given day.
// A season is labeled by the year it starts in, so anything before October
// still belongs to the previous year's season.
func CurrentSeason(today time.Time) int {
	if today.Month() < seasonStartMonth {
		return today.Year() - 1
	}
	return today.Year()
}

// LastNSeasons returns n consecutive season labels ascending, ending at the
// current season. n <= 0 yields an empty slice.
func LastNSeasons(n int, today time.Time) []int {
	if n <= 0 {
		return []int{}
	}

	current := CurrentSeason(today)
	seasons := make([]int, 0, n)
	for s := current - n + 1; s <= current; s++ {
		seasons = append(seasons, s)
	}
	return seasons
}
