package services

import (
	"time"

	"github.com/jstittsworth/hoopstats/internal/models"
)

// gameDayLayouts covers the date shapes the upstream has been seen to emit.
var gameDayLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02",
}

// gameDay truncates a raw upstream date to a UTC year/month/day key. The
// second return is false when the date cannot be parsed at all.
func gameDay(raw string) (time.Time, bool) {
	for _, layout := range gameDayLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// MatchGameRatings joins box-score records to advanced ratings. The two
// sources assign different identifiers to the same real-world game, so the
// only usable join key is calendar-day equality in UTC: for each game the
// first rating on the same day wins, the rating's postseason flag must agree
// with the game's when it carries one, and unparseable dates on either side
// simply never match. A game with no rating keeps a net rating of 0 so that
// downstream averaging stays total.
func MatchGameRatings(games []models.GameRecord, ratings []models.AdvancedRating) []models.MatchedGame {
	matched := make([]models.MatchedGame, 0, len(games))

	for _, game := range games {
		mg := models.MatchedGame{Game: game}

		if day, ok := gameDay(game.Date); ok {
			for _, rating := range ratings {
				if rating.Postseason != nil && *rating.Postseason != game.Postseason {
					continue
				}
				ratingDay, ok := gameDay(rating.Date)
				if !ok || !ratingDay.Equal(day) {
					continue
				}
				if rating.NetRating != nil {
					mg.NetRating = *rating.NetRating
					mg.RatingFound = true
				}
				break
			}
		}

		matched = append(matched, mg)
	}

	return matched
}
