package services

import (
	"sort"

	"github.com/jstittsworth/hoopstats/internal/models"
)

const defaultRecentGamesLimit = 20

// AggregatorOptions tunes how splits are computed.
type AggregatorOptions struct {
	// RecentGamesLimit caps the recent-games list attached to a payload.
	RecentGamesLimit int

	// ExcludeUnratedFromNetRating averages net rating over rated games only
	// instead of counting a missing rating as zero. Off by default because
	// consumers expect the historical zero-fill behavior.
	ExcludeUnratedFromNetRating bool
}

// StatAggregator turns a player's matched games into season splits.
type StatAggregator struct {
	opts AggregatorOptions
}

func NewStatAggregator(opts AggregatorOptions) *StatAggregator {
	if opts.RecentGamesLimit <= 0 {
		opts.RecentGamesLimit = defaultRecentGamesLimit
	}
	return &StatAggregator{opts: opts}
}

// Aggregate partitions matched games into regular-season and postseason
// cohorts, filters out games the player sat out, and computes per-cohort
// averages. The recent-games list is the full matched set sorted most recent
// first, independent of the cohort partition.
func (a *StatAggregator) Aggregate(matched []models.MatchedGame) (regular, postseason models.SeasonSplit, recent []models.MatchedGame) {
	var regularGames, postGames []models.MatchedGame
	for _, mg := range matched {
		if mg.Game.Postseason {
			postGames = append(postGames, mg)
		} else {
			regularGames = append(regularGames, mg)
		}
	}

	regular = a.split(regularGames)
	postseason = a.split(postGames)
	recent = a.recentGames(matched)
	return regular, postseason, recent
}

// split averages one cohort. Zero played games yields the zero split, never
// NaN.
func (a *StatAggregator) split(games []models.MatchedGame) models.SeasonSplit {
	var s models.SeasonSplit
	var points, rebounds, assists, netRating float64
	rated := 0

	for _, mg := range games {
		if mg.Game.DidNotPlay() {
			continue
		}
		s.GamesPlayed++
		points += mg.Game.Points
		rebounds += mg.Game.Rebounds
		assists += mg.Game.Assists
		netRating += mg.NetRating
		if mg.RatingFound {
			rated++
		}
	}

	if s.GamesPlayed == 0 {
		return s
	}

	played := float64(s.GamesPlayed)
	s.Points = points / played
	s.Rebounds = rebounds / played
	s.Assists = assists / played

	if a.opts.ExcludeUnratedFromNetRating {
		if rated > 0 {
			s.NetRating = netRating / float64(rated)
		}
	} else {
		s.NetRating = netRating / played
	}

	return s
}

func (a *StatAggregator) recentGames(matched []models.MatchedGame) []models.MatchedGame {
	recent := make([]models.MatchedGame, len(matched))
	copy(recent, matched)

	sort.SliceStable(recent, func(i, j int) bool {
		di, oki := gameDay(recent[i].Game.Date)
		dj, okj := gameDay(recent[j].Game.Date)
		if oki && okj {
			return di.After(dj)
		}
		// parseable dates sort ahead of garbage
		return oki && !okj
	})

	if len(recent) > a.opts.RecentGamesLimit {
		recent = recent[:a.opts.RecentGamesLimit]
	}
	return recent
}
