package models

import (
	"strconv"
	"strings"
)

// PlayerIdentity holds the slow-changing player and team metadata served
// alongside computed stats.
type PlayerIdentity struct {
	ID               int    `json:"id"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Position         string `json:"position"`
	TeamID           int    `json:"team_id"`
	TeamName         string `json:"team_name"`
	TeamAbbreviation string `json:"team_abbreviation"`
}

// GameRecord is one player's box-score line for one game. Minutes stays a
// string because the upstream emits "34", "34:12", "00" and empty for DNP.
type GameRecord struct {
	GameID           int     `json:"game_id"`
	Date             string  `json:"date"`
	Postseason       bool    `json:"postseason"`
	Points           float64 `json:"points"`
	Rebounds         float64 `json:"rebounds"`
	Assists          float64 `json:"assists"`
	Minutes          string  `json:"minutes"`
	TeamID           int     `json:"team_id"`
	OpponentTeamID   int     `json:"opponent_team_id"`
	HomeTeamID       int     `json:"home_team_id"`
	HomeTeamScore    int     `json:"home_team_score"`
	VisitorTeamID    int     `json:"visitor_team_id"`
	VisitorTeamScore int     `json:"visitor_team_score"`
}

// AdvancedRating is one player's advanced metric line for one game. The
// upstream may omit both the postseason flag and the rating itself.
type AdvancedRating struct {
	Date       string   `json:"date"`
	Postseason *bool    `json:"postseason,omitempty"`
	NetRating  *float64 `json:"net_rating,omitempty"`
}

// MatchedGame pairs a box-score line with the advanced rating resolved for
// the same calendar day. NetRating is 0 when no rating was found so that
// downstream arithmetic stays total; RatingFound preserves the distinction.
type MatchedGame struct {
	Game        GameRecord `json:"game"`
	NetRating   float64    `json:"net_rating"`
	RatingFound bool       `json:"rating_found"`
}

// SeasonSplit aggregates one cohort (regular season or postseason) of a
// player's games. GamesPlayed of zero implies all averages are zero.
type SeasonSplit struct {
	GamesPlayed int     `json:"games_played"`
	Points      float64 `json:"avg_points"`
	Rebounds    float64 `json:"avg_rebounds"`
	Assists     float64 `json:"avg_assists"`
	NetRating   float64 `json:"avg_net_rating"`
}

// PlayerPayload is the unit stored and served by the cache. It is replaced
// wholesale on refresh and never mutated in place.
type PlayerPayload struct {
	Player        PlayerIdentity `json:"player"`
	Season        int            `json:"season"`
	RegularSeason SeasonSplit    `json:"regular_season"`
	Postseason    SeasonSplit    `json:"postseason"`
	RecentGames   []MatchedGame  `json:"recent_games"`
}

// ParseMinutes converts an upstream minutes field to a float. "34" and
// "34:12" both parse; "00", "0", empty and garbage all come back as 0,
// which callers treat as did-not-play.
func ParseMinutes(min string) float64 {
	min = strings.TrimSpace(min)
	if min == "" {
		return 0
	}

	if idx := strings.Index(min, ":"); idx >= 0 {
		whole, err := strconv.ParseFloat(min[:idx], 64)
		if err != nil {
			return 0
		}
		secs, err := strconv.ParseFloat(min[idx+1:], 64)
		if err != nil {
			return whole
		}
		return whole + secs/60
	}

	val, err := strconv.ParseFloat(min, 64)
	if err != nil {
		return 0
	}
	return val
}

// DidNotPlay reports whether the record's minutes mean the player sat out.
func (g GameRecord) DidNotPlay() bool {
	return ParseMinutes(g.Minutes) == 0
}
