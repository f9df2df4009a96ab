package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/jstittsworth/hoopstats/internal/cache"
	"github.com/jstittsworth/hoopstats/internal/models"
)

const (
	defaultBaseURL  = "https://api.balldontlie.io/v1"
	defaultPerPage  = 100
	defaultMaxPages = 50
)

// Options configures the BALLDONTLIE client.
type Options struct {
	BaseURL          string
	APIKey           string
	Timeout          time.Duration
	RateEvery        time.Duration // minimum spacing between upstream requests
	BreakerThreshold int
	IdentityTTL      time.Duration
	MaxPages         int
}

// BallDontLieClient implements the StatsProvider boundary against the
// BALLDONTLIE API. Every call goes through the rate limiter and circuit
// breaker; identity lookups are cached in Redis with the coarse 24h TTL
// since rosters change far less often than game stats.
type BallDontLieClient struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	identity    *cache.RedisCache // nil disables identity caching
	identityTTL time.Duration
	logger      *logrus.Logger
	rateLimiter *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	maxPages    int
}

// NewBallDontLieClient creates a new BALLDONTLIE API client
func NewBallDontLieClient(opts Options, identity *cache.RedisCache, logger *logrus.Logger) *BallDontLieClient {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = defaultMaxPages
	}
	if opts.IdentityTTL <= 0 {
		opts.IdentityTTL = 24 * time.Hour
	}

	limit := rate.Inf
	if opts.RateEvery > 0 {
		limit = rate.Every(opts.RateEvery)
	}

	threshold := opts.BreakerThreshold
	if threshold <= 0 {
		threshold = 5
	}
	settings := gobreaker.Settings{
		Name:        "balldontlie",
		MaxRequests: uint32(threshold),
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"component": "circuit_breaker",
				"service":   name,
				"from":      from.String(),
				"to":        to.String(),
			}).Info("Circuit breaker state changed")
		},
	}

	return &BallDontLieClient{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		apiKey:      opts.APIKey,
		identity:    identity,
		identityTTL: opts.IdentityTTL,
		logger:      logger,
		rateLimiter: rate.NewLimiter(limit, 1),
		breaker:     gobreaker.NewCircuitBreaker(settings),
		maxPages:    opts.MaxPages,
	}
}

// BALLDONTLIE API response structures
type bdlMeta struct {
	NextPage int `json:"next_page"`
	PerPage  int `json:"per_page"`
}

type bdlTeam struct {
	ID           int    `json:"id"`
	City         string `json:"city"`
	Name         string `json:"name"`
	FullName     string `json:"full_name"`
	Abbreviation string `json:"abbreviation"`
}

type bdlPlayer struct {
	ID        int     `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Position  string  `json:"position"`
	Team      bdlTeam `json:"team"`
}

type bdlGame struct {
	ID               int    `json:"id"`
	Date             string `json:"date"`
	Season           int    `json:"season"`
	Postseason       bool   `json:"postseason"`
	HomeTeamID       int    `json:"home_team_id"`
	HomeTeamScore    int    `json:"home_team_score"`
	VisitorTeamID    int    `json:"visitor_team_id"`
	VisitorTeamScore int    `json:"visitor_team_score"`
}

type bdlStat struct {
	ID     int        `json:"id"`
	Min    string     `json:"min"`
	Pts    flexNumber `json:"pts"`
	Reb    flexNumber `json:"reb"`
	Ast    flexNumber `json:"ast"`
	Game   bdlGame    `json:"game"`
	Team   bdlTeam    `json:"team"`
	Player bdlPlayer  `json:"player"`
}

type bdlStatsResponse struct {
	Data []bdlStat `json:"data"`
	Meta bdlMeta   `json:"meta"`
}

type bdlAdvancedStat struct {
	NetRating *float64 `json:"net_rating"`
	Game      struct {
		Date       string `json:"date"`
		Postseason *bool  `json:"postseason"`
	} `json:"game"`
}

type bdlAdvancedResponse struct {
	Data []bdlAdvancedStat `json:"data"`
	Meta bdlMeta           `json:"meta"`
}

type bdlPlayersResponse struct {
	Data []bdlPlayer `json:"data"`
	Meta bdlMeta     `json:"meta"`
}

type bdlPlayerResponse struct {
	Data bdlPlayer `json:"data"`
}

// flexNumber tolerates stat values arriving as JSON numbers, numeric strings
// or null; anything unparseable coerces to 0 so one bad line cannot fail a
// whole player.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexNumber(v)
	return nil
}

func (s bdlStat) toGameRecord() models.GameRecord {
	opponent := s.Game.HomeTeamID
	if s.Team.ID == s.Game.HomeTeamID {
		opponent = s.Game.VisitorTeamID
	}
	return models.GameRecord{
		GameID:           s.Game.ID,
		Date:             s.Game.Date,
		Postseason:       s.Game.Postseason,
		Points:           float64(s.Pts),
		Rebounds:         float64(s.Reb),
		Assists:          float64(s.Ast),
		Minutes:          s.Min,
		TeamID:           s.Team.ID,
		OpponentTeamID:   opponent,
		HomeTeamID:       s.Game.HomeTeamID,
		HomeTeamScore:    s.Game.HomeTeamScore,
		VisitorTeamID:    s.Game.VisitorTeamID,
		VisitorTeamScore: s.Game.VisitorTeamScore,
	}
}

func (p bdlPlayer) toIdentity() models.PlayerIdentity {
	return models.PlayerIdentity{
		ID:               p.ID,
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		Position:         p.Position,
		TeamID:           p.Team.ID,
		TeamName:         p.Team.FullName,
		TeamAbbreviation: p.Team.Abbreviation,
	}
}

// getJSON performs one rate-limited, breaker-protected GET. The bool result
// reports upstream not-found, which callers translate to empty collections.
func (c *BallDontLieClient) getJSON(ctx context.Context, path string, query url.Values, dest interface{}) (bool, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return false, err
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return true, nil
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
		}

		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return false, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// GetGames fetches a player's box-score lines for one season.
func (c *BallDontLieClient) GetGames(ctx context.Context, playerID, season int) ([]models.GameRecord, error) {
	games := []models.GameRecord{}

	for page := 1; page <= c.maxPages; page++ {
		query := url.Values{}
		query.Set("player_ids[]", strconv.Itoa(playerID))
		query.Set("seasons[]", strconv.Itoa(season))
		query.Set("per_page", strconv.Itoa(defaultPerPage))
		query.Set("page", strconv.Itoa(page))

		var resp bdlStatsResponse
		notFound, err := c.getJSON(ctx, "/stats", query, &resp)
		if err != nil {
			return nil, err
		}
		if notFound {
			return []models.GameRecord{}, nil
		}

		for _, stat := range resp.Data {
			games = append(games, stat.toGameRecord())
		}
		if resp.Meta.NextPage == 0 {
			break
		}
	}

	return games, nil
}

// GetAdvancedRatings fetches a player's advanced metric lines for one season.
func (c *BallDontLieClient) GetAdvancedRatings(ctx context.Context, playerID, season int) ([]models.AdvancedRating, error) {
	ratings := []models.AdvancedRating{}

	for page := 1; page <= c.maxPages; page++ {
		query := url.Values{}
		query.Set("player_ids[]", strconv.Itoa(playerID))
		query.Set("seasons[]", strconv.Itoa(season))
		query.Set("per_page", strconv.Itoa(defaultPerPage))
		query.Set("page", strconv.Itoa(page))

		var resp bdlAdvancedResponse
		notFound, err := c.getJSON(ctx, "/stats/advanced", query, &resp)
		if err != nil {
			return nil, err
		}
		if notFound {
			return []models.AdvancedRating{}, nil
		}

		for _, adv := range resp.Data {
			ratings = append(ratings, models.AdvancedRating{
				Date:       adv.Game.Date,
				Postseason: adv.Game.Postseason,
				NetRating:  adv.NetRating,
			})
		}
		if resp.Meta.NextPage == 0 {
			break
		}
	}

	return ratings, nil
}

// GetPlayer fetches a player's identity, served from the 24h Redis cache
// when possible. Upstream not-found comes back as (nil, nil).
func (c *BallDontLieClient) GetPlayer(ctx context.Context, playerID int) (*models.PlayerIdentity, error) {
	key := cache.PlayerIdentityKey(playerID)

	if c.identity != nil {
		var cached models.PlayerIdentity
		err := c.identity.GetJSON(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !cache.IsMiss(err) {
			c.logger.Warnf("Identity cache read failed for player %d: %v", playerID, err)
		}
	}

	var resp bdlPlayerResponse
	notFound, err := c.getJSON(ctx, "/players/"+strconv.Itoa(playerID), nil, &resp)
	if err != nil {
		return nil, err
	}
	if notFound {
		return nil, nil
	}

	identity := resp.Data.toIdentity()
	if c.identity != nil {
		if err := c.identity.SetJSON(ctx, key, identity, c.identityTTL); err != nil {
			c.logger.Warnf("Identity cache write failed for player %d: %v", playerID, err)
		}
	}
	return &identity, nil
}

// GetRoster fetches one page of the active player roster. An empty slice
// marks the end of the walk.
func (c *BallDontLieClient) GetRoster(ctx context.Context, page int) ([]models.PlayerIdentity, error) {
	key := cache.RosterPageKey(page)

	if c.identity != nil {
		var cached []models.PlayerIdentity
		err := c.identity.GetJSON(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !cache.IsMiss(err) {
			c.logger.Warnf("Roster cache read failed for page %d: %v", page, err)
		}
	}

	query := url.Values{}
	query.Set("per_page", strconv.Itoa(defaultPerPage))
	query.Set("page", strconv.Itoa(page))

	var resp bdlPlayersResponse
	notFound, err := c.getJSON(ctx, "/players", query, &resp)
	if err != nil {
		return nil, err
	}
	if notFound {
		return []models.PlayerIdentity{}, nil
	}

	roster := make([]models.PlayerIdentity, 0, len(resp.Data))
	for _, player := range resp.Data {
		roster = append(roster, player.toIdentity())
	}

	if c.identity != nil && len(roster) > 0 {
		if err := c.identity.SetJSON(ctx, key, roster, c.identityTTL); err != nil {
			c.logger.Warnf("Roster cache write failed for page %d: %v", page, err)
		}
	}
	return roster, nil
}
