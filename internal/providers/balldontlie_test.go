package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *BallDontLieClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)

	return NewBallDontLieClient(Options{
		BaseURL:  srv.URL,
		MaxPages: 5,
	}, nil, log)
}

func TestGetGamesMapsFields(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/stats", r.URL.Path)
		require.Equal(t, "7", r.URL.Query().Get("player_ids[]"))
		require.Equal(t, "2024", r.URL.Query().Get("seasons[]"))

		fmt.Fprint(w, `{
			"data": [{
				"id": 1,
				"min": "34:00",
				"pts": 20,
				"reb": 7,
				"ast": 5,
				"team": {"id": 2},
				"game": {
					"id": 900, "date": "2024-03-01T00:00:00.000Z",
					"postseason": false,
					"home_team_id": 2, "home_team_score": 110,
					"visitor_team_id": 9, "visitor_team_score": 104
				}
			}],
			"meta": {"next_page": 0}
		}`)
	}))

	games, err := client.GetGames(context.Background(), 7, 2024)
	require.NoError(t, err)
	require.Len(t, games, 1)

	g := games[0]
	assert.Equal(t, 900, g.GameID)
	assert.Equal(t, "2024-03-01T00:00:00.000Z", g.Date)
	assert.Equal(t, "34:00", g.Minutes)
	assert.Equal(t, 20.0, g.Points)
	assert.Equal(t, 7.0, g.Rebounds)
	assert.Equal(t, 5.0, g.Assists)
	assert.Equal(t, 2, g.TeamID)
	assert.Equal(t, 9, g.OpponentTeamID)
	assert.Equal(t, 110, g.HomeTeamScore)
	assert.Equal(t, 104, g.VisitorTeamScore)
}

func TestGetGamesCoercesMalformedNumerics(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"data": [{
				"min": "28",
				"pts": "21",
				"reb": null,
				"ast": "junk",
				"team": {"id": 1},
				"game": {"id": 1, "date": "2024-03-01", "home_team_id": 1, "visitor_team_id": 2}
			}],
			"meta": {"next_page": 0}
		}`)
	}))

	games, err := client.GetGames(context.Background(), 7, 2024)
	require.NoError(t, err)
	require.Len(t, games, 1)

	assert.Equal(t, 21.0, games[0].Points)
	assert.Equal(t, 0.0, games[0].Rebounds)
	assert.Equal(t, 0.0, games[0].Assists)
}

func TestGetGamesPaginates(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		next := 2
		if page == "2" {
			next = 0
		}
		fmt.Fprintf(w, `{
			"data": [{
				"min": "30", "pts": 10,
				"team": {"id": 1},
				"game": {"id": %s0, "date": "2024-03-0%s", "home_team_id": 1, "visitor_team_id": 2}
			}],
			"meta": {"next_page": %d}
		}`, page, page, next)
	}))

	games, err := client.GetGames(context.Background(), 7, 2024)
	require.NoError(t, err)
	assert.Len(t, games, 2)
}

func TestGetGamesNotFoundYieldsEmpty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	games, err := client.GetGames(context.Background(), 7, 2024)
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestGetAdvancedRatings(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/stats/advanced", r.URL.Path)
		fmt.Fprint(w, `{
			"data": [
				{"net_rating": 5.2, "game": {"date": "2024-03-01", "postseason": false}},
				{"net_rating": null, "game": {"date": "2024-03-03"}}
			],
			"meta": {"next_page": 0}
		}`)
	}))

	ratings, err := client.GetAdvancedRatings(context.Background(), 7, 2024)
	require.NoError(t, err)
	require.Len(t, ratings, 2)

	require.NotNil(t, ratings[0].NetRating)
	assert.Equal(t, 5.2, *ratings[0].NetRating)
	require.NotNil(t, ratings[0].Postseason)
	assert.False(t, *ratings[0].Postseason)

	assert.Nil(t, ratings[1].NetRating)
	assert.Nil(t, ratings[1].Postseason)
}

func TestGetPlayer(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/players/7", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"id": 7, "first_name": "Jalen", "last_name": "Brunson", "position": "G",
				"team": map[string]interface{}{
					"id": 20, "full_name": "New York Knicks", "abbreviation": "NYK",
				},
			},
		})
	}))

	player, err := client.GetPlayer(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, player)
	assert.Equal(t, 7, player.ID)
	assert.Equal(t, "Jalen", player.FirstName)
	assert.Equal(t, "NYK", player.TeamAbbreviation)
	assert.Equal(t, 20, player.TeamID)
}

func TestGetPlayerNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	player, err := client.GetPlayer(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, player)
}

func TestGetRoster(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/players", r.URL.Path)
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, `{"data": [{"id": 1, "first_name": "A", "last_name": "One", "team": {"id": 3}}], "meta": {"next_page": 2}}`)
			return
		}
		fmt.Fprint(w, `{"data": [], "meta": {"next_page": 0}}`)
	}))

	roster, err := client.GetRoster(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, 1, roster[0].ID)

	empty, err := client.GetRoster(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpstreamErrorSurfaces(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.GetGames(context.Background(), 7, 2024)
	assert.Error(t, err)
}

func TestAPIKeyHeaderSet(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"data": [], "meta": {"next_page": 0}}`)
	}))
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)
	client := NewBallDontLieClient(Options{BaseURL: srv.URL, APIKey: "test-key"}, nil, log)

	_, err := client.GetGames(context.Background(), 7, 2024)
	require.NoError(t, err)
	assert.Equal(t, "test-key", gotAuth)
}
