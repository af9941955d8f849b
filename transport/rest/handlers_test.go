package rest

import (
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/playpoints/xo-backend/internal/bot"
	"github.com/playpoints/xo-backend/internal/entity"
	"github.com/playpoints/xo-backend/internal/ledger"
	"github.com/playpoints/xo-backend/internal/registry"
	"github.com/playpoints/xo-backend/internal/usecase"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	pointsLedger := ledger.New(logger, 100, nil, nil)
	agent := bot.New(rand.New(rand.NewSource(42)))

	uMatch := usecase.NewMatchUseCase(logger, usecase.Config{
		MinWager: 10,
		MaxWager: 1000,
	}, pointsLedger, registry.New(), agent, nil)

	return New(logger, uMatch)
}

func doJSON(t *testing.T, server *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	server.echo.ServeHTTP(rec, req)

	return rec
}

func TestServer_Ping(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/ping", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "pong", rec.Body.String())
}

func TestServer_ChallengeFlow(t *testing.T) {
	server := newTestServer(t)

	// Given: alice opens a 30 point challenge
	rec := doJSON(t, server, http.MethodPost, "/api/challenges",
		`{"challenger_id":"alice","opponent_id":"bob","wager":30}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var challenge entity.MatchState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &challenge))
	require.Equal(t, entity.StatusWaiting, challenge.Status)

	// When: bob accepts
	rec = doJSON(t, server, http.MethodPost, "/api/challenges/"+challenge.ID+"/accept",
		`{"accepter_id":"bob"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var match entity.MatchState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &match))
	require.Equal(t, entity.StatusInProgress, match.Status)
	require.Equal(t, entity.WagerHeld, match.Wager.Status)

	// Then: both balances show the held stake
	rec = doJSON(t, server, http.MethodGet, "/api/balances/alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"user_id":"alice","balance":70}`, rec.Body.String())

	// When: alice plays the top row and wins
	for _, move := range []struct {
		user string
		cell int
	}{
		{"alice", 0}, {"bob", 3}, {"alice", 1}, {"bob", 4}, {"alice", 2},
	} {
		body, err := json.Marshal(submitMoveRequest{UserID: move.user, Cell: move.cell})
		require.NoError(t, err)

		rec = doJSON(t, server, http.MethodPost, "/api/matches/"+challenge.ID+"/moves", string(body))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	var finished entity.MatchState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &finished))
	require.Equal(t, entity.StatusFinished, finished.Status)
	require.Equal(t, entity.OutcomeWinX, finished.Outcome)

	rec = doJSON(t, server, http.MethodGet, "/api/balances/alice", "")
	require.JSONEq(t, `{"user_id":"alice","balance":130}`, rec.Body.String())

	rec = doJSON(t, server, http.MethodGet, "/api/balances/bob", "")
	require.JSONEq(t, `{"user_id":"bob","balance":70}`, rec.Body.String())

	// When: alice acknowledges the result
	rec = doJSON(t, server, http.MethodPost, "/api/matches/"+challenge.ID+"/ack",
		`{"user_id":"alice"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/matches/"+challenge.ID, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ErrorMapping(t *testing.T) {
	t.Run("unknown match is 404", func(t *testing.T) {
		server := newTestServer(t)

		rec := doJSON(t, server, http.MethodGet, "/api/matches/nope", "")

		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("out-of-range wager is 400", func(t *testing.T) {
		server := newTestServer(t)

		rec := doJSON(t, server, http.MethodPost, "/api/challenges",
			`{"challenger_id":"alice","wager":5}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("move out of turn is 403", func(t *testing.T) {
		server := newTestServer(t)

		rec := doJSON(t, server, http.MethodPost, "/api/challenges",
			`{"challenger_id":"alice"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var challenge entity.MatchState
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &challenge))

		rec = doJSON(t, server, http.MethodPost, "/api/challenges/"+challenge.ID+"/accept",
			`{"accepter_id":"bob"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, server, http.MethodPost, "/api/matches/"+challenge.ID+"/moves",
			`{"user_id":"bob","cell":0}`)

		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("busy challenger is 409", func(t *testing.T) {
		server := newTestServer(t)

		rec := doJSON(t, server, http.MethodPost, "/api/challenges", `{"challenger_id":"alice"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = doJSON(t, server, http.MethodPost, "/api/challenges", `{"challenger_id":"alice"}`)

		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("uncoverable stake is 402", func(t *testing.T) {
		server := newTestServer(t)

		rec := doJSON(t, server, http.MethodPost, "/api/challenges",
			`{"challenger_id":"alice","wager":500}`)

		require.Equal(t, http.StatusPaymentRequired, rec.Code)
	})
}
