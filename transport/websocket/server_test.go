package websocket

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/sudoku-duel-backend/internal/entity"
	"github.com/rocketscienceinc/sudoku-duel-backend/internal/protocol"
	"github.com/rocketscienceinc/sudoku-duel-backend/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource hands out a fixed 4x4 puzzle missing (0,0)=1 and (0,1)=2.
type stubSource struct{}

func (stubSource) Clues(size int) ([]entity.Clue, error) {
	grid := [][]int{
		{0, 0, 3, 4},
		{3, 4, 1, 2},
		{2, 1, 4, 3},
		{4, 3, 2, 1},
	}

	var clues []entity.Clue
	for row := range grid {
		for col := range grid[row] {
			if grid[row][col] != 0 {
				clues = append(clues, entity.Clue{Row: row, Col: col, Value: grid[row][col]})
			}
		}
	}

	return clues, nil
}

// event is the union of every server push, decoded loosely for assertions.
type event struct {
	Type     string              `json:"type"`
	Games    []registry.GameInfo `json:"gamesList"`
	GameID   string              `json:"gameId"`
	PlayerID int                 `json:"playerId"`
	Board    [][]int             `json:"board"`
	IsMyTurn bool                `json:"isMyTurn"`
	Winner   int                 `json:"winner"`
	Error    string              `json:"error"`
}

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessionRegistry := registry.New(logger, stubSource{}, time.Minute)
	server := New(logger, sessionRegistry, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server.serveConnection(ctx, w, r)
	}))
	t.Cleanup(ts.Close)

	return ts
}

func dial(t *testing.T, ts *httptest.Server) *testClient {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &testClient{t: t, conn: conn}
}

func (that *testClient) send(v any) {
	that.t.Helper()
	require.NoError(that.t, that.conn.WriteJSON(v))
}

func (that *testClient) read() event {
	that.t.Helper()

	require.NoError(that.t, that.conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var ev event
	require.NoError(that.t, that.conn.ReadJSON(&ev))

	return ev
}

func (that *testClient) readType(expected string) event {
	that.t.Helper()

	ev := that.read()
	require.Equal(that.t, expected, ev.Type)

	return ev
}

func TestServer_Lobby(t *testing.T) {
	ts := newTestServer(t)

	t.Run("A fresh connection receives the lobby snapshot", func(t *testing.T) {
		client := dial(t, ts)

		ev := client.readType(protocol.TypeAvailableGames)

		assert.Empty(t, ev.Games)
	})

	t.Run("GET_AVAILABLE_GAMES returns the current listing", func(t *testing.T) {
		client := dial(t, ts)
		client.readType(protocol.TypeAvailableGames)

		client.send(map[string]any{"type": "GET_AVAILABLE_GAMES"})

		ev := client.readType(protocol.TypeAvailableGames)
		assert.Empty(t, ev.Games)
	})

	t.Run("Malformed frames are ignored and the connection stays open", func(t *testing.T) {
		client := dial(t, ts)
		client.readType(protocol.TypeAvailableGames)

		require.NoError(t, client.conn.WriteMessage(websocket.TextMessage, []byte("not json")))
		client.send(map[string]any{"type": "GET_AVAILABLE_GAMES"})

		client.readType(protocol.TypeAvailableGames)
	})

	t.Run("CREATE_GAME with a bad size is rejected", func(t *testing.T) {
		client := dial(t, ts)
		client.readType(protocol.TypeAvailableGames)

		client.send(map[string]any{"type": "CREATE_GAME", "size": 7})

		ev := client.readType(protocol.TypeError)
		assert.Contains(t, ev.Error, "invalid board size")
	})
}

func TestServer_FullGame(t *testing.T) {
	ts := newTestServer(t)

	creator := dial(t, ts)
	creator.readType(protocol.TypeAvailableGames)

	joiner := dial(t, ts)
	joiner.readType(protocol.TypeAvailableGames)

	// Given: the creator opens a 4x4 game
	creator.send(map[string]any{"type": "CREATE_GAME", "size": 4})

	created := creator.readType(protocol.TypeGameCreated)
	assert.Equal(t, 1, created.PlayerID)
	require.NotEmpty(t, created.GameID)

	creator.readType(protocol.TypeAvailableGames)

	lobby := joiner.readType(protocol.TypeAvailableGames)
	require.Len(t, lobby.Games, 1)
	assert.Equal(t, created.GameID, lobby.Games[0].GameID)

	// When: the second player joins
	joiner.send(map[string]any{"type": "JOIN_GAME", "gameId": created.GameID})

	// Then: both receive PLAYER_JOINED and a GAME_START with matching boards
	creator.readType(protocol.TypePlayerJoined)
	creatorStart := creator.readType(protocol.TypeGameStart)
	assert.Equal(t, 1, creatorStart.PlayerID)
	assert.True(t, creatorStart.IsMyTurn)

	joiner.readType(protocol.TypePlayerJoined)
	joinerStart := joiner.readType(protocol.TypeGameStart)
	assert.Equal(t, 2, joinerStart.PlayerID)
	assert.False(t, joinerStart.IsMyTurn)

	assert.Equal(t, creatorStart.Board, joinerStart.Board)

	// And: the game left the lobby
	assert.Empty(t, creator.readType(protocol.TypeAvailableGames).Games)
	assert.Empty(t, joiner.readType(protocol.TypeAvailableGames).Games)

	// When: the joiner moves out of turn
	joiner.send(map[string]any{"type": "MAKE_MOVE", "playerId": 2, "row": 0, "col": 1, "value": 2})

	// Then: only the joiner sees the rejection
	rejection := joiner.readType(protocol.TypeError)
	assert.Contains(t, rejection.Error, "not your turn")

	// When: the creator targets an initial cell
	creator.send(map[string]any{"type": "MAKE_MOVE", "playerId": 1, "row": 1, "col": 1, "value": 1})

	rejection = creator.readType(protocol.TypeError)
	assert.Contains(t, rejection.Error, "immutable")

	// When: the creator makes the legal move
	creator.send(map[string]any{"type": "MAKE_MOVE", "playerId": 1, "row": 0, "col": 0, "value": 1})

	// Then: both sides observe the turn passing to player 2
	assert.Equal(t, 2, creator.readType(protocol.TypeTurnUpdate).PlayerID)
	assert.Equal(t, 2, joiner.readType(protocol.TypeTurnUpdate).PlayerID)

	// When: the joiner completes the board
	joiner.send(map[string]any{"type": "MAKE_MOVE", "playerId": 2, "row": 0, "col": 1, "value": 2})

	// Then: both sides see player 2 win
	assert.Equal(t, 2, creator.readType(protocol.TypeGameEnd).Winner)
	assert.Equal(t, 2, joiner.readType(protocol.TypeGameEnd).Winner)
}

func TestServer_DisconnectForfeits(t *testing.T) {
	ts := newTestServer(t)

	creator := dial(t, ts)
	creator.readType(protocol.TypeAvailableGames)

	joiner := dial(t, ts)
	joiner.readType(protocol.TypeAvailableGames)

	// Given: a game in progress
	creator.send(map[string]any{"type": "CREATE_GAME", "size": 4})
	created := creator.readType(protocol.TypeGameCreated)
	creator.readType(protocol.TypeAvailableGames)
	joiner.readType(protocol.TypeAvailableGames)

	joiner.send(map[string]any{"type": "JOIN_GAME", "gameId": created.GameID})
	creator.readType(protocol.TypePlayerJoined)
	creator.readType(protocol.TypeGameStart)
	creator.readType(protocol.TypeAvailableGames)
	joiner.readType(protocol.TypePlayerJoined)
	joiner.readType(protocol.TypeGameStart)
	joiner.readType(protocol.TypeAvailableGames)

	// When: the creator's transport closes abruptly
	require.NoError(t, creator.conn.Close())

	// Then: the joiner wins by forfeit
	end := joiner.readType(protocol.TypeGameEnd)
	assert.Equal(t, 2, end.Winner)

	// And: the lobby update confirms nothing is joinable
	assert.Empty(t, joiner.readType(protocol.TypeAvailableGames).Games)
}

func TestServer_AbandonWhileWaiting(t *testing.T) {
	ts := newTestServer(t)

	creator := dial(t, ts)
	creator.readType(protocol.TypeAvailableGames)

	watcher := dial(t, ts)
	watcher.readType(protocol.TypeAvailableGames)

	// Given: a waiting game visible to the lobby
	creator.send(map[string]any{"type": "CREATE_GAME", "size": 4})
	created := creator.readType(protocol.TypeGameCreated)
	creator.readType(protocol.TypeAvailableGames)
	require.Len(t, watcher.readType(protocol.TypeAvailableGames).Games, 1)

	// When: the creator disconnects before anyone joins
	require.NoError(t, creator.conn.Close())

	// Then: the game disappears from the lobby
	assert.Empty(t, watcher.readType(protocol.TypeAvailableGames).Games)

	// And: joining it now fails
	watcher.send(map[string]any{"type": "JOIN_GAME", "gameId": created.GameID})
	rejection := watcher.readType(protocol.TypeError)
	assert.Contains(t, rejection.Error, "not found")
}
