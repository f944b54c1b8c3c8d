// Package protocol is the wire codec: a tagged JSON union with one "type"
// field selecting the variant, matching the message table consumed by the
// rendering layer.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/sudoku-duel-backend/internal/apperror"
	"github.com/rocketscienceinc/sudoku-duel-backend/internal/registry"
)

// Client to server request tags.
const (
	TypeGetAvailableGames = "GET_AVAILABLE_GAMES"
	TypeCreateGame        = "CREATE_GAME"
	TypeJoinGame          = "JOIN_GAME"
	TypeMakeMove          = "MAKE_MOVE"
)

// Server to client event tags.
const (
	TypeAvailableGames = "AVAILABLE_GAMES"
	TypeGameCreated    = "GAME_CREATED"
	TypePlayerJoined   = "PLAYER_JOINED"
	TypeGameStart      = "GAME_START"
	TypeTurnUpdate     = "TURN_UPDATE"
	TypeGameEnd        = "GAME_END"
	TypeError          = "ERROR"
)

// Request is the closed set of decoded client requests.
type Request interface {
	isRequest()
}

type GetAvailableGames struct{}

type CreateGame struct {
	Size int
}

type JoinGame struct {
	GameID string
}

type MakeMove struct {
	PlayerID int
	Row      int
	Col      int
	Value    int
}

func (GetAvailableGames) isRequest() {}
func (CreateGame) isRequest()        {}
func (JoinGame) isRequest()          {}
func (MakeMove) isRequest()          {}

// envelope carries the union of every request field; DecodeRequest projects
// it onto the variant selected by the tag.
type envelope struct {
	Type     string `json:"type"`
	Size     int    `json:"size"`
	GameID   string `json:"gameId"`
	PlayerID int    `json:"playerId"`
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Value    int    `json:"value"`
}

// DecodeRequest parses one inbound frame. An undecodable body or an unknown
// tag yields ErrMalformedMessage; the caller logs and keeps the connection.
func DecodeRequest(data []byte) (Request, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrMalformedMessage, err)
	}

	switch env.Type {
	case TypeGetAvailableGames:
		return GetAvailableGames{}, nil
	case TypeCreateGame:
		return CreateGame{Size: env.Size}, nil
	case TypeJoinGame:
		return JoinGame{GameID: env.GameID}, nil
	case TypeMakeMove:
		return MakeMove{PlayerID: env.PlayerID, Row: env.Row, Col: env.Col, Value: env.Value}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", apperror.ErrMalformedMessage, env.Type)
	}
}

type AvailableGames struct {
	Type  string              `json:"type"`
	Games []registry.GameInfo `json:"gamesList"`
}

type GameCreated struct {
	Type     string `json:"type"`
	GameID   string `json:"gameId"`
	PlayerID int    `json:"playerId"`
}

type PlayerJoined struct {
	Type string `json:"type"`
}

type GameStart struct {
	Type     string  `json:"type"`
	PlayerID int     `json:"playerId"`
	Board    [][]int `json:"board"`
	IsMyTurn bool    `json:"isMyTurn"`
}

type TurnUpdate struct {
	Type     string `json:"type"`
	PlayerID int    `json:"playerId"`
}

type GameEnd struct {
	Type   string `json:"type"`
	Winner int    `json:"winner"`
}

type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func NewAvailableGames(games []registry.GameInfo) AvailableGames {
	if games == nil {
		games = []registry.GameInfo{}
	}

	return AvailableGames{Type: TypeAvailableGames, Games: games}
}

func NewGameCreated(gameID string, playerID int) GameCreated {
	return GameCreated{Type: TypeGameCreated, GameID: gameID, PlayerID: playerID}
}

func NewPlayerJoined() PlayerJoined {
	return PlayerJoined{Type: TypePlayerJoined}
}

func NewGameStart(playerID int, board [][]int, isMyTurn bool) GameStart {
	return GameStart{Type: TypeGameStart, PlayerID: playerID, Board: board, IsMyTurn: isMyTurn}
}

func NewTurnUpdate(playerID int) TurnUpdate {
	return TurnUpdate{Type: TypeTurnUpdate, PlayerID: playerID}
}

func NewGameEnd(winner int) GameEnd {
	return GameEnd{Type: TypeGameEnd, Winner: winner}
}

func NewErrorMessage(reason string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Error: reason}
}
