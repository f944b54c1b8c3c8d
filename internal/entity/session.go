package entity

import (
	"fmt"
	"sync"
	"time"

	"github.com/rocketscienceinc/sudoku-duel-backend/internal/apperror"
)

const (
	PhaseWaitingForPlayer = "waiting_for_player"
	PhaseInProgress       = "in_progress"
	PhaseCompleted        = "completed"
)

const (
	NotifyPlayerJoined = "player_joined"
	NotifyGameStart    = "game_start"
	NotifyTurnUpdate   = "turn_update"
	NotifyGameEnd      = "game_end"
)

const maxParticipants = 2

// NoWinner marks a session that completed without a winner
// (abandoned while still waiting for a second participant).
const NoWinner = 0

// Notification is a state-change event produced by a session mutation.
// Delivery to the affected connections is the caller's responsibility.
type Notification struct {
	Type   string
	Board  [][]int // full grid snapshot, set on game_start
	Turn   int     // turn holder, set on game_start and turn_update
	Winner int     // set on game_end, NoWinner when nobody won
}

// Move is one accepted move in a session's history.
type Move struct {
	Player int `json:"player"`
	Row    int `json:"row"`
	Col    int `json:"col"`
	Value  int `json:"value"`
}

// Session is one match between two participants. All mutations are serialized
// by the session's own mutex; callers never touch the board directly.
type Session struct {
	mu sync.Mutex

	id           string
	size         int
	participants []string
	phase        string
	turn         int
	board        *Board
	winner       int
	history      []Move
	createdAt    time.Time
}

// NewSession creates a waiting session owned by the creator, who becomes
// participant number 1.
func NewSession(id string, creatorID string, board *Board) *Session {
	return &Session{
		id:           id,
		size:         board.Size,
		participants: []string{creatorID},
		phase:        PhaseWaitingForPlayer,
		board:        board,
		createdAt:    time.Now(),
	}
}

// Join adds the second participant and starts the game. The first-joined
// participant moves first.
func (that *Session) Join(participantID string) ([]Notification, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.phase == PhaseCompleted {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionClosed, that.id)
	}

	if len(that.participants) >= maxParticipants {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionFull, that.id)
	}

	that.participants = append(that.participants, participantID)
	that.phase = PhaseInProgress
	that.turn = 1

	return []Notification{
		{Type: NotifyPlayerJoined},
		{Type: NotifyGameStart, Board: that.board.Values(), Turn: that.turn},
	}, nil
}

// SubmitMove applies a move for the participant holding the turn. A rejected
// move leaves both board and turn untouched.
func (that *Session) SubmitMove(participantID string, row, col, value int) ([]Notification, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	switch that.phase {
	case PhaseWaitingForPlayer:
		return nil, fmt.Errorf("%w: %s", apperror.ErrGameNotStarted, that.id)
	case PhaseCompleted:
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionClosed, that.id)
	}

	number := that.numberOf(participantID)
	if number != that.turn {
		return nil, apperror.ErrNotYourTurn
	}

	if err := that.board.ApplyMove(row, col, value); err != nil {
		return nil, err
	}

	that.history = append(that.history, Move{Player: number, Row: row, Col: col, Value: value})

	if that.board.IsComplete() {
		that.phase = PhaseCompleted
		that.winner = number
		that.turn = 0

		return []Notification{{Type: NotifyGameEnd, Winner: number}}, nil
	}

	that.turn = otherNumber(number)

	return []Notification{{Type: NotifyTurnUpdate, Turn: that.turn}}, nil
}

// Abandon ends the session on behalf of a leaving participant. While waiting
// the session is simply discarded; in progress the remaining participant wins.
// Abandoning an already completed session is a no-op.
func (that *Session) Abandon(participantID string) ([]Notification, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.phase == PhaseCompleted {
		return nil, nil
	}

	if that.phase == PhaseWaitingForPlayer {
		that.phase = PhaseCompleted
		that.winner = NoWinner
		that.turn = 0

		return []Notification{{Type: NotifyGameEnd, Winner: NoWinner}}, nil
	}

	that.phase = PhaseCompleted
	that.winner = otherNumber(that.numberOf(participantID))
	that.turn = 0

	return []Notification{{Type: NotifyGameEnd, Winner: that.winner}}, nil
}

func (that *Session) ID() string { return that.id }

func (that *Session) Size() int { return that.size }

func (that *Session) CreatedAt() time.Time { return that.createdAt }

func (that *Session) Phase() string {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.phase
}

func (that *Session) Turn() int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.turn
}

func (that *Session) Winner() int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.winner
}

func (that *Session) IsWaiting() bool {
	return that.Phase() == PhaseWaitingForPlayer
}

func (that *Session) IsCompleted() bool {
	return that.Phase() == PhaseCompleted
}

// Participants returns the participant ids in join order.
func (that *Session) Participants() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	ids := make([]string, len(that.participants))
	copy(ids, that.participants)

	return ids
}

// PlayerNumber returns the 1-based player number of a participant,
// or 0 when the participant is not part of the session.
func (that *Session) PlayerNumber(participantID string) int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.numberOf(participantID)
}

// BoardValues returns a snapshot of the current grid.
func (that *Session) BoardValues() [][]int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.board.Values()
}

// MoveCount returns the number of accepted moves so far.
func (that *Session) MoveCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return len(that.history)
}

func (that *Session) numberOf(participantID string) int {
	for i, id := range that.participants {
		if id == participantID {
			return i + 1
		}
	}

	return 0
}

func otherNumber(number int) int {
	if number == 1 {
		return 2
	}

	return 1
}
