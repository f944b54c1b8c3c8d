// Package registry owns the process-wide session map. It is the only
// component that mutates sessions; transports go through it for every
// state change. Lock order is always registry first, then session.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rocketscienceinc/sudoku-duel-backend/internal/apperror"
	"github.com/rocketscienceinc/sudoku-duel-backend/internal/entity"
	"github.com/rocketscienceinc/sudoku-duel-backend/internal/metrics"
	"github.com/rocketscienceinc/sudoku-duel-backend/internal/pkg"
)

// puzzleSource provides initial clues for a fresh board of a given size.
type puzzleSource interface {
	Clues(size int) ([]entity.Clue, error)
}

// GameInfo is one lobby entry: a session still waiting for its second player.
type GameInfo struct {
	GameID  string `json:"gameId"`
	Size    int    `json:"size"`
	Players int    `json:"players"`
}

type Registry struct {
	logger    *slog.Logger
	source    puzzleSource
	retention time.Duration

	mu            sync.RWMutex
	sessions      map[string]*entity.Session
	byParticipant map[string]string
}

// New builds an empty registry. Completed sessions linger for the retention
// period so late notifications can still resolve them, then get dropped.
func New(logger *slog.Logger, source puzzleSource, retention time.Duration) *Registry {
	return &Registry{
		logger:    logger.With("component", "registry"),
		source:    source,
		retention: retention,

		sessions:      make(map[string]*entity.Session),
		byParticipant: make(map[string]string),
	}
}

// CreateSession builds a new waiting session with the creator as player 1.
func (that *Registry) CreateSession(creatorID string, size int) (*entity.Session, error) {
	if !entity.ValidSize(size) {
		return nil, fmt.Errorf("%w: %d", apperror.ErrInvalidSize, size)
	}

	clues, err := that.source.Clues(size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate puzzle: %w", err)
	}

	board, err := entity.NewBoard(size, clues)
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	session := entity.NewSession(pkg.GenerateSessionID(), creatorID, board)

	that.mu.Lock()
	that.sessions[session.ID()] = session
	that.byParticipant[creatorID] = session.ID()
	that.mu.Unlock()

	metrics.ActiveSessions.Inc()

	that.logger.Info("session created", "sessionID", session.ID(), "size", size)

	return session, nil
}

// ListAvailable returns the lobby: every waiting session, oldest first.
// The listing is recomputed on each call and never cached.
func (that *Registry) ListAvailable() []GameInfo {
	that.mu.RLock()
	waiting := make([]*entity.Session, 0, len(that.sessions))
	for _, session := range that.sessions {
		if session.IsWaiting() {
			waiting = append(waiting, session)
		}
	}
	that.mu.RUnlock()

	sort.Slice(waiting, func(i, j int) bool {
		return waiting[i].CreatedAt().Before(waiting[j].CreatedAt())
	})

	games := make([]GameInfo, 0, len(waiting))
	for _, session := range waiting {
		games = append(games, GameInfo{
			GameID:  session.ID(),
			Size:    session.Size(),
			Players: len(session.Participants()),
		})
	}

	return games
}

// JoinSession adds a participant to a waiting session and starts the game.
func (that *Registry) JoinSession(sessionID, participantID string) (*entity.Session, []entity.Notification, error) {
	that.mu.RLock()
	session, ok := that.sessions[sessionID]
	that.mu.RUnlock()

	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, sessionID)
	}

	notifications, err := session.Join(participantID)
	if err != nil {
		return nil, nil, err
	}

	that.mu.Lock()
	that.byParticipant[participantID] = sessionID
	that.mu.Unlock()

	that.logger.Info("participant joined", "sessionID", sessionID)

	return session, notifications, nil
}

// FindSessionOf resolves the session a participant is currently bound to.
func (that *Registry) FindSessionOf(participantID string) (*entity.Session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	sessionID, ok := that.byParticipant[participantID]
	if !ok {
		return nil, apperror.ErrSessionNotFound
	}

	session, ok := that.sessions[sessionID]
	if !ok {
		return nil, apperror.ErrSessionNotFound
	}

	return session, nil
}

// SubmitMove routes a move to the participant's current session. When the
// move completes the board, the session is scheduled for removal.
func (that *Registry) SubmitMove(participantID string, row, col, value int) (*entity.Session, []entity.Notification, error) {
	session, err := that.FindSessionOf(participantID)
	if err != nil {
		return nil, nil, err
	}

	notifications, err := session.SubmitMove(participantID, row, col, value)
	if err != nil {
		return session, nil, err
	}

	if session.IsCompleted() {
		that.retire(session)
	}

	return session, notifications, nil
}

// Abandon forfeits the participant's current session. A session abandoned
// while waiting is removed immediately, otherwise after the retention period.
func (that *Registry) Abandon(participantID string) (*entity.Session, []entity.Notification, error) {
	session, err := that.FindSessionOf(participantID)
	if err != nil {
		return nil, nil, err
	}

	wasWaiting := session.IsWaiting()

	notifications, err := session.Abandon(participantID)
	if err != nil {
		return session, nil, err
	}

	if wasWaiting {
		that.Remove(session.ID())
	} else {
		that.retire(session)
	}

	return session, notifications, nil
}

// Remove drops a session and its participant bindings.
func (that *Registry) Remove(sessionID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, ok := that.sessions[sessionID]
	if !ok {
		return
	}

	delete(that.sessions, sessionID)
	for _, participantID := range session.Participants() {
		if that.byParticipant[participantID] == sessionID {
			delete(that.byParticipant, participantID)
		}
	}

	metrics.ActiveSessions.Dec()

	that.logger.Info("session removed", "sessionID", sessionID)
}

// retire unbinds a completed session's participants right away, so a new
// connection can never be routed into it, and drops it after the retention.
func (that *Registry) retire(session *entity.Session) {
	that.mu.Lock()
	for _, participantID := range session.Participants() {
		if that.byParticipant[participantID] == session.ID() {
			delete(that.byParticipant, participantID)
		}
	}
	that.mu.Unlock()

	time.AfterFunc(that.retention, func() {
		that.Remove(session.ID())
	})
}
