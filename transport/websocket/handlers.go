package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/sudoku-duel-backend/internal/apperror"
	"github.com/rocketscienceinc/sudoku-duel-backend/internal/entity"
	"github.com/rocketscienceinc/sudoku-duel-backend/internal/metrics"
	"github.com/rocketscienceinc/sudoku-duel-backend/internal/protocol"
)

func (that *Server) handleGetAvailableGames(conn *connection) error {
	if err := conn.send(protocol.NewAvailableGames(that.registry.ListAvailable())); err != nil {
		return fmt.Errorf("failed to send available games: %w", err)
	}

	return nil
}

func (that *Server) handleCreateGame(conn *connection, req protocol.CreateGame) error {
	log := that.logger.With("method", "handleCreateGame", "participantID", conn.participantID)

	session, err := that.registry.CreateSession(conn.participantID, req.Size)
	if err != nil {
		log.Error("failed to create session", "size", req.Size, "error", err)
		return that.sendRejection(conn, err)
	}

	log.Info("session created", "sessionID", session.ID())

	if err = conn.send(protocol.NewGameCreated(session.ID(), session.PlayerNumber(conn.participantID))); err != nil {
		return fmt.Errorf("failed to send game created: %w", err)
	}

	that.broadcastLobby()

	return nil
}

func (that *Server) handleJoinGame(conn *connection, req protocol.JoinGame) error {
	log := that.logger.With("method", "handleJoinGame", "participantID", conn.participantID)

	session, notifications, err := that.registry.JoinSession(req.GameID, conn.participantID)
	if err != nil {
		log.Error("failed to join session", "sessionID", req.GameID, "error", err)
		return that.sendRejection(conn, err)
	}

	log.Info("participant joined session", "sessionID", session.ID())

	that.deliver(session, notifications)
	that.broadcastLobby()

	return nil
}

func (that *Server) handleMakeMove(ctx context.Context, conn *connection, req protocol.MakeMove) error {
	log := that.logger.With("method", "handleMakeMove", "participantID", conn.participantID)

	session, notifications, err := that.registry.SubmitMove(conn.participantID, req.Row, req.Col, req.Value)
	if err != nil {
		metrics.MovesRejected.Inc()
		log.Info("move rejected", "error", err)
		return that.sendRejection(conn, err)
	}

	metrics.MovesAccepted.Inc()

	that.deliver(session, notifications)

	if session.IsCompleted() {
		that.recordFinished(ctx, session)
	}

	return nil
}

// handleDisconnect treats an abrupt transport close as abandonment: the
// participant's current session, if any, is forfeited to the opponent.
func (that *Server) handleDisconnect(ctx context.Context, participantID string) {
	log := that.logger.With("method", "handleDisconnect", "participantID", participantID)

	session, notifications, err := that.registry.Abandon(participantID)
	if errors.Is(err, apperror.ErrSessionNotFound) {
		return // was in the lobby
	}

	if err != nil {
		log.Error("failed to abandon session", "error", err)
		return
	}

	log.Info("session abandoned", "sessionID", session.ID())

	that.deliver(session, notifications)
	that.broadcastLobby()

	// A session discarded while still waiting never counts as a match.
	if session.Winner() != entity.NoWinner {
		that.recordFinished(ctx, session)
	}
}

// deliver fans session notifications out to both participants. Game start is
// expanded per recipient, since each side sees its own player number and turn.
func (that *Server) deliver(session *entity.Session, notifications []entity.Notification) {
	log := that.logger.With("method", "deliver", "sessionID", session.ID())

	for _, participantID := range session.Participants() {
		conn, ok := that.conns.get(participantID)
		if !ok {
			// Expected on abandonment: the leaver's transport is already gone.
			log.Debug("connection not found for participant", "participantID", participantID)
			continue
		}

		for _, notification := range notifications {
			if err := conn.send(that.encode(session, participantID, notification)); err != nil {
				log.Error("failed to send notification", "type", notification.Type, "error", err)
			}
		}
	}
}

func (that *Server) encode(session *entity.Session, participantID string, notification entity.Notification) any {
	switch notification.Type {
	case entity.NotifyPlayerJoined:
		return protocol.NewPlayerJoined()
	case entity.NotifyGameStart:
		number := session.PlayerNumber(participantID)
		return protocol.NewGameStart(number, notification.Board, notification.Turn == number)
	case entity.NotifyTurnUpdate:
		return protocol.NewTurnUpdate(notification.Turn)
	case entity.NotifyGameEnd:
		return protocol.NewGameEnd(notification.Winner)
	default:
		return protocol.NewErrorMessage("unknown notification")
	}
}

// broadcastLobby pushes the fresh listing to every open connection whenever
// the set of joinable sessions changes.
func (that *Server) broadcastLobby() {
	log := that.logger.With("method", "broadcastLobby")

	listing := protocol.NewAvailableGames(that.registry.ListAvailable())

	for _, conn := range that.conns.all() {
		if err := conn.send(listing); err != nil {
			log.Debug("failed to send lobby update", "participantID", conn.participantID, "error", err)
		}
	}
}

func (that *Server) recordFinished(ctx context.Context, session *entity.Session) {
	log := that.logger.With("method", "recordFinished", "sessionID", session.ID())

	metrics.GamesFinished.Inc()

	if that.matches == nil {
		return
	}

	if err := that.matches.Record(ctx, entity.RecordOf(session)); err != nil {
		log.Error("failed to archive match", "error", err)
	}
}

// sendRejection reports a validation failure back to the requester only.
func (that *Server) sendRejection(conn *connection, reason error) error {
	if err := conn.send(protocol.NewErrorMessage(reason.Error())); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}
