package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/sudoku-duel-backend/internal/entity"
	"github.com/rocketscienceinc/sudoku-duel-backend/internal/metrics"
	"github.com/rocketscienceinc/sudoku-duel-backend/internal/pkg"
	"github.com/rocketscienceinc/sudoku-duel-backend/internal/protocol"
	"github.com/rocketscienceinc/sudoku-duel-backend/internal/registry"
)

const (
	writeTimeout = 10 * time.Second
	idleTimeout  = 30 * time.Second
)

// gameRegistry is the slice of the session registry the transport needs.
type gameRegistry interface {
	CreateSession(creatorID string, size int) (*entity.Session, error)
	ListAvailable() []registry.GameInfo
	JoinSession(sessionID, participantID string) (*entity.Session, []entity.Notification, error)
	FindSessionOf(participantID string) (*entity.Session, error)
	SubmitMove(participantID string, row, col, value int) (*entity.Session, []entity.Notification, error)
	Abandon(participantID string) (*entity.Session, []entity.Notification, error)
}

// matchRecorder archives finished games; recording failures are logged only.
type matchRecorder interface {
	Record(ctx context.Context, record *entity.MatchRecord) error
}

type Server struct {
	logger   *slog.Logger
	registry gameRegistry
	matches  matchRecorder

	upgrader websocket.Upgrader
	conns    *connections
}

func New(logger *slog.Logger, gameRegistry gameRegistry, matches matchRecorder) *Server {
	return &Server{
		logger:   logger,
		registry: gameRegistry,
		matches:  matches,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		conns: newConnections(),
	}
}

// Start - starts the WebSocket server and shuts it down when ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	// no ReadTimeout: connections are long-lived and reads block between turns
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		IdleTimeout: idleTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down WebSocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveConnection upgrades the request and runs the per-connection read loop.
// Each physical connection gets a fresh participant id, never a reused one.
func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConnection")

	sock, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	participantID := pkg.GenerateParticipantID()
	conn := newConnection(participantID, sock)

	that.conns.add(conn)
	metrics.ConnectedClients.Inc()

	log = log.With("participantID", participantID)
	log.Info("WebSocket connection established")

	defer func() {
		that.conns.remove(participantID)
		metrics.ConnectedClients.Dec()

		that.handleDisconnect(ctx, participantID)

		if err = sock.Close(); err != nil {
			log.Debug("failed to close connection", "error", err)
		}

		log.Info("WebSocket connection closed")
	}()

	// A fresh connection lands in the lobby with the current listing.
	if err = conn.send(protocol.NewAvailableGames(that.registry.ListAvailable())); err != nil {
		log.Error("failed to send lobby snapshot", "error", err)
		return
	}

	that.readLoop(ctx, conn)
}

// readLoop decodes inbound frames and dispatches them until the transport
// closes. Malformed frames are logged and skipped; the connection stays open.
func (that *Server) readLoop(ctx context.Context, conn *connection) {
	log := that.logger.With("method", "readLoop", "participantID", conn.participantID)

	for {
		_, data, err := conn.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info("connection closed unexpectedly", "error", err)
			}
			return
		}

		request, err := protocol.DecodeRequest(data)
		if err != nil {
			log.Error("failed to decode message", "error", err)
			continue
		}

		if err = that.dispatch(ctx, conn, request); err != nil {
			log.Error("failed to process request", "error", err)
		}
	}
}

func (that *Server) dispatch(ctx context.Context, conn *connection, request protocol.Request) error {
	switch req := request.(type) {
	case protocol.GetAvailableGames:
		return that.handleGetAvailableGames(conn)
	case protocol.CreateGame:
		return that.handleCreateGame(conn, req)
	case protocol.JoinGame:
		return that.handleJoinGame(conn, req)
	case protocol.MakeMove:
		return that.handleMakeMove(ctx, conn, req)
	default:
		return fmt.Errorf("unhandled request type %T", request)
	}
}
