package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sudoku_active_sessions",
		Help: "Number of sessions currently held by the registry.",
	})

	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sudoku_connected_clients",
		Help: "Number of open WebSocket connections.",
	})

	MovesAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sudoku_moves_accepted_total",
		Help: "Moves that passed turn and board validation.",
	})

	MovesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sudoku_moves_rejected_total",
		Help: "Moves rejected by turn or board validation.",
	})

	GamesFinished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sudoku_games_finished_total",
		Help: "Sessions that reached the completed phase.",
	})
)
