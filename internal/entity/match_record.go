package entity

import "time"

// MatchRecord is the archived summary of a completed session.
type MatchRecord struct {
	ID         string    `json:"id"`
	Size       int       `json:"size"`
	Winner     int       `json:"winner"`
	Moves      int       `json:"moves"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RecordOf summarizes a completed session for archiving.
func RecordOf(session *Session) *MatchRecord {
	return &MatchRecord{
		ID:         session.ID(),
		Size:       session.Size(),
		Winner:     session.Winner(),
		Moves:      session.MoveCount(),
		StartedAt:  session.CreatedAt(),
		FinishedAt: time.Now(),
	}
}
