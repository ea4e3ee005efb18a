package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// naiveLayout is an ISO timestamp without an offset, as written by servers
// that keep datetimes naive. It is read as UTC.
const naiveLayout = "2006-01-02T15:04:05.999999999"

// Timestamp is a server time that decodes both RFC 3339 and offset-less
// ISO timestamps
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

// UnmarshalJSON tries RFC 3339 first, then the naive layout in UTC
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}

	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.ParseInLocation(naiveLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// MarshalJSON writes RFC 3339
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// HistoryEntry summarises one finished or ongoing game of the caller
type HistoryEntry struct {
	GameID      GameID     `json:"game_id"`
	StartedAt   *Timestamp `json:"started_at"`
	CompletedAt *Timestamp `json:"completed_at"`
	Players     []string   `json:"players"` // ordered pair, first player first
	Winner      *string    `json:"winner"`
	MovesCount  int        `json:"moves_count"`
}
