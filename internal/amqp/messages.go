package amqp

import (
	"encoding/json"
	"time"

	"budget/internal/core"

	"github.com/google/uuid"
)

// OverviewUpdatedMessage announces that a user's daily snapshot was created
// or changed. It carries the figures so consumers need no database access.
type OverviewUpdatedMessage struct {
	MessageID      string        `json:"message_id"`
	SnapshotID     int64         `json:"snapshot_id"`
	Username       string        `json:"username"`
	LocalDay       string        `json:"local_day"`
	Overview       core.Overview `json:"overview"`
	WeeklyEarnings float64       `json:"weekly_earnings"`
	Timestamp      time.Time     `json:"timestamp"`
}

// NewOverviewUpdatedMessage builds a message with a fresh id.
func NewOverviewUpdatedMessage(snap core.FinancialOverview) *OverviewUpdatedMessage {
	return &OverviewUpdatedMessage{
		MessageID:      uuid.NewString(),
		SnapshotID:     snap.ID,
		Username:       snap.Username,
		LocalDay:       snap.LocalDay,
		Overview:       snap.Overview,
		WeeklyEarnings: snap.WeeklyEarnings,
		Timestamp:      snap.Timestamp,
	}
}

// ToJSON converts the message to JSON bytes
func (m *OverviewUpdatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// OverviewUpdatedMessageFromJSON parses a message body
func OverviewUpdatedMessageFromJSON(data []byte) (*OverviewUpdatedMessage, error) {
	var msg OverviewUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
