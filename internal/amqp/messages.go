package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"budgetplanner/internal/core"
)

// StateSavedMessage announces that a user's planner state was persisted.
// Consumers reload the state from storage; the message carries no data.
type StateSavedMessage struct {
	UserID    string        `json:"user_id"`
	Version   int64         `json:"version"`
	Month     core.MonthKey `json:"month,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewStateSavedMessage(userID string, version int64, month core.MonthKey) *StateSavedMessage {
	return &StateSavedMessage{
		UserID:    userID,
		Version:   version,
		Month:     month,
		Timestamp: time.Now(),
	}
}

func (m *StateSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// StateSavedMessageFromJSON decodes a message and rejects one without a user.
func StateSavedMessageFromJSON(data []byte) (*StateSavedMessage, error) {
	var msg StateSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" {
		return nil, errors.New("state saved message without user_id")
	}
	return &msg, nil
}
