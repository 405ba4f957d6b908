package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MoodSyncMessage asks the worker to copy one stored mood to the sheet.
// It carries only the row id and version; the worker reads the row itself.
type MoodSyncMessage struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Version   int64  `json:"version"`
}

func NewMoodSyncMessage(id int64, timestamp string, version int64) *MoodSyncMessage {
	return &MoodSyncMessage{ID: id, Timestamp: timestamp, Version: version}
}

func (m *MoodSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MoodSyncMessageFromJSON decodes a delivery body. A body without a positive
// id is rejected.
func MoodSyncMessageFromJSON(data []byte) (*MoodSyncMessage, error) {
	var msg MoodSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode mood sync message: %w", err)
	}
	if msg.ID <= 0 {
		return nil, errors.New("mood sync message has no id")
	}
	return &msg, nil
}
