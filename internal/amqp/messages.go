package amqp

import (
	"encoding/json"
	"time"
)

// ReloadRequestMessage asks the dashboard host to run a fresh load.
type ReloadRequestMessage struct {
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReloadRequestMessage creates a reload request stamped with the current time
func NewReloadRequestMessage(reason string) *ReloadRequestMessage {
	return &ReloadRequestMessage{
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReloadRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReloadRequestMessageFromJSON creates a message from JSON bytes
func ReloadRequestMessageFromJSON(data []byte) (*ReloadRequestMessage, error) {
	var msg ReloadRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SnapshotReadyMessage announces a committed snapshot.
type SnapshotReadyMessage struct {
	Generation uint64    `json:"generation"`
	Events     int       `json:"events"`
	Groups     int       `json:"groups"`
	Merged     int       `json:"merged"`
	Dropped    int       `json:"dropped"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *SnapshotReadyMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SnapshotReadyMessageFromJSON creates a message from JSON bytes
func SnapshotReadyMessageFromJSON(data []byte) (*SnapshotReadyMessage, error) {
	var msg SnapshotReadyMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
