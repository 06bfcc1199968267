package domain

import "time"

const (
	StatusConnected    = "connected"
	StatusDisconnected = "Disconnected"
)

// SystemStatus é o heartbeat sobrescrito em system/{node}_status.
type SystemStatus struct {
	Status          string    `json:"status"`
	LastUpdate      time.Time `json:"last_update"`
	LastRecognition string    `json:"last_recognition,omitempty"`
	CameraActive    *bool     `json:"camera_active,omitempty"`
}

// StatusNode returns the store key of a node heartbeat.
func StatusNode(node string) string {
	return node + "_status"
}

// Festival is a calendar entry keyed by date in the store.
type Festival struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
}

// SystemOverview é a resposta de /api/system-status.
type SystemOverview struct {
	Dashboard string     `json:"laptop1"`
	Camera    string     `json:"laptop2"`
	Store     string     `json:"firebase"`
	LastSync  *time.Time `json:"last_sync"`
}
