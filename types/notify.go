package types

const (
	NotifyTypeProgress  = "split_progress"
	NotifyTypeCompleted = "split_completed"
	NotifyTypeFailed    = "split_failed"
	NotifyTypeCollected = "folder_collected" // every part of a folder was downloaded
)

// Notification represents a message pushed to progress websocket subscribers
type Notification struct {
	Type     string    `json:"type"`     // one of the NotifyType* constants
	Key      string    `json:"key"`      // job key the update belongs to
	Progress float64   `json:"progress"` // 0-100, two decimals
	Status   JobStatus `json:"status"`

	// set only on messages sent to the local notify socket
	Title   string         `json:"title,omitempty"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}
