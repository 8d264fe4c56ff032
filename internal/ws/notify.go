package ws

import (
	"encoding/json"
	"time"
)

// JobsStoredEvent is pushed to every connected client when a job cycle
// finishes with new records, so frontends can refresh without polling.
type JobsStoredEvent struct {
	Type      string   `json:"type"`
	NewJobs   int      `json:"new_jobs"`
	UserIDs   []string `json:"user_ids"`
	Timestamp string   `json:"timestamp"`
}

// Notifier adapts the hub to the pipeline's completion handoff.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) NewJobsStored(totalNew int, userIDs []string) {
	if n == nil || n.hub == nil || totalNew <= 0 {
		return
	}

	evt := JobsStoredEvent{
		Type:      "jobs_stored",
		NewJobs:   totalNew,
		UserIDs:   userIDs,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	n.hub.Broadcast(b)
}
