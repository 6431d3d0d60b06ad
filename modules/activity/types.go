package activity

import "time"

// ServiceStats is the request/reply service exposing the counters.
const ServiceStats = "stats"

// Stats is a snapshot of room activity since startup.
type Stats struct {
	RoomsCreated   int            `json:"rooms_created"`
	Joins          int            `json:"joins"`
	Leaves         int            `json:"leaves"`
	Messages       int            `json:"messages"`
	MessagesByRoom map[string]int `json:"messages_by_room"`
	LastActivity   time.Time      `json:"last_activity,omitempty"`
}

// StatsRequest is the request for the stats service.
type StatsRequest struct{}

// StatsResponse is the response for the stats service.
type StatsResponse struct {
	Stats Stats `json:"stats"`
}
