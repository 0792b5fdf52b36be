package chat

import "time"

// Session captures a transient anonymous visitor of the simulator.
type Session struct {
	ID        string    `json:"id"`
	Active    string    `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}
