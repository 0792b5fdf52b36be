package chat

import "time"

// Turn is one question/answer exchange with a character.
type Turn struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"createdAt"`
}
