package models

import "time"

const (
	MaxMessageLength = 1000
	MessageLifetime  = 48 * time.Hour
)

type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	SentAt    time.Time `json:"sent_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Deleted   bool      `json:"deleted"`
}

type MessagePatch struct {
	Deleted Opt[bool]
}
