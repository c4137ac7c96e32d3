package models

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// AccountUser is an application operator.
type AccountUser struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	PasswordHash   string     `json:"-"`
	DisplayName    string     `json:"display_name"`
	Role           Role       `json:"role"`
	StoreName      string     `json:"store_name"`
	CreatedAt      *time.Time `json:"created_at"`
	LastLogin      *time.Time `json:"last_login"`
	Active         bool       `json:"active"`
	LastChatReadAt *time.Time `json:"last_chat_read_at"`
}

type UserPatch struct {
	PasswordHash   Opt[string]
	DisplayName    Opt[string]
	Role           Opt[Role]
	StoreName      Opt[string]
	LastLogin      Opt[*time.Time]
	Active         Opt[bool]
	LastChatReadAt Opt[*time.Time]
}
