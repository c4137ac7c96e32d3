package codec

import (
	"strings"

	"shootmap/identity"
	"shootmap/models"
)

// User columns (users sheet, A..J).
const (
	ColUserID = iota
	ColUsername
	ColPasswordHash
	ColDisplayName
	ColRole
	ColStoreName
	ColUserCreatedAt
	ColLastLogin
	ColActive
	ColLastChatReadAt

	UserWidth
)

var UserHeader = []string{
	"id", "username", "password_hash", "display_name", "role", "store_name",
	"created_at", "last_login", "is_active", "last_chat_read_at",
}

func DecodeUser(row []any) (models.AccountUser, error) {
	u := models.AccountUser{
		ID:             identity.Normalize(text(row, ColUserID)),
		Username:       strings.TrimSpace(text(row, ColUsername)),
		PasswordHash:   text(row, ColPasswordHash),
		DisplayName:    text(row, ColDisplayName),
		Role:           decodeRole(text(row, ColRole)),
		StoreName:      text(row, ColStoreName),
		CreatedAt:      timestamp(cell(row, ColUserCreatedAt)),
		LastLogin:      timestamp(cell(row, ColLastLogin)),
		Active:         boolean(cell(row, ColActive)),
		LastChatReadAt: timestamp(cell(row, ColLastChatReadAt)),
	}
	if u.ID == "" {
		return u, &models.MalformedRowError{Sheet: "user", Reason: "blank identifier"}
	}
	return u, nil
}

func decodeRole(s string) models.Role {
	if strings.EqualFold(strings.TrimSpace(s), string(models.RoleAdmin)) {
		return models.RoleAdmin
	}
	return models.RoleUser
}

func EncodeUser(u models.AccountUser) []any {
	role := u.Role
	if role == "" {
		role = models.RoleUser
	}
	return []any{
		u.ID,
		u.Username,
		u.PasswordHash,
		u.DisplayName,
		string(role),
		u.StoreName,
		formatTime(u.CreatedAt),
		formatTime(u.LastLogin),
		formatBool(u.Active),
		formatTime(u.LastChatReadAt),
	}
}

func MergeUser(base []any, p models.UserPatch) ([]any, []int) {
	m := newMerger(base, UserWidth)
	if p.PasswordHash.Set {
		m.set(ColPasswordHash, p.PasswordHash.Value)
	}
	if p.DisplayName.Set {
		m.set(ColDisplayName, p.DisplayName.Value)
	}
	if p.Role.Set {
		m.set(ColRole, string(p.Role.Value))
	}
	if p.StoreName.Set {
		m.set(ColStoreName, p.StoreName.Value)
	}
	if p.LastLogin.Set {
		m.set(ColLastLogin, formatTime(p.LastLogin.Value))
	}
	if p.Active.Set {
		m.set(ColActive, formatBool(p.Active.Value))
	}
	if p.LastChatReadAt.Set {
		m.set(ColLastChatReadAt, formatTime(p.LastChatReadAt.Value))
	}
	return m.row, m.changed
}
