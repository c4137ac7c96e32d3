package codec

import (
	"shootmap/identity"
	"shootmap/models"
)

// Message columns (chat_messages sheet, A..F).
const (
	ColMessageID = iota
	ColSender
	ColText
	ColSentAt
	ColExpiresAt
	ColMessageDeleted

	MessageWidth
)

var MessageHeader = []string{"id", "sender_username", "message_text", "sent_at", "expires_at", "is_deleted"}

func DecodeMessage(row []any) (models.Message, error) {
	msg := models.Message{
		ID:      identity.Normalize(text(row, ColMessageID)),
		Sender:  text(row, ColSender),
		Text:    text(row, ColText),
		Deleted: boolean(cell(row, ColMessageDeleted)),
	}
	if msg.ID == "" {
		return msg, &models.MalformedRowError{Sheet: "message", Reason: "blank identifier"}
	}
	sent := timestamp(cell(row, ColSentAt))
	if sent == nil {
		return msg, &models.MalformedRowError{Sheet: "message", Reason: "unreadable sent_at (id " + msg.ID + ")"}
	}
	msg.SentAt = *sent
	if exp := timestamp(cell(row, ColExpiresAt)); exp != nil {
		msg.ExpiresAt = *exp
	} else {
		msg.ExpiresAt = msg.SentAt.Add(models.MessageLifetime)
	}
	return msg, nil
}

func EncodeMessage(msg models.Message) []any {
	return []any{
		msg.ID,
		msg.Sender,
		msg.Text,
		formatTime(&msg.SentAt),
		formatTime(&msg.ExpiresAt),
		formatBool(msg.Deleted),
	}
}

func MergeMessage(base []any, p models.MessagePatch) ([]any, []int) {
	m := newMerger(base, MessageWidth)
	if p.Deleted.Set {
		m.set(ColMessageDeleted, formatBool(p.Deleted.Value))
	}
	return m.row, m.changed
}
