package storage

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"shootmap/codec"
	"shootmap/identity"
	"shootmap/models"
	"shootmap/sheets"
)

type MessageStore struct {
	t *sheetTable[models.Message]
}

func NewMessageStore(client sheets.Table, sheet string, inval Invalidator) *MessageStore {
	return &MessageStore{t: &sheetTable[models.Message]{
		client: client,
		sheet:  sheet,
		width:  codec.MessageWidth,
		decode: codec.DecodeMessage,
		idOf:   func(m models.Message) string { return m.ID },
		inval:  inval,
	}}
}

func (s *MessageStore) ListAll(ctx context.Context) ([]models.Message, error) {
	return s.t.listAll(ctx)
}

func (s *MessageStore) GetByID(ctx context.Context, id string) (*models.Message, error) {
	return s.t.get(ctx, id)
}

// Create validates the text length and fills ExpiresAt when unset.
func (s *MessageStore) Create(ctx context.Context, msg models.Message) (string, error) {
	n := utf8.RuneCountInString(strings.TrimSpace(msg.Text))
	if n == 0 || n > models.MaxMessageLength {
		return "", fmt.Errorf("%w: message must be 1..%d characters, got %d", models.ErrInvalidArgument, models.MaxMessageLength, n)
	}
	if msg.Sender == "" || msg.SentAt.IsZero() {
		return "", fmt.Errorf("%w: message sender and sent time are required", models.ErrInvalidArgument)
	}
	if msg.ExpiresAt.IsZero() {
		msg.ExpiresAt = msg.SentAt.Add(models.MessageLifetime)
	}

	ids, err := s.t.ids(ctx)
	if err != nil {
		return "", err
	}
	msg.ID = identity.NextID(ids)
	if err := s.t.append(ctx, codec.EncodeMessage(msg)); err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (s *MessageStore) UpdateFields(ctx context.Context, id string, p models.MessagePatch) (*models.Message, error) {
	return s.t.update(ctx, id, func(base []any) ([]any, []int) {
		return codec.MergeMessage(base, p)
	})
}
