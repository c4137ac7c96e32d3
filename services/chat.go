package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"shootmap/models"
	"shootmap/storage"
)

// ChatService is the shared team chat. Messages expire 48 hours after they
// are sent; expired rows are flagged deleted by PruneExpired.
type ChatService struct {
	snapshot *Snapshot
	messages *storage.MessageStore
	users    *storage.UserStore
	now      func() time.Time
}

func NewChatService(snapshot *Snapshot, messages *storage.MessageStore, users *storage.UserStore) *ChatService {
	return &ChatService{
		snapshot: snapshot,
		messages: messages,
		users:    users,
		now:      time.Now,
	}
}

// Send posts text as sender, the user's display name.
func (s *ChatService) Send(ctx context.Context, sender, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if strings.TrimSpace(sender) == "" {
		return nil, fmt.Errorf("%w: sender is required", models.ErrInvalidArgument)
	}

	now := s.now()
	msg := models.Message{
		Sender:    sender,
		Text:      text,
		SentAt:    now,
		ExpiresAt: now.Add(models.MessageLifetime),
	}
	id, err := s.messages.Create(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	msg.ID = id
	return &msg, nil
}

// Messages returns the visible messages, oldest first.
func (s *ChatService) Messages(ctx context.Context) ([]models.Message, error) {
	all, err := s.snapshot.Messages(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]models.Message, 0, len(all))
	for _, m := range all {
		if visible(m, now) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SentAt.Before(out[j].SentAt)
	})
	return out, nil
}

// HasUnread reports whether the newest visible message was posted by someone
// else after the user last opened the chat.
func (s *ChatService) HasUnread(ctx context.Context, userID string) (bool, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if u == nil {
		return false, fmt.Errorf("%w: user %s", models.ErrEntityNotFound, userID)
	}

	msgs, err := s.Messages(ctx)
	if err != nil {
		return false, err
	}
	if len(msgs) == 0 {
		return false, nil
	}
	latest := msgs[len(msgs)-1]
	if latest.Sender == u.DisplayName {
		return false, nil
	}
	return u.LastChatReadAt == nil || latest.SentAt.After(*u.LastChatReadAt), nil
}

// MarkRead stamps the user's last-read time with now.
func (s *ChatService) MarkRead(ctx context.Context, userID string) (time.Time, error) {
	now := s.now()
	if _, err := s.users.UpdateFields(ctx, userID, models.UserPatch{
		LastChatReadAt: models.Some(&now),
	}); err != nil {
		return time.Time{}, fmt.Errorf("mark chat read: %w", err)
	}
	return now, nil
}

// PruneExpired flags every expired, not yet deleted message as deleted and
// returns how many it flagged. It reads the sheet directly, not the cache.
func (s *ChatService) PruneExpired(ctx context.Context) (int, error) {
	all, err := s.messages.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	pruned := 0
	for _, m := range all {
		if m.Deleted || now.Before(m.ExpiresAt) {
			continue
		}
		if _, err := s.messages.UpdateFields(ctx, m.ID, models.MessagePatch{Deleted: models.Some(true)}); err != nil {
			return pruned, fmt.Errorf("prune message %s: %w", m.ID, err)
		}
		pruned++
	}
	if pruned > 0 {
		log.Printf("Chat: pruned %d expired messages", pruned)
	}
	return pruned, nil
}

func visible(m models.Message, now time.Time) bool {
	return !m.Deleted && m.Text != "" && now.Before(m.ExpiresAt)
}
