package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shootmap/codec"
	"shootmap/identity"
	"shootmap/models"
	"shootmap/sheets"
)

type UserStore struct {
	t   *sheetTable[models.AccountUser]
	now func() time.Time
}

func NewUserStore(client sheets.Table, sheet string, inval Invalidator) *UserStore {
	return &UserStore{
		t: &sheetTable[models.AccountUser]{
			client: client,
			sheet:  sheet,
			width:  codec.UserWidth,
			decode: codec.DecodeUser,
			idOf:   func(u models.AccountUser) string { return u.ID },
			inval:  inval,
		},
		now: time.Now,
	}
}

func (s *UserStore) ListAll(ctx context.Context) ([]models.AccountUser, error) {
	return s.t.listAll(ctx)
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.AccountUser, error) {
	return s.t.get(ctx, id)
}

// GetByUsername returns the active user with the given login name, or nil.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.AccountUser, error) {
	users, err := s.t.listAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Active && users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, nil
}

// Create rejects a login name already held by an active user. The check and
// the append are not atomic.
func (s *UserStore) Create(ctx context.Context, u models.AccountUser) (string, error) {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" || u.PasswordHash == "" {
		return "", fmt.Errorf("%w: username and password hash are required", models.ErrInvalidArgument)
	}

	existing, err := s.t.listAll(ctx)
	if err != nil {
		return "", err
	}
	ids := make([]string, 0, len(existing))
	for _, e := range existing {
		if e.Active && e.Username == u.Username {
			return "", fmt.Errorf("%w: username %q", models.ErrAlreadyExists, u.Username)
		}
		ids = append(ids, e.ID)
	}

	u.ID = identity.NextID(ids)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.DisplayName == "" {
		u.DisplayName = u.Username
	}
	if u.CreatedAt == nil {
		u.CreatedAt = models.Ptr(s.now())
	}
	u.Active = true
	if err := s.t.append(ctx, codec.EncodeUser(u)); err != nil {
		return "", err
	}
	return u.ID, nil
}

func (s *UserStore) UpdateFields(ctx context.Context, id string, p models.UserPatch) (*models.AccountUser, error) {
	return s.t.update(ctx, id, func(base []any) ([]any, []int) {
		return codec.MergeUser(base, p)
	})
}
