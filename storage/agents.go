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

// AgentStore keys agents by phone number.
type AgentStore struct {
	t   *sheetTable[models.Agent]
	now func() time.Time
}

func NewAgentStore(client sheets.Table, sheet string, inval Invalidator) *AgentStore {
	return &AgentStore{
		t: &sheetTable[models.Agent]{
			client: client,
			sheet:  sheet,
			width:  codec.AgentWidth,
			decode: codec.DecodeAgent,
			idOf:   func(a models.Agent) string { return a.Phone },
			inval:  inval,
		},
		now: time.Now,
	}
}

func (s *AgentStore) ListAll(ctx context.Context) ([]models.Agent, error) {
	return s.t.listAll(ctx)
}

func (s *AgentStore) GetByID(ctx context.Context, phone string) (*models.Agent, error) {
	return s.t.get(ctx, phone)
}

func (s *AgentStore) Create(ctx context.Context, a models.Agent) (string, error) {
	a.Phone = identity.Normalize(a.Phone)
	a.Name = strings.TrimSpace(a.Name)
	a.Address = strings.TrimSpace(a.Address)
	if a.Phone == "" || a.Name == "" || a.Address == "" {
		return "", fmt.Errorf("%w: agent phone, name and address are required", models.ErrInvalidArgument)
	}
	if !validCoordinate(a.Lat, 90) || !validCoordinate(a.Lng, 180) {
		return "", fmt.Errorf("%w: agent %s needs a non-zero latitude and longitude", models.ErrInvalidArgument, a.Phone)
	}
	ids, err := s.t.ids(ctx)
	if err != nil {
		return "", err
	}
	for _, id := range ids {
		if id == a.Phone {
			return "", fmt.Errorf("%w: agent %s", models.ErrAlreadyExists, a.Phone)
		}
	}

	now := s.now()
	a.CreatedAt = &now
	a.UpdatedAt = &now
	if err := s.t.append(ctx, codec.EncodeAgent(a)); err != nil {
		return "", err
	}
	return a.Phone, nil
}

// UpdateFields stamps updated_at unless the patch sets it.
func (s *AgentStore) UpdateFields(ctx context.Context, phone string, p models.AgentPatch) (*models.Agent, error) {
	if !p.UpdatedAt.Set {
		p.UpdatedAt = models.Some(models.Ptr(s.now()))
	}
	return s.t.update(ctx, phone, func(base []any) ([]any, []int) {
		return codec.MergeAgent(base, p)
	})
}

// validCoordinate rejects absent, zero and out-of-range values. Zero is how
// a blank coordinate reads back from the sheet.
func validCoordinate(v *float64, limit float64) bool {
	return v != nil && *v != 0 && *v >= -limit && *v <= limit
}
