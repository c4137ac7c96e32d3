package codec

import (
	"strings"

	"shootmap/models"
)

// Agent columns (key_agents sheet, A..G).
const (
	ColAgentPhoneID = iota
	ColAgentNameCol
	ColAgentAddress
	ColAgentLat
	ColAgentLng
	ColAgentCreatedAt
	ColAgentUpdatedAt

	AgentWidth
)

var AgentHeader = []string{
	"phone_number", "agent_name", "address", "latitude", "longitude", "created_at", "updated_at",
}

func DecodeAgent(row []any) (models.Agent, error) {
	a := models.Agent{
		Phone:     strings.TrimSpace(text(row, ColAgentPhoneID)),
		Name:      strings.TrimSpace(text(row, ColAgentNameCol)),
		Address:   strings.TrimSpace(text(row, ColAgentAddress)),
		Lat:       number(cell(row, ColAgentLat)),
		Lng:       number(cell(row, ColAgentLng)),
		CreatedAt: timestamp(cell(row, ColAgentCreatedAt)),
		UpdatedAt: timestamp(cell(row, ColAgentUpdatedAt)),
	}
	if a.Phone == "" {
		return a, &models.MalformedRowError{Sheet: "agent", Reason: "blank phone number"}
	}
	return a, nil
}

func EncodeAgent(a models.Agent) []any {
	return []any{
		a.Phone,
		a.Name,
		a.Address,
		formatFloat(a.Lat),
		formatFloat(a.Lng),
		formatTime(a.CreatedAt),
		formatTime(a.UpdatedAt),
	}
}

func MergeAgent(base []any, p models.AgentPatch) ([]any, []int) {
	m := newMerger(base, AgentWidth)
	if p.Name.Set {
		m.set(ColAgentNameCol, p.Name.Value)
	}
	if p.Address.Set {
		m.set(ColAgentAddress, p.Address.Value)
	}
	if p.Lat.Set {
		m.set(ColAgentLat, formatFloat(p.Lat.Value))
	}
	if p.Lng.Set {
		m.set(ColAgentLng, formatFloat(p.Lng.Value))
	}
	if p.UpdatedAt.Set {
		m.set(ColAgentUpdatedAt, formatTime(p.UpdatedAt.Value))
	}
	return m.row, m.changed
}
