package services

import (
	"context"
	"sort"
	"time"

	"shootmap/cache"
	"shootmap/codec"
	"shootmap/models"
)

const rankingSize = 5

// Performer is one photographer's shoot count for a period.
type Performer struct {
	Name  string `json:"name"`
	Store string `json:"store"`
	Count int    `json:"count"`
}

// MVP holds today's and this month's top photographers; either may be nil.
type MVP struct {
	Today   *Performer `json:"today"`
	Monthly *Performer `json:"monthly"`
}

type Ranking struct {
	Rank           int    `json:"rank"`
	Name           string `json:"name"`
	Store          string `json:"store"`
	Count          int    `json:"count"`
	PreviousCount  int    `json:"previous_month_count"`
	MonthOverMonth int    `json:"month_over_month"`
}

// PhotographerStats is one photographer's counts plus the monthly ranking.
type PhotographerStats struct {
	Today         int       `json:"today_count"`
	Month         int       `json:"monthly_count"`
	PreviousMonth int       `json:"previous_month_count"`
	Rankings      []Ranking `json:"rankings"`
}

// LeaderboardService counts shoots per photographer. Listings that are shot
// count toward the photographer in their last-editor column; archived rows
// count toward their recorded photographer.
type LeaderboardService struct {
	snapshot *Snapshot
	cache    *cache.Cache
}

func NewLeaderboardService(snapshot *Snapshot, c *cache.Cache) *LeaderboardService {
	return &LeaderboardService{snapshot: snapshot, cache: c}
}

// MVP returns the top photographers for the day and month containing now,
// in Japan time.
func (s *LeaderboardService) MVP(ctx context.Context, now time.Time) (*MVP, error) {
	day := now.In(codec.JST).Format("2006-01-02")
	key := cache.KeyLeaderboard + ":" + day

	v, err := s.cache.GetOrFetch(ctx, key, s.cache.TTL(cache.KeyLeaderboard), func(ctx context.Context) (any, error) {
		t, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		return &MVP{
			Today:   top(t.day(now)),
			Monthly: top(t.month(monthOf(now))),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*MVP), nil
}

// Stats returns the counts for one photographer, identified by display name.
func (s *LeaderboardService) Stats(ctx context.Context, displayName string, now time.Time) (*PhotographerStats, error) {
	t, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	month := monthOf(now)
	prev := month.AddDate(0, -1, 0)
	current := t.month(month)
	previous := t.month(prev)

	stats := &PhotographerStats{
		Today:         t.day(now)[displayName].Count,
		Month:         current[displayName].Count,
		PreviousMonth: previous[displayName].Count,
	}
	for i, p := range ranked(current) {
		if i == rankingSize {
			break
		}
		pc := previous[p.Name].Count
		stats.Rankings = append(stats.Rankings, Ranking{
			Rank:           i + 1,
			Name:           p.Name,
			Store:          p.Store,
			Count:          p.Count,
			PreviousCount:  pc,
			MonthOverMonth: p.Count - pc,
		})
	}
	return stats, nil
}

type tally struct {
	listings []models.Listing
	archive  []models.ArchiveRecord
	users    map[string]models.AccountUser
}

func (s *LeaderboardService) load(ctx context.Context) (*tally, error) {
	data, err := s.snapshot.Load(ctx)
	if err != nil {
		return nil, err
	}
	archive, err := s.snapshot.Archive(ctx)
	if err != nil {
		return nil, err
	}
	users := make(map[string]models.AccountUser, len(data.Users))
	for _, u := range data.Users {
		if u.DisplayName != "" {
			users[u.DisplayName] = u
		}
	}
	return &tally{listings: data.Listings, archive: archive, users: users}, nil
}

// day counts listings shot on the Japan-time calendar day of now.
func (t *tally) day(now time.Time) map[string]Performer {
	want := now.In(codec.JST).Format("2006-01-02")
	out := make(map[string]Performer)
	for _, l := range t.listings {
		if l.Status != models.ShootStatusShot || l.ShotAt == nil {
			continue
		}
		if l.ShotAt.In(codec.JST).Format("2006-01-02") == want {
			t.creditUser(out, l.LastEditor)
		}
	}
	return out
}

// month counts archived rows completed in month plus listings shot in it.
func (t *tally) month(month time.Time) map[string]Performer {
	want := month.Format("2006-01")
	out := make(map[string]Performer)
	for _, r := range t.archive {
		if r.CompletionMonth != want || r.PhotographerName == "" {
			continue
		}
		p := out[r.PhotographerName]
		p.Name = r.PhotographerName
		p.Store = r.PhotographerStore
		p.Count++
		out[r.PhotographerName] = p
	}
	for _, l := range t.listings {
		if l.Status != models.ShootStatusShot || l.ShotAt == nil {
			continue
		}
		if l.ShotAt.In(codec.JST).Format("2006-01") == want {
			t.creditUser(out, l.LastEditor)
		}
	}
	return out
}

// creditUser counts a listing only when its editor is a known user.
func (t *tally) creditUser(out map[string]Performer, displayName string) {
	u, ok := t.users[displayName]
	if !ok {
		return
	}
	p := out[displayName]
	p.Name = displayName
	p.Store = u.StoreName
	p.Count++
	out[displayName] = p
}

func monthOf(now time.Time) time.Time {
	jst := now.In(codec.JST)
	return time.Date(jst.Year(), jst.Month(), 1, 0, 0, 0, 0, codec.JST)
}

// ranked orders performers by count, then name for a stable order.
func ranked(counts map[string]Performer) []Performer {
	out := make([]Performer, 0, len(counts))
	for _, p := range counts {
		if p.Count > 0 {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func top(counts map[string]Performer) *Performer {
	r := ranked(counts)
	if len(r) == 0 {
		return nil
	}
	return &r[0]
}
