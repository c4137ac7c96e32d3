package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"shootmap/codec"
	"shootmap/models"
	"shootmap/storage"
)

// ArchiveWorker moves finished shoots from previous months into the archive
// sheet and frees the listing for its next shoot.
//
// Archiving is destructive on the listing side: after the record is
// appended, the listing's shoot status goes back to unshot and its shoot
// timestamp and last editor are cleared. From then on the archive row is
// the only copy of that shoot's attribution, and monthly counts read it
// from there instead of the listing. No other listing column is touched.
type ArchiveWorker struct {
	listings  *storage.ListingStore
	archive   *storage.ArchiveStore
	users     *storage.UserStore
	triggerCh chan struct{}
	logFunc   LogFunc
	now       func() time.Time
}

// NewArchiveWorker creates a new archive worker
func NewArchiveWorker(listings *storage.ListingStore, archive *storage.ArchiveStore, users *storage.UserStore) *ArchiveWorker {
	return &ArchiveWorker{
		listings:  listings,
		archive:   archive,
		users:     users,
		triggerCh: make(chan struct{}, 1),
		logFunc:   NoOpLogger,
		now:       time.Now,
	}
}

func (w *ArchiveWorker) SetLogger(fn LogFunc) {
	w.logFunc = fn
}

// Trigger causes the worker to run immediately
func (w *ArchiveWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// ArchiveResult summarizes one archive pass.
type ArchiveResult struct {
	Scanned  int
	Archived int
	Reset    int
	Skipped  int
}

// Run waits for triggers, plus a pass every interval when interval > 0.
func (w *ArchiveWorker) Run(ctx context.Context, interval time.Duration) {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("Archive worker stopping")
			return
		case <-tick:
			w.runLogged(ctx)
		case <-w.triggerCh:
			w.runLogged(ctx)
		}
	}
}

func (w *ArchiveWorker) runLogged(ctx context.Context) {
	res, err := w.RunOnce(ctx)
	if err != nil {
		log.Printf("Archive: run failed after %d archived: %v", res.Archived, err)
		return
	}
	if res.Archived > 0 || res.Reset > 0 {
		w.logFunc("archive", fmt.Sprintf("archived %d, reset %d of %d listings", res.Archived, res.Reset, res.Scanned))
	}
}

// RunOnce archives every shot listing whose shoot falls before the current
// Japan-time month. A listing already archived for that month is only reset,
// so a pass interrupted between the append and the reset is safe to repeat.
func (w *ArchiveWorker) RunOnce(ctx context.Context) (ArchiveResult, error) {
	var res ArchiveResult
	now := w.now()
	currentMonth := now.In(codec.JST).Format("2006-01")

	listings, err := w.listings.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("list listings: %w", err)
	}
	existing, err := w.archive.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("list archive: %w", err)
	}
	stores, err := w.storeNames(ctx)
	if err != nil {
		return res, err
	}

	archived := make(map[string]bool, len(existing))
	for _, r := range existing {
		archived[r.ListingID+"|"+r.CompletionMonth] = true
	}

	for _, l := range listings {
		res.Scanned++
		if l.Deleted || l.Status != models.ShootStatusShot || l.ShotAt == nil {
			continue
		}
		shot := l.ShotAt.In(codec.JST)
		month := shot.Format("2006-01")
		if month >= currentMonth {
			continue
		}

		if archived[l.ID+"|"+month] {
			res.Skipped++
		} else {
			rec := models.ArchiveRecord{
				ListingID:         l.ID,
				BuildingName:      l.BuildingName,
				RoomLabel:         l.RoomLabel,
				Address:           l.Address,
				PhotographerName:  l.LastEditor,
				PhotographerStore: stores[l.LastEditor],
				ShootingDate:      shot.Format("2006-01-02"),
				ShotAt:            l.ShotAt,
				CompletionMonth:   month,
				CompletionYear:    shot.Year(),
				ArchivedAt:        &now,
				Rent:              l.Rent,
				FloorArea:         l.FloorArea,
				AgentName:         l.AgentName,
			}
			if _, err := w.archive.Create(ctx, rec); err != nil {
				return res, fmt.Errorf("archive listing %s: %w", l.ID, err)
			}
			archived[l.ID+"|"+month] = true
			res.Archived++
		}

		if _, err := w.listings.UpdateFields(ctx, l.ID, models.ListingPatch{
			Status:     models.Some(models.ShootStatusUnshot),
			ShotAt:     models.Some[*time.Time](nil),
			LastEditor: models.Some(""),
		}); err != nil {
			return res, fmt.Errorf("reset listing %s: %w", l.ID, err)
		}
		res.Reset++
	}
	return res, nil
}

func (w *ArchiveWorker) storeNames(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string)
	if w.users == nil {
		return out, nil
	}
	users, err := w.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for _, u := range users {
		if u.DisplayName != "" {
			out[u.DisplayName] = u.StoreName
		}
	}
	return out, nil
}
