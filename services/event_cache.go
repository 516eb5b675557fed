package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Dosada05/tournament-calendar/logger"
	"github.com/Dosada05/tournament-calendar/models"
	"github.com/Dosada05/tournament-calendar/repositories"
	"go.uber.org/zap"
)

// Snapshot is a consistent copy of the cache and its filtered view.
type Snapshot struct {
	Generation uint64              `json:"generation"`
	Query      string              `json:"query"`
	Records    []models.Tournament `json:"records"`
	View       []models.Tournament `json:"view"`
}

type ChangeFunc func(Snapshot)

// EventCache holds the tournaments known to the client. The only write paths
// are Load (wholesale replace) and Remove (local eviction after a delete).
type EventCache struct {
	repo   repositories.TournamentRepository
	logger *zap.Logger

	mu         sync.RWMutex
	records    []models.Tournament
	byID       map[string]int
	query      string
	view       []models.Tournament
	generation uint64
	loaded     bool

	subMu       sync.Mutex
	subscribers map[int]ChangeFunc
	nextSubID   int
}

func NewEventCache(repo repositories.TournamentRepository, log *zap.Logger) *EventCache {
	return &EventCache{
		repo:        repo,
		logger:      logger.OrNop(log).Named("event_cache"),
		byID:        make(map[string]int),
		records:     []models.Tournament{},
		view:        []models.Tournament{},
		subscribers: make(map[int]ChangeFunc),
	}
}

// Load fetches the full list and replaces the cache. On failure the previous
// contents stay in place. A malformed list is treated as an empty result.
// If another Load or Remove started after this one, the result is discarded.
func (c *EventCache) Load(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	list, err := c.repo.List(ctx)
	if err != nil {
		if !errors.Is(err, repositories.ErrMalformedResponse) {
			c.logger.Error("failed to load tournaments", zap.Error(err), zap.Uint64("generation", gen))
			return fmt.Errorf("load tournaments: %w", err)
		}
		c.logger.Warn("tournament list is malformed, treating as empty", zap.Error(err), zap.Uint64("generation", gen))
		list = nil
	}

	c.mu.Lock()
	if gen != c.generation {
		latest := c.generation
		c.mu.Unlock()
		c.logger.Debug("discarding stale tournament list",
			zap.Uint64("generation", gen),
			zap.Uint64("latest", latest),
		)
		return nil
	}
	c.replaceLocked(list)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("tournaments loaded", zap.Int("count", len(snap.Records)), zap.Uint64("generation", gen))
	c.notify(snap)
	return nil
}

// Remove evicts id from the cache and the view. It reports whether the id was present.
func (c *EventCache) Remove(id string) bool {
	c.mu.Lock()
	idx, ok := c.byID[id]
	if !ok {
		c.mu.Unlock()
		return false
	}
	c.generation++
	records := make([]models.Tournament, 0, len(c.records)-1)
	records = append(records, c.records[:idx]...)
	records = append(records, c.records[idx+1:]...)
	c.setRecordsLocked(records)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("tournament evicted", zap.String("tournament_id", id))
	c.notify(snap)
	return true
}

// SetQuery changes the search query and returns the recomputed view.
func (c *EventCache) SetQuery(query string) []models.Tournament {
	c.mu.Lock()
	if query == c.query {
		view := cloneTournaments(c.view)
		c.mu.Unlock()
		return view
	}
	c.query = query
	c.view = FilterTournaments(c.query, c.records)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return snap.View
}

func (c *EventCache) Query() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.query
}

func (c *EventCache) Records() []models.Tournament {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneTournaments(c.records)
}

func (c *EventCache) View() []models.Tournament {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneTournaments(c.view)
}

func (c *EventCache) Get(id string) (models.Tournament, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.byID[id]
	if !ok {
		return models.Tournament{}, false
	}
	return c.records[idx].Clone(), true
}

// OnDate returns every cached tournament on date, ignoring the search query.
func (c *EventCache) OnDate(date models.Date) []models.Tournament {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Tournament
	for _, t := range c.records {
		if t.Date == date {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Loaded reports whether at least one Load has been applied.
func (c *EventCache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *EventCache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// OnChange registers fn to be called after every applied change.
// The returned func unregisters it.
func (c *EventCache) OnChange(fn ChangeFunc) func() {
	c.subMu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subscribers, id)
		c.subMu.Unlock()
	}
}

func (c *EventCache) notify(snap Snapshot) {
	c.subMu.Lock()
	subs := make([]ChangeFunc, 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (c *EventCache) replaceLocked(list []models.Tournament) {
	records := make([]models.Tournament, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, t := range list {
		if t.ID != "" {
			if seen[t.ID] {
				c.logger.Warn("duplicate tournament id in list, keeping first", zap.String("tournament_id", t.ID))
				continue
			}
			seen[t.ID] = true
		}
		records = append(records, t.Clone())
	}
	c.setRecordsLocked(records)
	c.loaded = true
}

func (c *EventCache) setRecordsLocked(records []models.Tournament) {
	c.records = records
	c.byID = make(map[string]int, len(records))
	for i, t := range records {
		if t.ID != "" {
			c.byID[t.ID] = i
		}
	}
	c.view = FilterTournaments(c.query, c.records)
}

func (c *EventCache) snapshotLocked() Snapshot {
	return Snapshot{
		Generation: c.generation,
		Query:      c.query,
		Records:    cloneTournaments(c.records),
		View:       cloneTournaments(c.view),
	}
}

func cloneTournaments(in []models.Tournament) []models.Tournament {
	out := make([]models.Tournament, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}
