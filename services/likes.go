package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Dosada05/tournament-calendar/logger"
	"github.com/Dosada05/tournament-calendar/models"
	"github.com/Dosada05/tournament-calendar/repositories"
	"github.com/Dosada05/tournament-calendar/session"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// LikeEngine keeps the server's like state per tournament. The server is
// authoritative: every toggle response replaces the local state.
type LikeEngine struct {
	repo   repositories.LikeRepository
	tokens session.TokenProvider
	logger *zap.Logger
	group  singleflight.Group

	mu      sync.Mutex
	states  map[string]models.LikeState
	pending map[string]bool
	// epoch растёт при смене зрителя; ответы старой эпохи не сохраняются
	epoch uint64
}

func NewLikeEngine(repo repositories.LikeRepository, tokens session.TokenProvider, log *zap.Logger) *LikeEngine {
	return &LikeEngine{
		repo:    repo,
		tokens:  tokens,
		logger:  logger.OrNop(log).Named("likes"),
		states:  make(map[string]models.LikeState),
		pending: make(map[string]bool),
	}
}

// State returns the like state of id, fetching it on first use. Anonymous
// viewers get visible=false and nothing is requested.
func (e *LikeEngine) State(ctx context.Context, id string) (models.LikeState, bool, error) {
	token, err := e.tokens.Token(ctx)
	if err != nil {
		return models.LikeState{}, false, fmt.Errorf("session token: %w", err)
	}
	if token == "" {
		return models.LikeState{}, false, nil
	}

	e.mu.Lock()
	st, ok := e.states[id]
	epoch := e.epoch
	e.mu.Unlock()
	if ok {
		return st, true, nil
	}

	// the shared fetch outlives any single waiter
	fetchCtx := context.WithoutCancel(ctx)
	ch := e.group.DoChan(fmt.Sprintf("%d/%s", epoch, id), func() (interface{}, error) {
		fetched, err := e.repo.Get(fetchCtx, id)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.epoch != epoch {
			return fetched, nil
		}
		// тоггл мог завершиться раньше, его ответ свежее
		if existing, ok := e.states[id]; ok {
			return existing, nil
		}
		e.states[id] = fetched
		return fetched, nil
	})

	select {
	case <-ctx.Done():
		return models.LikeState{}, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			e.logger.Warn("failed to fetch like state", zap.Error(res.Err), zap.String("tournament_id", id))
			return models.LikeState{}, false, fmt.Errorf("fetch likes for %s: %w", id, res.Err)
		}
		return res.Val.(models.LikeState), true, nil
	}
}

// Toggle flips the viewer's like. While a toggle for id is pending, further
// calls return ErrToggleInFlight without a request.
func (e *LikeEngine) Toggle(ctx context.Context, id string) (models.LikeState, error) {
	token, err := e.tokens.Token(ctx)
	if err != nil {
		return models.LikeState{}, fmt.Errorf("session token: %w", err)
	}
	if token == "" {
		return models.LikeState{}, ErrAuthRequired
	}

	e.mu.Lock()
	if e.pending[id] {
		e.mu.Unlock()
		return models.LikeState{}, ErrToggleInFlight
	}
	e.pending[id] = true
	epoch := e.epoch
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.pending, id)
		e.mu.Unlock()
	}()

	st, err := e.repo.Toggle(ctx, id)
	if err != nil {
		e.logger.Warn("like toggle failed", zap.Error(err), zap.String("tournament_id", id))
		if errors.Is(err, repositories.ErrAuthRequired) {
			return models.LikeState{}, ErrAuthRequired
		}
		return models.LikeState{}, fmt.Errorf("toggle like for %s: %w", id, err)
	}

	e.mu.Lock()
	if e.epoch == epoch {
		e.states[id] = st
	}
	e.mu.Unlock()
	return st, nil
}

// Pending reports whether a toggle for id is in flight.
func (e *LikeEngine) Pending(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending[id]
}

// Reset forgets every cached state when the viewer changes. Fetches and
// toggles started before the reset do not repopulate the cache.
func (e *LikeEngine) Reset() {
	e.mu.Lock()
	e.states = make(map[string]models.LikeState)
	e.epoch++
	e.mu.Unlock()
}
