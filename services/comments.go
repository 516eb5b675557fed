package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Dosada05/tournament-calendar/logger"
	"github.com/Dosada05/tournament-calendar/models"
	"github.com/Dosada05/tournament-calendar/repositories"
	"github.com/Dosada05/tournament-calendar/session"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CommentThreads caches one ordered comment list per tournament. Threads are
// fetched once and grow by appending what the server returns for a post.
type CommentThreads struct {
	repo   repositories.CommentRepository
	tokens session.TokenProvider
	logger *zap.Logger
	group  singleflight.Group

	mu      sync.Mutex
	threads map[string][]models.Comment
}

func NewCommentThreads(repo repositories.CommentRepository, tokens session.TokenProvider, log *zap.Logger) *CommentThreads {
	return &CommentThreads{
		repo:    repo,
		tokens:  tokens,
		logger:  logger.OrNop(log).Named("comments"),
		threads: make(map[string][]models.Comment),
	}
}

func (t *CommentThreads) Thread(ctx context.Context, id string) ([]models.Comment, error) {
	t.mu.Lock()
	thread, ok := t.threads[id]
	if ok {
		out := append([]models.Comment{}, thread...)
		t.mu.Unlock()
		return out, nil
	}
	t.mu.Unlock()

	// the shared fetch outlives any single waiter
	fetchCtx := context.WithoutCancel(ctx)
	ch := t.group.DoChan(id, func() (interface{}, error) {
		list, err := t.repo.List(fetchCtx, id)
		if err != nil {
			if !errors.Is(err, repositories.ErrMalformedResponse) {
				return nil, err
			}
			t.logger.Warn("comment list is malformed, showing empty thread", zap.Error(err), zap.String("tournament_id", id))
			list = []models.Comment{}
		}
		t.mu.Lock()
		defer t.mu.Unlock()
		if _, loaded := t.threads[id]; !loaded {
			t.threads[id] = list
		}
		return nil, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			t.logger.Warn("failed to fetch comments", zap.Error(res.Err), zap.String("tournament_id", id))
			return nil, fmt.Errorf("fetch comments for %s: %w", id, res.Err)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.Comment{}, t.threads[id]...), nil
}

// Post sends content and appends the created comment to the local thread.
func (t *CommentThreads) Post(ctx context.Context, id, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, ErrCommentEmpty
	}
	token, err := t.tokens.Token(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("session token: %w", err)
	}
	if token == "" {
		return models.Comment{}, ErrAuthRequired
	}

	created, err := t.repo.Post(ctx, id, content)
	if err != nil {
		t.logger.Warn("failed to post comment", zap.Error(err), zap.String("tournament_id", id))
		if errors.Is(err, repositories.ErrAuthRequired) {
			return models.Comment{}, ErrAuthRequired
		}
		return models.Comment{}, fmt.Errorf("post comment on %s: %w", id, err)
	}

	t.mu.Lock()
	// не загруженный тред подтянет комментарий при первом показе
	if thread, ok := t.threads[id]; ok {
		t.threads[id] = append(thread, *created)
	}
	t.mu.Unlock()
	return *created, nil
}
