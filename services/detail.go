package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Dosada05/tournament-calendar/logger"
	"github.com/Dosada05/tournament-calendar/models"
	"github.com/Dosada05/tournament-calendar/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const detailFetchLimit = 8

type LinkView struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type CommentView struct {
	ID        string     `json:"id"`
	Author    string     `json:"author"`
	Content   string     `json:"content"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// DetailEntry is one tournament as shown in the day panel.
type DetailEntry struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Image      string            `json:"image,omitempty"`
	StartLabel string            `json:"startLabel"`
	EndLabel   string            `json:"endLabel"`
	Platforms  []models.Platform `json:"platforms"`
	Links      []LinkView        `json:"links"`
	Note       string            `json:"note,omitempty"`
	CanModify  bool              `json:"canModify"`

	// Likes is nil for anonymous viewers or when the fetch failed.
	Likes    *models.LikeState `json:"likes,omitempty"`
	Comments []CommentView     `json:"comments"`
}

type DayDetail struct {
	Date    models.Date   `json:"date"`
	Entries []DetailEntry `json:"entries"`
}

// DetailService assembles the day panel: every cached record on a date with
// its like state and comments, fetched concurrently.
type DetailService struct {
	cache    *EventCache
	likes    *LikeEngine
	comments *CommentThreads
	composer *Composer
	logger   *zap.Logger
}

func NewDetailService(cache *EventCache, likes *LikeEngine, comments *CommentThreads, composer *Composer, log *zap.Logger) *DetailService {
	return &DetailService{
		cache:    cache,
		likes:    likes,
		comments: comments,
		composer: composer,
		logger:   logger.OrNop(log).Named("detail"),
	}
}

// Day builds the panel for date. A failed like or comment fetch leaves that
// part empty; only cancellation of ctx fails the whole call.
func (s *DetailService) Day(ctx context.Context, date models.Date) (DayDetail, error) {
	records := s.cache.OnDate(date)
	sort.SliceStable(records, func(i, j int) bool { return records[i].StartTime < records[j].StartTime })

	detail := DayDetail{Date: date, Entries: make([]DetailEntry, len(records))}
	for i, t := range records {
		detail.Entries[i] = s.entry(t)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailFetchLimit)
	for i := range records {
		entry := &detail.Entries[i]
		id := records[i].ID
		if id == "" {
			continue
		}

		if s.likes != nil {
			g.Go(func() error {
				st, visible, err := s.likes.State(gctx, id)
				if err != nil {
					return cancelled(gctx, err)
				}
				if visible {
					entry.Likes = &st
				}
				return nil
			})
		}
		if s.comments != nil {
			g.Go(func() error {
				thread, err := s.comments.Thread(gctx, id)
				if err != nil {
					return cancelled(gctx, err)
				}
				entry.Comments = CommentViews(thread)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return DayDetail{}, fmt.Errorf("day detail %s: %w", date, err)
	}
	return detail, nil
}

func (s *DetailService) entry(t models.Tournament) DetailEntry {
	e := DetailEntry{
		ID:         t.ID,
		Title:      t.Title,
		Image:      utils.Deref(t.Image),
		StartLabel: utils.FormatTime12h(t.StartTime),
		EndLabel:   utils.FormatTime12h(t.EndTime),
		Platforms:  append([]models.Platform{}, t.Platforms...),
		Links:      linkViews(t.Links),
		Note:       strings.TrimSpace(utils.Deref(t.Note)),
		Comments:   []CommentView{},
	}
	if s.composer != nil {
		e.CanModify = s.composer.CanModify(t)
	}
	return e
}

// cancelled keeps per-entry fetch failures local unless ctx itself is done.
func cancelled(ctx context.Context, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return err
	}
	return nil
}

func linkViews(links []models.Link) []LinkView {
	out := make([]LinkView, 0, len(links))
	for _, l := range links {
		if strings.TrimSpace(l.URL) == "" {
			continue
		}
		label := strings.TrimSpace(l.Name)
		if label == "" {
			label = fmt.Sprintf("Link %d", len(out)+1)
		}
		out = append(out, LinkView{Label: label, URL: l.URL})
	}
	return out
}

// CommentViews labels each comment with its short author tag.
func CommentViews(thread []models.Comment) []CommentView {
	out := make([]CommentView, 0, len(thread))
	for _, c := range thread {
		out = append(out, CommentView{
			ID:        c.ID,
			Author:    c.AuthorTag(),
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}
	return out
}
