package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Dosada05/tournament-calendar/logger"
	"github.com/Dosada05/tournament-calendar/models"
	"github.com/Dosada05/tournament-calendar/repositories"
	"github.com/Dosada05/tournament-calendar/storage"
	"github.com/Dosada05/tournament-calendar/utils"
	"go.uber.org/zap"
)

type FormState int

const (
	StateIdle FormState = iota
	StateComposing
	StateViewingDay
)

func (s FormState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateComposing:
		return "composing"
	case StateViewingDay:
		return "viewing_day"
	default:
		return "unknown"
	}
}

func (s FormState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Identity reports the signed-in user; an empty id means anonymous.
type Identity interface {
	UserID() string
}

// ComposerState is a read-only copy of the form state machine.
type ComposerState struct {
	State      FormState     `json:"state"`
	Draft      *models.Draft `json:"draft,omitempty"`
	Day        *models.Date  `json:"day,omitempty"`
	Submitting bool          `json:"submitting"`
	LastError  string        `json:"lastError,omitempty"`
	Generation uint64        `json:"generation"`
}

// ConfirmFunc is asked before a destructive delete; false aborts it.
type ConfirmFunc func(t models.Tournament) bool

// Composer drives the create/edit form and the day view:
// Idle, Composing(draft) and ViewingDay(date).
type Composer struct {
	cache    *EventCache
	repo     repositories.TournamentRepository
	uploader storage.FileUploader
	identity Identity
	logger   *zap.Logger

	mu         sync.Mutex
	state      FormState
	draft      models.Draft
	day        models.Date
	generation uint64
	lastErr    error

	// generation of the form whose submit is in flight, 0 when none
	submittingGen uint64
}

func NewComposer(
	cache *EventCache,
	repo repositories.TournamentRepository,
	uploader storage.FileUploader,
	identity Identity,
	log *zap.Logger,
) *Composer {
	return &Composer{
		cache:    cache,
		repo:     repo,
		uploader: uploader,
		identity: identity,
		logger:   logger.OrNop(log).Named("composer"),
	}
}

func (c *Composer) State() ComposerState {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := ComposerState{
		State:      c.state,
		Submitting: c.submittingLocked(),
		Generation: c.generation,
	}
	switch c.state {
	case StateComposing:
		d := c.draft.Clone()
		st.Draft = &d
	case StateViewingDay:
		day := c.day
		st.Day = &day
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	return st
}

// Draft returns a copy of the draft being edited.
func (c *Composer) Draft() (models.Draft, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateComposing {
		return models.Draft{}, false
	}
	return c.draft.Clone(), true
}

func (c *Composer) CellActions() CellActions {
	return CellActions{
		OnSelect: c.InspectDay,
		OnAdd:    c.NewAt,
	}
}

// NewAt opens an empty form for date. An open day view is closed.
func (c *Composer) NewAt(date models.Date) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateComposing {
		return ErrInvalidTransition
	}
	c.transitionLocked(StateComposing)
	c.draft = models.NewDraft(date)
	return nil
}

// EditRecord opens the form pre-filled from the cached record id.
func (c *Composer) EditRecord(id string) error {
	rec, ok := c.cache.Get(id)
	if !ok {
		return ErrTournamentNotFound
	}
	if err := c.checkOwner(rec); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateComposing {
		return ErrInvalidTransition
	}
	c.transitionLocked(StateComposing)
	c.draft = models.DraftFromTournament(rec)
	return nil
}

func (c *Composer) InspectDay(date models.Date) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transitionLocked(StateViewingDay)
	c.day = date
	return nil
}

func (c *Composer) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateComposing {
		return ErrInvalidTransition
	}
	c.transitionLocked(StateIdle)
	return nil
}

// Interrupt closes the form and the day view together.
func (c *Composer) Interrupt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transitionLocked(StateIdle)
}

func (c *Composer) UpdateDraft(fn func(d *models.Draft)) error {
	return c.editDraft(func(d *models.Draft) error {
		bound := d.BoundID
		fn(d)
		d.BoundID = bound
		return nil
	})
}

func (c *Composer) TogglePlatform(p models.Platform) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPlatform, p)
	}
	return c.editDraft(func(d *models.Draft) error {
		for i, existing := range d.Platforms {
			if existing == p {
				d.Platforms = append(d.Platforms[:i], d.Platforms[i+1:]...)
				return nil
			}
		}
		d.Platforms = append(d.Platforms, p)
		return nil
	})
}

func (c *Composer) AddLink() error {
	return c.editDraft(func(d *models.Draft) error {
		d.Links = append(d.Links, models.Link{})
		return nil
	})
}

func (c *Composer) SetLink(i int, link models.Link) error {
	return c.editDraft(func(d *models.Draft) error {
		if i < 0 || i >= len(d.Links) {
			return ErrLinkIndexOutOfRange
		}
		d.Links[i] = link
		return nil
	})
}

func (c *Composer) AttachImage(fileName, contentType string, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyAttachment
	}
	return c.editDraft(func(d *models.Draft) error {
		d.Attachment = &models.Attachment{FileName: fileName, ContentType: contentType, Data: data}
		return nil
	})
}

func (c *Composer) editDraft(fn func(d *models.Draft) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateComposing {
		return ErrInvalidTransition
	}
	if c.submittingLocked() {
		return ErrSubmitInFlight
	}
	d := c.draft.Clone()
	if err := fn(&d); err != nil {
		return err
	}
	c.draft = d
	return nil
}

// Submit uploads the attachment (if any), writes the record and reloads the
// cache. On failure the form stays open with LastError set. Once validation
// passes, cancelling ctx no longer interrupts the write or the reload.
func (c *Composer) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateComposing {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	if c.submittingLocked() {
		c.mu.Unlock()
		return ErrSubmitInFlight
	}
	draft := c.draft.Clone()
	if err := validateDraft(draft); err != nil {
		c.lastErr = err
		c.mu.Unlock()
		return err
	}
	gen := c.generation
	c.submittingGen = gen
	c.lastErr = nil
	c.mu.Unlock()

	// начатое сохранение доводится до конца, даже если вызывающий ушёл
	ctx = context.WithoutCancel(ctx)
	imageURL, uploadedKey := c.resolveImage(ctx, draft)
	input := draft.Input(imageURL)

	var err error
	if draft.IsBound() {
		_, err = c.repo.Update(ctx, draft.BoundID, input)
	} else {
		_, err = c.repo.Create(ctx, input)
	}
	if err != nil {
		c.logger.Error("failed to save tournament",
			zap.Error(err),
			zap.String("tournament_id", draft.BoundID),
			zap.String("title", input.Title),
		)
		if uploadedKey != "" {
			c.discardUpload(ctx, uploadedKey)
		}
		c.mu.Lock()
		c.finishSubmitLocked(gen)
		if c.generation == gen {
			c.lastErr = err
		}
		c.mu.Unlock()
		return fmt.Errorf("save tournament: %w", err)
	}

	c.logger.Info("tournament saved", zap.String("tournament_id", draft.BoundID), zap.Bool("update", draft.IsBound()))

	// Ошибка перезагрузки уже залогирована кэшем; запись на сервере прошла.
	_ = c.cache.Load(ctx)

	c.mu.Lock()
	c.finishSubmitLocked(gen)
	if c.generation == gen {
		c.transitionLocked(StateIdle)
	}
	c.mu.Unlock()
	return nil
}

// resolveImage uploads the attachment. A failed upload keeps the draft's current URL.
func (c *Composer) resolveImage(ctx context.Context, d models.Draft) (*string, string) {
	imageURL := d.ImageURL
	if d.Attachment == nil {
		return imageURL, ""
	}
	if c.uploader == nil {
		c.logger.Warn("no asset uploader configured, submitting without new image")
		return imageURL, ""
	}

	key := storage.NewObjectKey(d.Attachment.FileName)
	res, err := c.uploader.Upload(ctx, key, d.Attachment.ContentType, bytes.NewReader(d.Attachment.Data))
	if err != nil {
		c.logger.Warn("image upload failed, submitting without new image",
			zap.Error(err),
			zap.String("file_name", d.Attachment.FileName),
		)
		return imageURL, ""
	}
	url := utils.StringOrNil(res.Location)
	if url == nil {
		// R2 без публичного URL: файл загружен, но ссылку не построить.
		c.logger.Warn("upload returned no public url, keeping current image", zap.String("key", res.Key))
		return imageURL, res.Key
	}
	return url, res.Key
}

func (c *Composer) discardUpload(ctx context.Context, key string) {
	err := c.uploader.Delete(ctx, key)
	switch {
	case err == nil:
		c.logger.Info("orphaned upload removed", zap.String("key", key))
	case errors.Is(err, storage.ErrDeleteUnsupported):
		c.logger.Debug("orphaned upload left in place", zap.String("key", key))
	default:
		c.logger.Warn("failed to remove orphaned upload", zap.Error(err), zap.String("key", key))
	}
}

// Delete removes the record after confirm approves it, evicts it from the
// cache and closes the day view. The remote delete is not cancelled with ctx.
func (c *Composer) Delete(ctx context.Context, id string, confirm ConfirmFunc) error {
	rec, ok := c.cache.Get(id)
	if !ok {
		return ErrTournamentNotFound
	}
	if err := c.checkOwner(rec); err != nil {
		return err
	}
	if confirm == nil || !confirm(rec) {
		return ErrDeleteNotConfirmed
	}

	ctx = context.WithoutCancel(ctx)
	if err := c.repo.Delete(ctx, id); err != nil {
		c.logger.Error("failed to delete tournament", zap.Error(err), zap.String("tournament_id", id))
		if repositories.IsNotFound(err) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("delete tournament %s: %w", id, err)
	}

	c.cache.Remove(id)
	c.logger.Info("tournament deleted", zap.String("tournament_id", id))

	c.mu.Lock()
	switch {
	case c.state == StateViewingDay:
		c.transitionLocked(StateIdle)
	case c.state == StateComposing && c.draft.BoundID == id:
		c.transitionLocked(StateIdle)
	}
	c.mu.Unlock()
	return nil
}

// CanModify reports whether the current user may edit or delete t.
func (c *Composer) CanModify(t models.Tournament) bool {
	return c.checkOwner(t) == nil
}

func (c *Composer) checkOwner(t models.Tournament) error {
	if c.identity == nil {
		return nil
	}
	user := c.identity.UserID()
	if user != "" && t.CreatedBy != "" && user != t.CreatedBy {
		return ErrNotOwner
	}
	return nil
}

func (c *Composer) submittingLocked() bool {
	return c.submittingGen != 0 && c.submittingGen == c.generation
}

func (c *Composer) finishSubmitLocked(gen uint64) {
	if c.submittingGen == gen {
		c.submittingGen = 0
	}
}

func (c *Composer) transitionLocked(next FormState) {
	c.generation++
	c.state = next
	c.lastErr = nil
	if next != StateComposing {
		c.draft = models.Draft{}
	}
	if next != StateViewingDay {
		c.day = models.Date{}
	}
}

func validateDraft(d models.Draft) error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(d.StartTime) == "" {
		return ErrStartTimeRequired
	}
	return nil
}
