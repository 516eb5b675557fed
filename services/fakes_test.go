package services

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/Dosada05/tournament-calendar/models"
	"github.com/Dosada05/tournament-calendar/storage"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

type staticIdentity string

func (s staticIdentity) UserID() string { return string(s) }

type fakeTournamentRepo struct {
	mu      sync.Mutex
	records []models.Tournament
	nextID  int

	listErr   error
	writeErr  error
	deleteErr error

	// listHook runs after List took its snapshot, before it returns.
	listHook  func()
	writeHook func()

	lists   int
	created []models.TournamentInput
	updated map[string]models.TournamentInput
	deleted []string
}

func newFakeTournamentRepo(records ...models.Tournament) *fakeTournamentRepo {
	return &fakeTournamentRepo{records: records, updated: make(map[string]models.TournamentInput)}
}

func (f *fakeTournamentRepo) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists + len(f.created) + len(f.updated) + len(f.deleted)
}

func (f *fakeTournamentRepo) List(ctx context.Context) ([]models.Tournament, error) {
	f.mu.Lock()
	f.lists++
	listErr := f.listErr
	snapshot := append([]models.Tournament(nil), f.records...)
	hook := f.listHook
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if listErr != nil {
		return nil, listErr
	}
	return snapshot, nil
}

func (f *fakeTournamentRepo) Create(ctx context.Context, in models.TournamentInput) (*models.Tournament, error) {
	f.mu.Lock()
	hook := f.writeHook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	f.nextID++
	t := fromInput(fmt.Sprintf("new-%d", f.nextID), in)
	f.records = append(f.records, t)
	return &t, nil
}

func (f *fakeTournamentRepo) Update(ctx context.Context, id string, in models.TournamentInput) (*models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated[id] = in
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	t := fromInput(id, in)
	for i := range f.records {
		if f.records[i].ID == id {
			t.CreatedBy = f.records[i].CreatedBy
			f.records[i] = t
		}
	}
	return &t, nil
}

func (f *fakeTournamentRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.records {
		if f.records[i].ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			break
		}
	}
	return nil
}

func fromInput(id string, in models.TournamentInput) models.Tournament {
	t := models.Tournament{
		ID:        id,
		Title:     in.Title,
		Date:      in.Date,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Image:     in.Image,
		Platforms: in.Platforms,
		Links:     in.Links,
	}
	if in.Note != "" {
		note := in.Note
		t.Note = &note
	}
	return t
}

type fakeUploader struct {
	mu        sync.Mutex
	uploadErr error
	deleteErr error
	uploads   []string
	deletes   []string
}

func (u *fakeUploader) Upload(ctx context.Context, key, contentType string, r io.Reader) (*storage.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploads = append(u.uploads, key)
	if u.uploadErr != nil {
		return nil, u.uploadErr
	}
	return &storage.UploadResult{Key: key, Location: "https://cdn.test/" + key}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deletes = append(u.deletes, key)
	return u.deleteErr
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

type fakeLikeRepo struct {
	mu      sync.Mutex
	state   map[string]models.LikeState
	gets    int
	toggles int
	err     error

	getHook    func()
	toggleHook func()
}

func newFakeLikeRepo() *fakeLikeRepo {
	return &fakeLikeRepo{state: make(map[string]models.LikeState)}
}

func (f *fakeLikeRepo) Get(ctx context.Context, id string) (models.LikeState, error) {
	f.mu.Lock()
	hook := f.getHook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err := ctx.Err(); err != nil {
		return models.LikeState{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.err != nil {
		return models.LikeState{}, f.err
	}
	return f.state[id], nil
}

func (f *fakeLikeRepo) Toggle(ctx context.Context, id string) (models.LikeState, error) {
	f.mu.Lock()
	hook := f.toggleHook
	f.toggles++
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.LikeState{}, f.err
	}
	st := f.state[id]
	if st.Liked {
		st.Count--
	} else {
		st.Count++
	}
	st.Liked = !st.Liked
	f.state[id] = st
	return st, nil
}

type fakeCommentRepo struct {
	mu      sync.Mutex
	threads map[string][]models.Comment
	listErr  error
	listHook func()
	lists    int
	posts    int
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{threads: make(map[string][]models.Comment)}
}

func (f *fakeCommentRepo) List(ctx context.Context, id string) ([]models.Comment, error) {
	f.mu.Lock()
	hook := f.listHook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Comment{}, f.threads[id]...), nil
}

func (f *fakeCommentRepo) Post(ctx context.Context, id, content string) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts++
	c := models.Comment{
		ID:           fmt.Sprintf("c-%d", len(f.threads[id])+1),
		TournamentID: id,
		UserID:       "user-abcdef",
		Content:      content,
	}
	f.threads[id] = append(f.threads[id], c)
	return &c, nil
}

func tournament(id, title, date, start string) models.Tournament {
	return models.Tournament{
		ID:        id,
		Title:     title,
		Date:      models.MustParseDate(date),
		StartTime: start,
		Platforms: []models.Platform{},
		Links:     []models.Link{},
	}
}
