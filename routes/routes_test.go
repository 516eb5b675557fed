package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Dosada05/tournament-calendar/handlers"
	"github.com/Dosada05/tournament-calendar/live"
	"github.com/Dosada05/tournament-calendar/repositories"
	"github.com/Dosada05/tournament-calendar/services"
	"github.com/Dosada05/tournament-calendar/session"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is an in-memory stand-in for the tournament backend.
type fakeAPI struct {
	mu      sync.Mutex
	records []map[string]any
	deletes int
	likes   int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/tournaments":
		_ = json.NewEncoder(w).Encode(f.records)
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/tournaments/"):
		f.deletes++
		id := strings.TrimPrefix(r.URL.Path, "/api/tournaments/")
		kept := f.records[:0]
		for _, rec := range f.records {
			if rec["id"] != id {
				kept = append(kept, rec)
			}
		}
		f.records = kept
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/api/likes" && r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"count": 2, "liked": false})
	case r.URL.Path == "/api/likes" && r.Method == http.MethodPost:
		f.likes++
		_ = json.NewEncoder(w).Encode(map[string]any{"count": 3, "liked": true})
	case r.URL.Path == "/api/comments":
		_, _ = w.Write([]byte("[]"))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) counts() (deletes, likes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deletes, f.likes
}

func signedToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userID}).SignedString([]byte("k"))
	require.NoError(t, err)
	return token
}

func newGateway(t *testing.T, sess *session.Session) (*httptest.Server, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{records: []map[string]any{
		{"id": "t1", "title": "Spring Cup", "date": "2024-05-01", "startTime": "18:00", "createdBy": "owner-1"},
		{"_id": "t2", "title": "Summer Open", "date": "2024-06-10", "startTime": "09:00", "createdBy": "owner-2"},
	}}
	backend := httptest.NewServer(api)
	t.Cleanup(backend.Close)

	client, err := repositories.NewClient(backend.URL, backend.Client(), sess, nil)
	require.NoError(t, err)
	tournamentRepo := repositories.NewHTTPTournamentRepository(client, "")

	cache := services.NewEventCache(tournamentRepo, nil)
	require.NoError(t, cache.Load(context.Background()))
	composer := services.NewComposer(cache, tournamentRepo, nil, sess, nil)
	likes := services.NewLikeEngine(repositories.NewHTTPLikeRepository(client), sess, nil)
	t.Cleanup(sess.OnIdentityChange(likes.Reset))
	comments := services.NewCommentThreads(repositories.NewHTTPCommentRepository(client), sess, nil)
	detail := services.NewDetailService(cache, likes, comments, composer, nil)
	hub := live.NewHub(nil)

	router := chi.NewRouter()
	SetupRoutes(router,
		Options{AllowedOrigins: []string{"*"}, Session: sess},
		handlers.NewCalendarHandler(cache, detail, composer),
		handlers.NewComposerHandler(composer, cache),
		handlers.NewEngagementHandler(likes, comments),
		handlers.NewSessionHandler(sess, session.NewTheme(false), hub),
		handlers.NewWebSocketHandler(hub, cache, []string{"*"}),
	)
	gw := httptest.NewServer(router)
	t.Cleanup(gw.Close)
	return gw, api
}

func call(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()
	return callAs(t, "", method, url, body)
}

// callAs sends the request with token as its bearer credential.
func callAs(t *testing.T, token, method, url, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func TestViewFiltersByQuery(t *testing.T) {
	gw, _ := newGateway(t, session.Anonymous())

	status, body := call(t, http.MethodGet, gw.URL+"/api/view?q=SUMMER", "")
	require.Equal(t, http.StatusOK, status)
	snap := body["snapshot"].(map[string]any)
	assert.Len(t, snap["records"], 2)
	view := snap["view"].([]any)
	require.Len(t, view, 1)
	assert.Equal(t, "t2", view[0].(map[string]any)["id"])

	status, body = call(t, http.MethodGet, gw.URL+"/api/view?q=2024-05", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["snapshot"].(map[string]any)["view"], 1)
}

func TestMonthRejectsBadParameters(t *testing.T) {
	gw, _ := newGateway(t, session.Anonymous())

	status, _ := call(t, http.MethodGet, gw.URL+"/api/month?year=2024&month=13", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := call(t, http.MethodGet, gw.URL+"/api/month?year=2024&month=5", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["loaded"])
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	sess := session.Anonymous()
	require.NoError(t, sess.SignIn(signedToken(t, "owner-1")))
	gw, api := newGateway(t, sess)

	status, _ := call(t, http.MethodDelete, gw.URL+"/api/tournaments/t1", "")
	assert.Equal(t, http.StatusPreconditionRequired, status)
	deletes, _ := api.counts()
	assert.Zero(t, deletes)

	status, _ = call(t, http.MethodDelete, gw.URL+"/api/tournaments/t2?confirm=true", "")
	assert.Equal(t, http.StatusForbidden, status, "only the creator may delete")
	deletes, _ = api.counts()
	assert.Zero(t, deletes)

	status, _ = call(t, http.MethodDelete, gw.URL+"/api/tournaments/t1?confirm=true", "")
	assert.Equal(t, http.StatusNoContent, status)
	deletes, _ = api.counts()
	assert.Equal(t, 1, deletes)

	_, body := call(t, http.MethodGet, gw.URL+"/api/view", "")
	assert.Len(t, body["snapshot"].(map[string]any)["records"], 1)

	status, _ = call(t, http.MethodDelete, gw.URL+"/api/tournaments/missing?confirm=true", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestComposeValidation(t *testing.T) {
	gw, _ := newGateway(t, session.Anonymous())

	status, body := call(t, http.MethodPost, gw.URL+"/api/compose?date=2024-05-03", "")
	require.Equal(t, http.StatusOK, status)
	state := body["state"].(map[string]any)
	assert.Equal(t, "composing", state["state"])
	assert.Equal(t, "2024-05-03", state["draft"].(map[string]any)["date"])

	status, _ = call(t, http.MethodPost, gw.URL+"/api/compose?date=2024-05-04", "")
	assert.Equal(t, http.StatusConflict, status, "a second form cannot open over the first")

	status, _ = call(t, http.MethodPut, gw.URL+"/api/compose/draft", `{"bogus":1}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, http.MethodPut, gw.URL+"/api/compose/draft", `{"platforms":["switch"]}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = call(t, http.MethodPost, gw.URL+"/api/compose/submit", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "title")

	status, body = call(t, http.MethodPost, gw.URL+"/api/interrupt", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "idle", body["state"].(map[string]any)["state"])

	status, _ = call(t, http.MethodPost, gw.URL+"/api/compose/cancel", "")
	assert.Equal(t, http.StatusConflict, status)
}

func TestLikeToggleNeedsSession(t *testing.T) {
	sess := session.Anonymous()
	gw, api := newGateway(t, sess)

	status, _ := call(t, http.MethodPost, gw.URL+"/api/tournaments/t1/like", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	_, toggles := api.counts()
	assert.Zero(t, toggles)

	status, _ = call(t, http.MethodPost, gw.URL+"/api/session", `{"token":"`+signedToken(t, "fan-9")+`"}`)
	require.Equal(t, http.StatusOK, status)

	status, body := call(t, http.MethodPost, gw.URL+"/api/tournaments/t1/like", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), body["likes"].(map[string]any)["count"])
	_, toggles = api.counts()
	assert.Equal(t, 1, toggles)

	status, _ = call(t, http.MethodDelete, gw.URL+"/api/session", "")
	assert.Equal(t, http.StatusNoContent, status)
	assert.False(t, sess.Authenticated())
}

func TestBearerIdentitySwitchDropsLikeState(t *testing.T) {
	gw, api := newGateway(t, session.Anonymous())
	first, second := signedToken(t, "user-1"), signedToken(t, "user-2")

	likesOf := func(body map[string]any) map[string]any {
		entries := body["day"].(map[string]any)["entries"].([]any)
		require.Len(t, entries, 1)
		return entries[0].(map[string]any)["likes"].(map[string]any)
	}

	status, body := callAs(t, first, http.MethodPost, gw.URL+"/api/tournaments/t1/like", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["likes"].(map[string]any)["liked"])
	_, toggles := api.counts()
	require.Equal(t, 1, toggles)

	status, body = callAs(t, first, http.MethodGet, gw.URL+"/api/days/2024-05-01", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, likesOf(body)["liked"])
	assert.Equal(t, float64(3), likesOf(body)["count"])

	status, body = callAs(t, second, http.MethodGet, gw.URL+"/api/days/2024-05-01", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, likesOf(body)["liked"])
	assert.Equal(t, float64(2), likesOf(body)["count"])
}

func TestThemeToggle(t *testing.T) {
	gw, _ := newGateway(t, session.Anonymous())

	status, body := call(t, http.MethodPost, gw.URL+"/api/theme/toggle", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["theme"].(map[string]any)["dark"])

	_, body = call(t, http.MethodGet, gw.URL+"/api/theme", "")
	assert.Equal(t, true, body["theme"].(map[string]any)["dark"])
}
