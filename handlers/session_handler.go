package handlers

import (
	"net/http"
	"strings"

	"github.com/Dosada05/tournament-calendar/live"
	"github.com/Dosada05/tournament-calendar/middleware"
	"github.com/Dosada05/tournament-calendar/session"
	"go.uber.org/zap"
)

// Publisher pushes a message to connected renderers.
type Publisher interface {
	Publish(msgType string, payload interface{})
}

// SessionHandler manages the identity and the theme preference.
type SessionHandler struct {
	session   *session.Session
	theme     *session.Theme
	publisher Publisher
}

func NewSessionHandler(sess *session.Session, theme *session.Theme, publisher Publisher) *SessionHandler {
	return &SessionHandler{
		session:   sess,
		theme:     theme,
		publisher: publisher,
	}
}

type signInInput struct {
	Token string `json:"token"`
}

type sessionView struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId,omitempty"`
}

type themeView struct {
	Dark bool `json:"dark"`
}

func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, jsonResponse{"session": h.view()})
}

// SignIn replaces the identity. Per-viewer state is dropped by the
// session identity hooks.
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var input signInInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	token := strings.TrimSpace(input.Token)
	if token == "" {
		badRequestResponse(w, r, errTokenRequired)
		return
	}

	if err := h.session.SignIn(token); err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	middleware.LoggerFromContext(r.Context()).Info("signed in", zap.String("user_id", h.session.UserID()))
	respond(w, r, http.StatusOK, jsonResponse{"session": h.view()})
}

func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.session.SignOut()
	middleware.LoggerFromContext(r.Context()).Info("signed out")
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Theme(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, jsonResponse{"theme": themeView{Dark: h.theme.Dark()}})
}

// ToggleTheme flips dark mode and tells every open renderer.
func (h *SessionHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	view := themeView{Dark: h.theme.Toggle()}
	if h.publisher != nil {
		h.publisher.Publish(live.MessageThemeChanged, view)
	}
	respond(w, r, http.StatusOK, jsonResponse{"theme": view})
}

func (h *SessionHandler) view() sessionView {
	return sessionView{
		Authenticated: h.session.Authenticated(),
		UserID:        h.session.UserID(),
	}
}
