package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-calendar/models"
	"github.com/Dosada05/tournament-calendar/services"
)

// EngagementHandler serves likes and comment threads.
type EngagementHandler struct {
	likes    *services.LikeEngine
	comments *services.CommentThreads
}

func NewEngagementHandler(likes *services.LikeEngine, comments *services.CommentThreads) *EngagementHandler {
	return &EngagementHandler{likes: likes, comments: comments}
}

type commentInput struct {
	Content string `json:"content"`
}

func (h *EngagementHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.likes.Toggle(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"likes": state})
}

func (h *EngagementHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	thread, err := h.comments.Thread(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"comments": services.CommentViews(thread)})
}

func (h *EngagementHandler) PostComment(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input commentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	created, err := h.comments.Post(r.Context(), id, input.Content)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	views := services.CommentViews([]models.Comment{created})
	respond(w, r, http.StatusCreated, jsonResponse{"comment": views[0]})
}
