package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Dosada05/tournament-calendar/models"
	"github.com/Dosada05/tournament-calendar/services"
	"github.com/go-chi/chi/v5"
)

const maxImageBytes = 10 << 20

// ComposerHandler exposes the form state machine to the renderer.
type ComposerHandler struct {
	composer *services.Composer
	cache    *services.EventCache
	now      func() time.Time
}

func NewComposerHandler(composer *services.Composer, cache *services.EventCache) *ComposerHandler {
	return &ComposerHandler{composer: composer, cache: cache, now: time.Now}
}

// draftInput is a partial update of the open draft; nil fields are left as is.
type draftInput struct {
	Title      *string           `json:"title"`
	Date       *models.Date      `json:"date"`
	StartTime  *string           `json:"startTime"`
	EndTime    *string           `json:"endTime"`
	Note       *string           `json:"note"`
	Platforms  []models.Platform `json:"platforms"`
	Links      []models.Link     `json:"links"`
	ClearImage bool              `json:"clearImage"`
}

func (in draftInput) apply(d *models.Draft) {
	if in.Title != nil {
		d.Title = *in.Title
	}
	if in.Date != nil {
		d.Date = *in.Date
	}
	if in.StartTime != nil {
		d.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		d.EndTime = *in.EndTime
	}
	if in.Note != nil {
		d.Note = *in.Note
	}
	if in.Platforms != nil {
		d.Platforms = append([]models.Platform{}, in.Platforms...)
	}
	if in.Links != nil {
		d.Links = append([]models.Link{}, in.Links...)
	}
	if in.ClearImage {
		d.ImageURL = nil
		d.Attachment = nil
	}
}

func (h *ComposerHandler) State(w http.ResponseWriter, r *http.Request) {
	h.writeState(w, r, http.StatusOK)
}

// Compose opens an empty form for ?date=, defaulting to today.
func (h *ComposerHandler) Compose(w http.ResponseWriter, r *http.Request) {
	date := models.DateOf(h.now())
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		date = d
	}

	if err := h.composer.CellActions().OnAdd(date); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeState(w, r, http.StatusOK)
}

func (h *ComposerHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.composer.EditRecord(id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeState(w, r, http.StatusOK)
}

func (h *ComposerHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var input draftInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	for _, p := range input.Platforms {
		if !p.Valid() {
			badRequestResponse(w, r, fmt.Errorf("%w: %q", services.ErrInvalidPlatform, p))
			return
		}
	}

	if err := h.composer.UpdateDraft(input.apply); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeState(w, r, http.StatusOK)
}

func (h *ComposerHandler) TogglePlatform(w http.ResponseWriter, r *http.Request) {
	p := models.Platform(chi.URLParam(r, "platform"))
	if err := h.composer.TogglePlatform(p); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeState(w, r, http.StatusOK)
}

func (h *ComposerHandler) AddLink(w http.ResponseWriter, r *http.Request) {
	if err := h.composer.AddLink(); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeState(w, r, http.StatusOK)
}

func (h *ComposerHandler) SetLink(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("invalid link index %q", chi.URLParam(r, "index")))
		return
	}
	var link models.Link
	if err := readJSON(w, r, &link); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.composer.SetLink(index, link); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeState(w, r, http.StatusOK)
}

// UploadImage attaches the multipart "file" field to the draft. The file is
// uploaded to the asset backend only on submit.
func (h *ComposerHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+1<<20)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to get image file from form: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to read image file: %w", err))
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	if err := h.composer.AttachImage(header.Filename, contentType, data); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeState(w, r, http.StatusOK)
}

// Submit writes the draft. Validation failures keep the form open.
func (h *ComposerHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := h.composer.Submit(r.Context()); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"state": h.composer.State(), "snapshot": h.cache.Snapshot()})
}

func (h *ComposerHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.composer.Cancel(); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeState(w, r, http.StatusOK)
}

// Interrupt is the escape gesture: it closes whatever is open.
func (h *ComposerHandler) Interrupt(w http.ResponseWriter, r *http.Request) {
	h.composer.Interrupt()
	h.writeState(w, r, http.StatusOK)
}

// Delete removes a tournament. The renderer must pass confirm=true after the
// user approved the prompt; otherwise nothing is sent to the API.
func (h *ComposerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	err = h.composer.Delete(r.Context(), id, func(models.Tournament) bool { return confirmed })
	if err != nil {
		if errors.Is(err, services.ErrDeleteNotConfirmed) {
			errorResponse(w, r, http.StatusPreconditionRequired, err.Error())
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ComposerHandler) writeState(w http.ResponseWriter, r *http.Request, status int) {
	respond(w, r, status, jsonResponse{"state": h.composer.State()})
}
