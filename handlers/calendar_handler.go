package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Dosada05/tournament-calendar/models"
	"github.com/Dosada05/tournament-calendar/services"
)

// CalendarHandler serves the filtered view, the month grid and day panels.
type CalendarHandler struct {
	cache    *services.EventCache
	detail   *services.DetailService
	composer *services.Composer
	now      func() time.Time
}

func NewCalendarHandler(cache *services.EventCache, detail *services.DetailService, composer *services.Composer) *CalendarHandler {
	return &CalendarHandler{
		cache:    cache,
		detail:   detail,
		composer: composer,
		now:      time.Now,
	}
}

// View sets the search query when q is present and returns the snapshot.
func (h *CalendarHandler) View(w http.ResponseWriter, r *http.Request) {
	if q, ok := r.URL.Query()["q"]; ok {
		h.cache.SetQuery(q[0])
	}
	respond(w, r, http.StatusOK, jsonResponse{"snapshot": h.cache.Snapshot()})
}

// Month returns the grid for year/month, defaulting to the current month.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	year, month := now.Year(), now.Month()

	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1 || y > 9999 {
			badRequestResponse(w, r, fmt.Errorf("invalid year %q", raw))
			return
		}
		year = y
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			badRequestResponse(w, r, fmt.Errorf("invalid month %q", raw))
			return
		}
		month = time.Month(m)
	}

	grid := services.BuildMonth(year, month, h.cache.View(), models.DateOf(now))
	respond(w, r, http.StatusOK, jsonResponse{"month": grid, "loaded": h.cache.Loaded()})
}

func (h *CalendarHandler) Day(w http.ResponseWriter, r *http.Request) {
	date, err := dateFromURL(r, "date")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	detail, err := h.detail.Day(r.Context(), date)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"day": detail})
}

// Inspect opens the day view for a cell and returns its panel.
func (h *CalendarHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	date, err := dateFromURL(r, "date")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.composer.CellActions().OnSelect(date); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	detail, err := h.detail.Day(r.Context(), date)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"state": h.composer.State(), "day": detail})
}

// Refresh reloads the whole list from the API.
func (h *CalendarHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Load(r.Context()); err != nil {
		if r.Context().Err() != nil {
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"snapshot": h.cache.Snapshot()})
}
