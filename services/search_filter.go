package services

import (
	"strings"

	"github.com/Dosada05/tournament-calendar/models"
)

// FilterTournaments returns the records whose title or calendar date contains
// query, case-insensitively, in their original order. A blank query yields a
// copy of all records.
func FilterTournaments(query string, records []models.Tournament) []models.Tournament {
	blank := strings.TrimSpace(query) == ""
	q := strings.ToLower(query)
	out := make([]models.Tournament, 0, len(records))
	for _, t := range records {
		if blank || matchesQuery(t, q) {
			out = append(out, t)
		}
	}
	return out
}

func matchesQuery(t models.Tournament, lowered string) bool {
	if strings.Contains(strings.ToLower(t.Title), lowered) {
		return true
	}
	return !t.Date.IsZero() && strings.Contains(t.Date.String(), lowered)
}
