package services

import (
	"sort"
	"time"

	"github.com/Dosada05/tournament-calendar/models"
	"github.com/Dosada05/tournament-calendar/utils"
)

const chipTitleLength = 18

// Chip is the compact rendering of a tournament inside a day cell.
type Chip struct {
	TournamentID string `json:"tournamentId"`
	Title        string `json:"title"`
	Label        string `json:"label"`
	Thumbnail    string `json:"thumbnail,omitempty"`
	StartTime    string `json:"startTime"`
}

// DayCell describes one square of the month grid. The renderer draws it
// as is and reports clicks through CellActions.
type DayCell struct {
	Date    models.Date `json:"date"`
	InMonth bool        `json:"inMonth"`
	Today   bool        `json:"today"`
	Count   int         `json:"count"`
	Chips   []Chip      `json:"chips"`
}

type Month struct {
	Year  int         `json:"year"`
	Month time.Month  `json:"month"`
	Weeks [][]DayCell `json:"weeks"`
}

// CellActions are the callbacks a renderer binds to every day cell.
type CellActions struct {
	OnSelect func(models.Date) error
	OnAdd    func(models.Date) error
}

// BuildMonth lays out the weeks (Sunday first) covering year/month and places
// the given records on their dates.
func BuildMonth(year int, month time.Month, records []models.Tournament, today models.Date) Month {
	byDate := make(map[models.Date][]models.Tournament)
	for _, t := range records {
		if t.Date.IsZero() {
			continue
		}
		byDate[t.Date] = append(byDate[t.Date], t)
	}

	first := models.Date{Year: year, Month: month, Day: 1}
	start := first.AddDays(-int(first.Time().Weekday()))
	last := first.AddDays(daysIn(year, month) - 1)
	end := last.AddDays(int(time.Saturday - last.Time().Weekday()))

	m := Month{Year: year, Month: month}
	var week []DayCell
	for d := start; !end.Before(d); d = d.AddDays(1) {
		week = append(week, buildCell(d, month, today, byDate[d]))
		if len(week) == 7 {
			m.Weeks = append(m.Weeks, week)
			week = nil
		}
	}
	return m
}

func buildCell(d models.Date, month time.Month, today models.Date, records []models.Tournament) DayCell {
	sorted := append([]models.Tournament(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartTime < sorted[j].StartTime })

	cell := DayCell{
		Date:    d,
		InMonth: d.Month == month,
		Today:   d == today,
		Count:   len(sorted),
		Chips:   make([]Chip, 0, len(sorted)),
	}
	for _, t := range sorted {
		cell.Chips = append(cell.Chips, Chip{
			TournamentID: t.ID,
			Title:        t.Title,
			Label:        utils.Truncate(t.Title, chipTitleLength),
			Thumbnail:    utils.Deref(t.Image),
			StartTime:    t.StartTime,
		})
	}
	return cell
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
