package models

import "strings"

// Platform представляет платформу, на которой проходит турнир.
type Platform string

const (
	PlatformPC          Platform = "pc"
	PlatformPlayStation Platform = "playstation"
	PlatformXbox        Platform = "xbox"
)

// AllPlatforms lists the fixed enumeration in display order.
var AllPlatforms = []Platform{PlatformPC, PlatformPlayStation, PlatformXbox}

func (p Platform) Valid() bool {
	switch p {
	case PlatformPC, PlatformPlayStation, PlatformXbox:
		return true
	default:
		return false
	}
}

// Link is a labelled external link attached to a tournament.
type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Tournament представляет турнир в календаре.
type Tournament struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner,omitempty"`
	CreatedBy string     `json:"createdBy,omitempty"`
	Title     string     `json:"title"`
	Date      Date       `json:"date"`
	StartTime string     `json:"startTime"`
	EndTime   string     `json:"endTime"`
	Image     *string    `json:"image"`
	Note      *string    `json:"note"`
	Platforms []Platform `json:"platforms"`
	Links     []Link     `json:"links"`
	LikeCount int        `json:"likeCount"`
}

// NormalizePlatforms drops unknown tags and duplicates, keeping first-seen order.
// The result is never nil so it marshals as an empty JSON array.
func NormalizePlatforms(in []Platform) []Platform {
	out := make([]Platform, 0, len(in))
	seen := make(map[Platform]bool, len(in))
	for _, p := range in {
		p = Platform(strings.ToLower(strings.TrimSpace(string(p))))
		if !p.Valid() || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// CleanLinks drops link rows whose URL is blank. Never returns nil.
func CleanLinks(in []Link) []Link {
	out := make([]Link, 0, len(in))
	for _, l := range in {
		if strings.TrimSpace(l.URL) == "" {
			continue
		}
		out = append(out, Link{Name: strings.TrimSpace(l.Name), URL: strings.TrimSpace(l.URL)})
	}
	return out
}

// HasPlatform reports whether the tournament is tagged with p.
func (t Tournament) HasPlatform(p Platform) bool {
	for _, tp := range t.Platforms {
		if tp == p {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers never share slices with the cache.
func (t Tournament) Clone() Tournament {
	c := t
	if t.Image != nil {
		img := *t.Image
		c.Image = &img
	}
	if t.Note != nil {
		note := *t.Note
		c.Note = &note
	}
	if t.Platforms != nil {
		c.Platforms = append([]Platform(nil), t.Platforms...)
	}
	if t.Links != nil {
		c.Links = append([]Link(nil), t.Links...)
	}
	return c
}
