package models

import "strings"

// Attachment is a local file picked in the form. It is uploaded before the
// record is written and is never sent to the tournament API itself.
type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Draft is the working copy behind the create/edit form.
type Draft struct {
	BoundID    string      `json:"boundId,omitempty"`
	Title      string      `json:"title"`
	Date       Date        `json:"date"`
	StartTime  string      `json:"startTime"`
	EndTime    string      `json:"endTime"`
	ImageURL   *string     `json:"image"`
	Note       string      `json:"note"`
	Platforms  []Platform  `json:"platforms"`
	Links      []Link      `json:"links"`
	Attachment *Attachment `json:"-"`
}

// NewDraft returns a fresh draft for date with one editable link row.
func NewDraft(date Date) Draft {
	return Draft{
		Date:      date,
		Platforms: []Platform{},
		Links:     []Link{{}},
	}
}

// DraftFromTournament pre-populates a draft bound to t.ID. An empty link
// list is seeded with one blank row so the form always has a row to edit.
func DraftFromTournament(t Tournament) Draft {
	c := t.Clone()
	d := Draft{
		BoundID:   c.ID,
		Title:     c.Title,
		Date:      c.Date,
		StartTime: c.StartTime,
		EndTime:   c.EndTime,
		ImageURL:  c.Image,
		Platforms: c.Platforms,
		Links:     c.Links,
	}
	if c.Note != nil {
		d.Note = *c.Note
	}
	if d.Platforms == nil {
		d.Platforms = []Platform{}
	}
	if len(d.Links) == 0 {
		d.Links = []Link{{}}
	}
	return d
}

func (d Draft) IsBound() bool {
	return d.BoundID != ""
}

// TournamentInput is the JSON body for create and full-replace update.
type TournamentInput struct {
	Title     string     `json:"title"`
	Date      Date       `json:"date"`
	StartTime string     `json:"startTime"`
	EndTime   string     `json:"endTime"`
	Image     *string    `json:"image"`
	Note      string     `json:"note"`
	Platforms []Platform `json:"platforms"`
	Links     []Link     `json:"links"`
}

// Input builds the wire payload from the draft, using imageURL as the image.
func (d Draft) Input(imageURL *string) TournamentInput {
	return TournamentInput{
		Title:     strings.TrimSpace(d.Title),
		Date:      d.Date,
		StartTime: strings.TrimSpace(d.StartTime),
		EndTime:   strings.TrimSpace(d.EndTime),
		Image:     imageURL,
		Note:      d.Note,
		Platforms: NormalizePlatforms(d.Platforms),
		Links:     CleanLinks(d.Links),
	}
}

// Clone copies the draft, sharing the attachment bytes (they are never mutated).
func (d Draft) Clone() Draft {
	c := d
	if d.ImageURL != nil {
		img := *d.ImageURL
		c.ImageURL = &img
	}
	c.Platforms = append([]Platform{}, d.Platforms...)
	c.Links = append([]Link{}, d.Links...)
	if d.Attachment != nil {
		a := *d.Attachment
		c.Attachment = &a
	}
	return c
}
